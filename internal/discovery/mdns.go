package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type mc6-relay advertises
	ServiceType = "_mc6relay._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for relay discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the relay port assumed when an entry carries none
	DefaultPort = 8765

	// DefaultPath is the websocket path assumed when the TXT record has none
	DefaultPath = "/sysex"
)

// TXT record keys
const (
	TxtPath    = "path"
	TxtVersion = "version"
	TxtTLS     = "tls"
)

// Scanner handles mDNS relay discovery
type Scanner struct {
	// Timeout is the maximum time to wait for relay discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForRelays browses for relays until the timeout or ctx ends.
// Relays are returned sorted by instance name, one entry per instance.
func (s *Scanner) ScanForRelays(ctx context.Context) ([]*Relay, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var mu sync.Mutex
	found := make(map[string]*Relay)

	// Browse for services in a goroutine
	go func() {
		for entry := range entries {
			if relay := parseServiceEntry(entry); relay != nil {
				mu.Lock()
				found[relay.Instance] = relay
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return sortRelays(found), nil
}

// WaitForRelay waits for the relay with the given instance name.
func (s *Scanner) WaitForRelay(ctx context.Context, instance string) (*Relay, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	relayChan := make(chan *Relay, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Keep draining after a match so the resolver never blocks
	go func() {
		for entry := range entries {
			relay := parseServiceEntry(entry)
			if relay != nil && relay.Instance == instance {
				select {
				case relayChan <- relay:
					cancel()
				default:
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case relay := <-relayChan:
		return relay, nil
	case <-ctx.Done():
		select {
		case relay := <-relayChan:
			return relay, nil
		default:
		}
		return nil, fmt.Errorf("relay %q not found within %v", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Relay.
// Returns nil if the entry has no instance name or address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Relay {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	path := metadata[TxtPath]
	if path == "" {
		path = DefaultPath
	}

	return &Relay{
		Instance:     entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         path,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func sortRelays(found map[string]*Relay) []*Relay {
	relays := make([]*Relay, 0, len(found))
	for _, r := range found {
		relays = append(relays, r)
	}
	sort.Slice(relays, func(i, j int) bool {
		return relays[i].Instance < relays[j].Instance
	})
	return relays
}

// ScanForRelays is a convenience function to scan for relays with a custom timeout
func ScanForRelays(ctx context.Context, timeout time.Duration) ([]*Relay, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.ScanForRelays(ctx)
}
