package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Relay represents an mc6-relay server found on the network
type Relay struct {
	// Instance is the mDNS instance name (e.g., "mc6-relay-stage")
	Instance string

	// Host is the mDNS hostname (e.g., "stage.local.")
	Host string

	// IP is the relay address, IPv4 when available
	IP string

	// Port is the websocket listen port
	Port int

	// Path is the websocket endpoint path from the TXT record
	Path string

	// Metadata contains all mDNS TXT record data
	// Common fields: "path=/sysex", "version=v1.0.0"
	Metadata map[string]string

	// DiscoveredAt is when the relay was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the relay
func (r *Relay) String() string {
	return fmt.Sprintf("Relay %s (%s) at %s", r.Instance, r.Host, r.URL())
}

// URL returns the websocket URL for the relay
func (r *Relay) URL() string {
	path := r.Path
	if path == "" {
		path = DefaultPath
	}
	if path[0] != '/' {
		path = "/" + path
	}
	scheme := "ws://"
	if r.GetMetadata(TxtTLS) == "1" {
		scheme = "wss://"
	}
	return scheme + net.JoinHostPort(r.IP, strconv.Itoa(r.Port)) + path
}

// Version returns the relay version from its TXT record, or empty string if absent
func (r *Relay) Version() string {
	return r.GetMetadata(TxtVersion)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (r *Relay) GetMetadata(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
