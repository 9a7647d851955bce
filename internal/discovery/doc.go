// Package discovery finds mc6-relay servers on the local network over mDNS.
//
// Relays started with --advertise register a "_mc6relay._tcp" service whose
// TXT record carries the websocket path and the relay version.
//
// # Usage Example
//
//	relays, err := discovery.ScanForRelays(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, r := range relays {
//	    fmt.Printf("%s -> %s\n", r.Instance, r.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Relays must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
