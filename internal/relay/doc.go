// Package relay implements the mc6-relay websocket server.
//
// A relay runs on the machine the MC6 Mk2 is plugged into and exposes it to
// the network. It accepts one websocket client at a time on Config.Path:
//
//   - Binary messages from the client are validated as sysex frames and
//     forwarded to the device. Invalid frames and text messages are logged
//     and dropped.
//   - Frames received from the device are forwarded to the client, or logged
//     and dropped when no client is connected.
//   - A second client is refused with 409 Conflict until the first leaves.
//
// With Config.Advertise set, the relay registers itself over mDNS as
// _mc6relay._tcp so that `mc6-cfg scan` can find it. With Config.CertPath
// and Config.KeyPath set the relay serves wss:// and says so in its TXT
// records.
//
// # Usage
//
//	srv := relay.New(relay.Config{Port: relay.DefaultPort, Advertise: true})
//	if err := srv.Start(ctx, device); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled, then closes the client and the mDNS
// registration.
package relay
