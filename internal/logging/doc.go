// Package logging provides structured logging for the mc6sysex tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used by the transports, the relay server and the CLI. The codec
// packages (protocol, bank, bankfile) do not log; they return errors and
// warnings to the caller.
//
// # Log Levels
//
//   - Debug: Frame hex dumps, websocket messages
//   - Info: Connections, ports opened, banks sent
//   - Warn: Decode warnings, dropped frames, retries
//   - Error: Startup failures, transport errors
//
// # Configuration
//
// Logging is silent unless MC6_LOG_LEVEL is set or a level is passed explicitly:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format so that hex dumps printed on stdout
// can be piped.
//
// # Specialized Logging
//
//	logging.LogFrame(logging.DirectionOut, frame)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogWebSocketMessage(remoteAddr, "received", msgType, payload)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has run.
package logging
