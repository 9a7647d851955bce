package relay

import (
	"crypto/tls"
	"fmt"

	"github.com/muurk/mc6sysex/internal/logging"
	"go.uber.org/zap"
)

// TLSEnabled reports whether both a certificate and a key are configured.
func (c Config) TLSEnabled() bool {
	return c.CertPath != "" && c.KeyPath != ""
}

// newTLSConfig loads the relay certificate for wss:// clients.
func newTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	logging.Info("TLS configuration created from files",
		zap.String("cert", certPath),
		zap.String("key", keyPath),
	)

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
