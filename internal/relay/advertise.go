package relay

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/mc6sysex/internal/discovery"
	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/version"
	"go.uber.org/zap"
)

// InstanceNameOrDefault returns the configured mDNS instance name, or mc6-relay-<hostname>.
func (c Config) InstanceNameOrDefault() string {
	if c.InstanceName != "" {
		return c.InstanceName
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "mc6-relay"
	}
	return "mc6-relay-" + host
}

// txtRecords describes the relay endpoint to scanners.
func txtRecords(c Config) []string {
	records := []string{
		discovery.TxtPath + "=" + c.Path,
		discovery.TxtVersion + "=" + version.Version,
	}
	if c.TLSEnabled() {
		records = append(records, discovery.TxtTLS+"=1")
	}
	return records
}

func advertise(c Config, port int) (*zeroconf.Server, error) {
	instance := c.InstanceNameOrDefault()
	server, err := zeroconf.Register(instance, discovery.ServiceType, discovery.ServiceDomain, port, txtRecords(c), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising relay over mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return server, nil
}
