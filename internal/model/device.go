package model

import (
	"net"
	"strconv"
	"time"
)

// Device describes one network device in the inventory. Devices are
// built by the config layer and never mutated during a backup run.
type Device struct {
	Name      string   `json:"name"`
	Host      string   `json:"hostname"`
	Type      string   `json:"device_type"` // dialect tag, e.g. "cisco_ios"
	Port      int      `json:"port"`
	Timeout   int      `json:"timeout"` // per-attempt timeout in seconds
	Groups    []string `json:"groups"`
	Enabled   bool     `json:"enabled"`
	Community string   `json:"snmp_community,omitempty"`

	// Credentials are resolved from the environment by the config
	// layer and never serialized.
	Username string `json:"-"`
	Password string `json:"-"`
}

// Addr returns the host:port dial address for the device.
func (d *Device) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// TimeoutDuration returns the per-attempt timeout as a duration.
func (d *Device) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// InGroup reports whether the device belongs to the named group.
func (d *Device) InGroup(group string) bool {
	for _, g := range d.Groups {
		if g == group {
			return true
		}
	}
	return false
}
