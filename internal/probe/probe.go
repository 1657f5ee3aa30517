// Package probe identifies devices over SNMP before backing them up,
// so that an inventory entry can be checked against the hardware that
// actually answers at its address.
package probe

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/model"
)

const (
	oidSysDescr = "1.3.6.1.2.1.1.1.0"
	oidSysName  = "1.3.6.1.2.1.1.5.0"
)

// Identity is what a device reports about itself over SNMP.
type Identity struct {
	Device   string `json:"device"`
	Host     string `json:"hostname"`
	SysName  string `json:"sys_name"`
	SysDescr string `json:"sys_descr"`
	Error    string `json:"error,omitempty"`
}

// Prober queries devices for their SNMP system identity.
type Prober struct {
	timeout time.Duration
}

// NewProber creates a prober with the given per-device timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{timeout: timeout}
}

// Identify queries one device for sysName and sysDescr. The device must
// have an SNMP community configured.
func (p *Prober) Identify(dev *model.Device) (*Identity, error) {
	if dev.Community == "" {
		return nil, fmt.Errorf("device %s has no SNMP community configured", dev.Name)
	}

	g := &gosnmp.GoSNMP{
		Target:    dev.Host,
		Port:      161,
		Community: dev.Community,
		Version:   gosnmp.Version2c,
		Timeout:   p.timeout,
		Retries:   1,
	}

	if err := g.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", dev.Host, err)
	}
	defer g.Conn.Close()

	pkt, err := g.Get([]string{oidSysDescr, oidSysName})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", dev.Host, err)
	}

	id := &Identity{Device: dev.Name, Host: dev.Host}
	for _, v := range pkt.Variables {
		value := pduString(v)
		switch {
		case strings.HasSuffix(v.Name, oidSysDescr):
			id.SysDescr = value
		case strings.HasSuffix(v.Name, oidSysName):
			id.SysName = value
		}
	}

	log.Debug("Device identified", "device", dev.Name, "sys_name", id.SysName)
	return id, nil
}

// IdentifyAll probes every given device with bounded parallelism.
// Failures are recorded on the identity, never returned; callers get
// exactly one identity per device, in the input order.
func (p *Prober) IdentifyAll(devices []model.Device, maxParallel int) []Identity {
	if maxParallel < 1 {
		maxParallel = 1
	}

	out := make([]Identity, len(devices))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i := range devices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			dev := devices[i]
			id, err := p.Identify(&dev)
			if err != nil {
				out[i] = Identity{Device: dev.Name, Host: dev.Host, Error: err.Error()}
				return
			}
			out[i] = *id
		}(i)
	}
	wg.Wait()

	return out
}

func pduString(v gosnmp.SnmpPDU) string {
	switch val := v.Value.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
