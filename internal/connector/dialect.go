package connector

import "strings"

// Dialect describes how to pull the running configuration from one
// device family. Devices select their dialect with the device_type tag
// from the inventory.
type Dialect struct {
	Name         string
	FetchCommand string
}

var dialects = map[string]Dialect{
	"cisco_ios":     {Name: "cisco_ios", FetchCommand: "show running-config"},
	"cisco_xe":      {Name: "cisco_xe", FetchCommand: "show running-config"},
	"cisco_nxos":    {Name: "cisco_nxos", FetchCommand: "show running-config"},
	"arista_eos":    {Name: "arista_eos", FetchCommand: "show running-config"},
	"juniper":       {Name: "juniper", FetchCommand: "show configuration"},
	"juniper_junos": {Name: "juniper_junos", FetchCommand: "show configuration"},
	"hp_comware":    {Name: "hp_comware", FetchCommand: "display current-configuration"},
	"aruba_os":      {Name: "aruba_os", FetchCommand: "display current-configuration"},
}

var defaultDialect = Dialect{Name: "generic", FetchCommand: "show running-config"}

// DialectFor returns the dialect for a device-type tag. Exact matches
// win; otherwise a tag that embeds a known family name (for example
// "cisco_ios_telnet") maps to that family. Unknown tags fall back to
// the generic show command.
func DialectFor(deviceType string) Dialect {
	if d, ok := dialects[deviceType]; ok {
		return d
	}
	for key, d := range dialects {
		if strings.Contains(deviceType, key) {
			return d
		}
	}
	return defaultDialect
}
