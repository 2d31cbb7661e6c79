// Package topology defines the in-memory network topology model consumed
// by the config renderer and the provisioning orchestrator. The model is
// pure data: producers (GUI, NLP extraction, inventory files) build it,
// Validate checks it, and nothing here touches the network.
package topology

import (
	"fmt"

	"github.com/vrpweave/vrpweave/pkg/util"
)

// ModelFamily identifies the device command grammar a template targets.
type ModelFamily string

const (
	FamilyRouter       ModelFamily = "router"
	FamilyAccessSwitch ModelFamily = "access-switch"
	FamilyCoreSwitch   ModelFamily = "core-switch"
	FamilyFirewall     ModelFamily = "firewall"
)

// Documented credential and addressing fallbacks. Lab images ship with
// these defaults; per-device values override them.
const (
	DefaultUsername  = "admin"
	DefaultPassword  = "huawei@123"
	DefaultSSHPort   = 22
	DefaultPrefixLen = 24
	DefaultNATAction = "source-nat"
)

// ParseModelFamily validates a model family string.
func ParseModelFamily(s string) (ModelFamily, error) {
	switch ModelFamily(s) {
	case FamilyRouter, FamilyAccessSwitch, FamilyCoreSwitch, FamilyFirewall:
		return ModelFamily(s), nil
	}
	return "", fmt.Errorf("unknown model family '%s'", s)
}

// IsSwitch returns true for families that carry VLAN configuration.
func (f ModelFamily) IsSwitch() bool {
	return f == FamilyAccessSwitch || f == FamilyCoreSwitch
}

// Credentials holds the SSH login for a device.
type Credentials struct {
	Username string `yaml:"username" csv:"username"`
	Password string `yaml:"password" csv:"password"`
	Port     int    `yaml:"port" csv:"port"`
}

// Topology is a full lab description: devices plus the links between them.
type Topology struct {
	Name    string    `yaml:"name"`
	Devices []*Device `yaml:"devices"`
	Links   []Link    `yaml:"links,omitempty"`
}

// Link connects two endpoints in "device:interface" form.
type Link struct {
	A string `yaml:"a"`
	Z string `yaml:"z"`
}

// Device is one node to be configured. Collections keep declaration order;
// that order is visible in the rendered script and in final device state.
type Device struct {
	Name        string            `yaml:"name"`
	Family      ModelFamily       `yaml:"family"`
	MgmtIP      string            `yaml:"mgmt_ip"`
	Credentials Credentials       `yaml:"credentials,omitempty"`
	Interfaces  []*Interface      `yaml:"interfaces,omitempty"`
	VLANs       []*VLAN           `yaml:"vlans,omitempty"`
	Zones       []*SecurityZone   `yaml:"zones,omitempty"`
	Policies    []*SecurityPolicy `yaml:"policies,omitempty"`
	NATRules    []*NATRule        `yaml:"nat_rules,omitempty"`
	Routing     *Routing          `yaml:"routing,omitempty"`
}

// Interface is a physical or logical port on a device.
type Interface struct {
	Name        string `yaml:"name"`
	Address     string `yaml:"address,omitempty"` // IPv4, optionally with /len
	AccessVLAN  int    `yaml:"access_vlan,omitempty"`
	TrunkVLANs  []int  `yaml:"trunk_vlans,omitempty"`
	Description string `yaml:"description,omitempty"`
	Zone        string `yaml:"zone,omitempty"`
}

// VLAN declares a layer-2 segment on a device.
type VLAN struct {
	ID          int    `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	Address     string `yaml:"address,omitempty"` // SVI address, optionally with /len
}

// SecurityZone is a firewall zone declaration.
type SecurityZone struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority,omitempty"`
}

// SecurityPolicy permits or denies traffic between two zones.
type SecurityPolicy struct {
	Name            string `yaml:"name"`
	SourceZone      string `yaml:"source_zone"`
	DestinationZone string `yaml:"destination_zone"`
	Action          string `yaml:"action,omitempty"` // permit, deny
	Service         string `yaml:"service,omitempty"`
}

// NATRule translates traffic leaving a zone.
type NATRule struct {
	Name            string `yaml:"name"`
	SourceZone      string `yaml:"source_zone"`
	DestinationZone string `yaml:"destination_zone,omitempty"`
	Action          string `yaml:"action,omitempty"` // defaults to source-nat
}

// Routing carries optional L3 configuration.
type Routing struct {
	DefaultGateway string     `yaml:"default_gateway,omitempty"`
	OSPFAreas      []OSPFArea `yaml:"ospf_areas,omitempty"`
}

// OSPFArea enables OSPF on the listed networks.
type OSPFArea struct {
	ID       int      `yaml:"id"`
	Networks []string `yaml:"networks"`
}

// DeviceNames returns device names in declaration order.
func (t *Topology) DeviceNames() []string {
	names := make([]string, 0, len(t.Devices))
	for _, d := range t.Devices {
		names = append(names, d.Name)
	}
	return names
}

// GetDevice looks up a device by name.
func (t *Topology) GetDevice(name string) (*Device, error) {
	for _, d := range t.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device '%s' not found in topology", name)
}

// ApplyDefaults substitutes the documented fallbacks for every optional
// field that has one. Called by Load; producers building topologies in
// memory should call it before Validate.
func (t *Topology) ApplyDefaults() {
	for _, d := range t.Devices {
		d.ApplyDefaults()
	}
}

// ApplyDefaults fills credential, port, and NAT-action fallbacks.
func (d *Device) ApplyDefaults() {
	if d.Credentials.Username == "" {
		d.Credentials.Username = DefaultUsername
	}
	if d.Credentials.Password == "" {
		d.Credentials.Password = DefaultPassword
	}
	if d.Credentials.Port == 0 {
		d.Credentials.Port = DefaultSSHPort
	}
	for _, r := range d.NATRules {
		if r.Action == "" {
			r.Action = DefaultNATAction
		}
	}
	for _, p := range d.Policies {
		if p.Action == "" {
			p.Action = "permit"
		}
	}
}

// MgmtHost returns the management address without any prefix length.
func (d *Device) MgmtHost() string {
	host, _ := util.SplitIPMask(d.MgmtIP)
	return host
}

// MgmtMask returns the management subnet mask in dotted-decimal form,
// defaulting to /24 when the address carries no prefix length.
func (d *Device) MgmtMask() string {
	_, prefixLen := util.SplitIPMask(d.MgmtIP)
	if prefixLen == 0 {
		prefixLen = DefaultPrefixLen
	}
	mask, err := util.DottedMask(prefixLen)
	if err != nil {
		return ""
	}
	return mask
}

// Target returns the "host:port" SSH dial address for the device.
func (d *Device) Target() string {
	return fmt.Sprintf("%s:%d", d.MgmtHost(), d.Credentials.Port)
}

// HasVLAN reports whether the device declares the given VLAN id.
func (d *Device) HasVLAN(id int) bool {
	for _, v := range d.VLANs {
		if v.ID == id {
			return true
		}
	}
	return false
}

// HasZone reports whether the device declares the given security zone.
func (d *Device) HasZone(name string) bool {
	for _, z := range d.Zones {
		if z.Name == name {
			return true
		}
	}
	return false
}
