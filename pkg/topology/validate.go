package topology

import (
	"strings"

	"github.com/vrpweave/vrpweave/pkg/util"
)

// Validate checks every invariant the renderer and orchestrator rely on.
// The core does not trust upstream producers to have validated already.
// All violations are accumulated and reported together; none are silently
// dropped or corrected beyond the documented default-value policy.
func (t *Topology) Validate() error {
	v := &util.ValidationBuilder{}

	v.Add(len(t.Devices) > 0, "topology declares no devices")

	seen := make(map[string]bool)
	for _, d := range t.Devices {
		if d.Name == "" {
			v.AddError("device with empty name")
			continue
		}
		if seen[d.Name] {
			v.AddErrorf("duplicate device name '%s'", d.Name)
			continue
		}
		seen[d.Name] = true
		d.validate(v)
	}

	for i, link := range t.Links {
		t.validateEndpoint(v, i, "a", link.A)
		t.validateEndpoint(v, i, "z", link.Z)
	}

	return v.Build()
}

// Validate checks one device's invariants in isolation. The renderer calls
// this so a bad device fails before any network contact.
func (d *Device) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(d.Name != "", "device with empty name")
	d.validate(v)
	return v.Build()
}

func (d *Device) validate(v *util.ValidationBuilder) {
	if _, err := ParseModelFamily(string(d.Family)); err != nil {
		v.AddErrorf("device '%s': %v", d.Name, err)
	}

	host, prefixLen := util.SplitIPMask(d.MgmtIP)
	if d.MgmtIP == "" {
		v.AddErrorf("device '%s': mgmt_ip is required", d.Name)
	} else if !util.IsValidIPv4(host) || prefixLen > 32 {
		v.AddErrorf("device '%s': invalid management IP '%s'", d.Name, d.MgmtIP)
	}

	vlanIDs := make(map[int]bool)
	for _, vlan := range d.VLANs {
		if err := util.ValidateVLANID(vlan.ID); err != nil {
			v.AddErrorf("device '%s': %v", d.Name, err)
			continue
		}
		if vlanIDs[vlan.ID] {
			v.AddErrorf("device '%s': duplicate VLAN id %d", d.Name, vlan.ID)
		}
		vlanIDs[vlan.ID] = true
		if vlan.Address != "" {
			addr, _ := util.SplitIPMask(vlan.Address)
			if !util.IsValidIPv4(addr) {
				v.AddErrorf("device '%s' vlan %d: invalid address '%s'", d.Name, vlan.ID, vlan.Address)
			}
		}
	}

	ifaceNames := make(map[string]bool)
	for _, iface := range d.Interfaces {
		if iface.Name == "" {
			v.AddErrorf("device '%s': interface with empty name", d.Name)
			continue
		}
		if ifaceNames[iface.Name] {
			v.AddErrorf("device '%s': duplicate interface '%s'", d.Name, iface.Name)
		}
		ifaceNames[iface.Name] = true

		if iface.Address != "" {
			addr, _ := util.SplitIPMask(iface.Address)
			if !util.IsValidIPv4(addr) {
				v.AddErrorf("device '%s' interface '%s': invalid address '%s'",
					d.Name, iface.Name, iface.Address)
			}
		}
		if iface.AccessVLAN != 0 && !vlanIDs[iface.AccessVLAN] {
			v.AddErrorf("device '%s' interface '%s': access VLAN %d not declared",
				d.Name, iface.Name, iface.AccessVLAN)
		}
		for _, id := range iface.TrunkVLANs {
			if !vlanIDs[id] {
				v.AddErrorf("device '%s' interface '%s': trunk VLAN %d not declared",
					d.Name, iface.Name, id)
			}
		}
		if iface.Zone != "" && !d.HasZone(iface.Zone) {
			v.AddErrorf("device '%s' interface '%s': zone '%s' not declared",
				d.Name, iface.Name, iface.Zone)
		}
	}

	for _, p := range d.Policies {
		if !d.HasZone(p.SourceZone) {
			v.AddErrorf("device '%s' policy '%s': source zone '%s' not declared",
				d.Name, p.Name, p.SourceZone)
		}
		if !d.HasZone(p.DestinationZone) {
			v.AddErrorf("device '%s' policy '%s': destination zone '%s' not declared",
				d.Name, p.Name, p.DestinationZone)
		}
	}
	for _, r := range d.NATRules {
		if !d.HasZone(r.SourceZone) {
			v.AddErrorf("device '%s' NAT rule '%s': source zone '%s' not declared",
				d.Name, r.Name, r.SourceZone)
		}
		if r.DestinationZone != "" && !d.HasZone(r.DestinationZone) {
			v.AddErrorf("device '%s' NAT rule '%s': destination zone '%s' not declared",
				d.Name, r.Name, r.DestinationZone)
		}
	}

	if d.Routing != nil {
		if gw := d.Routing.DefaultGateway; gw != "" && !util.IsValidIPv4(gw) {
			v.AddErrorf("device '%s': invalid default gateway '%s'", d.Name, gw)
		}
		for _, area := range d.Routing.OSPFAreas {
			for _, network := range area.Networks {
				if !util.IsValidIPv4CIDR(network) {
					v.AddErrorf("device '%s' OSPF area %d: invalid network '%s'",
						d.Name, area.ID, network)
				}
			}
		}
	}
}

func (t *Topology) validateEndpoint(v *util.ValidationBuilder, linkIdx int, side, endpoint string) {
	deviceName, ifaceName, ok := strings.Cut(endpoint, ":")
	if !ok {
		v.AddErrorf("link[%d].%s: invalid endpoint '%s' (expected 'device:interface')",
			linkIdx, side, endpoint)
		return
	}
	device, err := t.GetDevice(deviceName)
	if err != nil {
		v.AddErrorf("link[%d].%s: device '%s' not found in topology", linkIdx, side, deviceName)
		return
	}
	for _, iface := range device.Interfaces {
		if iface.Name == ifaceName {
			return
		}
	}
	v.AddErrorf("link[%d].%s: interface '%s' not found on device '%s'",
		linkIdx, side, ifaceName, deviceName)
}
