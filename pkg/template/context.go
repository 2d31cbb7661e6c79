package template

import (
	"strconv"
	"strings"
	"time"

	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
)

// deviceContext flattens a device into the dotted-path namespace templates
// resolve against. All derived values (dotted masks, joined VLAN lists,
// OSPF wildcards, the fallback gateway) are computed here so templates stay
// plain text and substitutions never see raw Go types.
func deviceContext(d *topology.Device, now time.Time) map[string]interface{} {
	dev := map[string]interface{}{
		"name":      d.Name,
		"family":    string(d.Family),
		"mgmt_ip":   d.MgmtHost(),
		"mgmt_mask": d.MgmtMask(),
	}

	var vlanIDs []string
	var vlans []interface{}
	for _, v := range d.VLANs {
		vlanIDs = append(vlanIDs, itoa(v.ID))
		desc := v.Description
		if desc == "" {
			desc = "VLAN-" + itoa(v.ID)
		}
		m := map[string]interface{}{
			"id":          v.ID,
			"description": desc,
		}
		if v.Address != "" {
			m["address"], m["mask"] = splitAddr(v.Address)
		}
		vlans = append(vlans, m)
	}
	dev["vlan_ids"] = join(vlanIDs)
	dev["vlans"] = vlans

	var ifaces []interface{}
	for _, iface := range d.Interfaces {
		m := map[string]interface{}{
			"name":        iface.Name,
			"description": iface.Description,
			"access_vlan": iface.AccessVLAN,
			"zone":        iface.Zone,
		}
		if iface.Address != "" {
			m["address"], m["mask"] = splitAddr(iface.Address)
		}
		var trunk []string
		for _, id := range iface.TrunkVLANs {
			trunk = append(trunk, itoa(id))
		}
		m["trunk_vlans"] = join(trunk)
		ifaces = append(ifaces, m)
	}
	dev["interfaces"] = ifaces

	var zones []interface{}
	for _, z := range d.Zones {
		zones = append(zones, map[string]interface{}{
			"name":     z.Name,
			"priority": z.Priority,
		})
	}
	dev["zones"] = zones

	var policies []interface{}
	for _, p := range d.Policies {
		policies = append(policies, map[string]interface{}{
			"name":             p.Name,
			"source_zone":      p.SourceZone,
			"destination_zone": p.DestinationZone,
			"action":           p.Action,
			"service":          p.Service,
		})
	}
	dev["policies"] = policies

	var natRules []interface{}
	for _, r := range d.NATRules {
		natRules = append(natRules, map[string]interface{}{
			"name":             r.Name,
			"source_zone":      r.SourceZone,
			"destination_zone": r.DestinationZone,
			"action":           r.Action,
		})
	}
	dev["nat_rules"] = natRules

	gateway := ""
	var areas []interface{}
	if d.Routing != nil {
		gateway = d.Routing.DefaultGateway
		for _, area := range d.Routing.OSPFAreas {
			var networks []interface{}
			for _, cidr := range area.Networks {
				addr, wildcard, err := util.NetworkAndWildcard(cidr)
				if err != nil {
					continue // Validate rejects these before render
				}
				networks = append(networks, map[string]interface{}{
					"address":  addr,
					"wildcard": wildcard,
				})
			}
			areas = append(areas, map[string]interface{}{
				"id":       area.ID,
				"networks": networks,
			})
		}
	}
	if gateway == "" {
		gateway = util.DefaultGatewayFor(d.MgmtHost())
	}
	dev["gateway"] = gateway
	dev["ospf_areas"] = areas

	return map[string]interface{}{
		"device": dev,
		"now":    now.Format("2006-01-02 15:04:05"),
	}
}

func splitAddr(addr string) (string, string) {
	host, prefixLen := util.SplitIPMask(addr)
	if prefixLen == 0 {
		prefixLen = topology.DefaultPrefixLen
	}
	mask, err := util.DottedMask(prefixLen)
	if err != nil {
		return host, ""
	}
	return host, mask
}

func itoa(n int) string { return strconv.Itoa(n) }

func join(parts []string) string { return strings.Join(parts, " ") }
