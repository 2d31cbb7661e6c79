package template

import "github.com/vrpweave/vrpweave/pkg/topology"

// Builtin returns a catalogue holding the stock templates for the four
// model families. Lab authors can override any of them via LoadDir.
func Builtin() *Catalogue {
	c := NewCatalogue()
	c.Register(topology.FamilyRouter, MustCompile("builtin/router", routerTemplate))
	c.Register(topology.FamilyAccessSwitch, MustCompile("builtin/access-switch", accessSwitchTemplate))
	c.Register(topology.FamilyCoreSwitch, MustCompile("builtin/core-switch", coreSwitchTemplate))
	c.Register(topology.FamilyFirewall, MustCompile("builtin/firewall", firewallTemplate))
	return c
}

// The templates mirror the VRP command grammar of each family. Sub-mode
// entries (interface, vlan, acl, security-policy) are always paired with an
// explicit quit so the session's CLI depth stays balanced, and every script
// ends with the return/save/y terminal sequence.

const accessSwitchTemplate = `system-view
sysname ${device.name}
#if device.vlan_ids
vlan batch ${device.vlan_ids}
#end
#for vlan in device.vlans
vlan ${vlan.id}
 description ${vlan.description}
quit
#end
undo telnet server enable
stelnet server enable
#if device.mgmt_ip
interface Vlanif1
 description Management_Interface
 ip address ${device.mgmt_ip} ${device.mgmt_mask}
quit
#end
#for vlan in device.vlans
#if vlan.address
interface Vlanif${vlan.id}
 ip address ${vlan.address} ${vlan.mask}
quit
#end
#end
#for iface in device.interfaces
interface ${iface.name}
#if iface.description
 description ${iface.description}
#end
#if iface.access_vlan
 port link-type access
 port default vlan ${iface.access_vlan}
#end
#if iface.trunk_vlans
 port link-type trunk
 port trunk allow-pass vlan ${iface.trunk_vlans}
#end
 undo shutdown
quit
#end
acl 2000
 rule 5 permit source 192.168.0.0 0.0.255.255
 rule 10 permit icmp
quit
undo ip icmp rate-limit
#if device.mgmt_ip
ip icmp source Vlanif1
#end
info-center enable
info-center source default channel 0 log level warning
return
save
y
`

const coreSwitchTemplate = `system-view
sysname ${device.name}
#if device.vlan_ids
vlan batch ${device.vlan_ids}
#end
#for vlan in device.vlans
vlan ${vlan.id}
 description ${vlan.description}
quit
#end
undo telnet server enable
stelnet server enable
#if device.mgmt_ip
interface Vlanif1
 description Management_Interface
 ip address ${device.mgmt_ip} ${device.mgmt_mask}
quit
#end
#for vlan in device.vlans
#if vlan.address
interface Vlanif${vlan.id}
 ip address ${vlan.address} ${vlan.mask}
quit
#end
#end
#for iface in device.interfaces
interface ${iface.name}
#if iface.description
 description ${iface.description}
#end
#if iface.trunk_vlans
 port link-type trunk
 port trunk allow-pass vlan ${iface.trunk_vlans}
#end
#if iface.access_vlan
 port link-type access
 port default vlan ${iface.access_vlan}
#end
#if iface.address
 ip address ${iface.address} ${iface.mask}
#end
 undo shutdown
quit
#end
#for area in device.ospf_areas
ospf 1
 area ${area.id}
#for net in area.networks
  network ${net.address} ${net.wildcard}
#end
 quit
quit
#end
acl 2000
 rule 5 permit source 192.168.0.0 0.0.255.255
 rule 10 permit icmp
quit
undo ip icmp rate-limit
info-center enable
info-center source default channel 0 log level warning
return
save
y
`

const routerTemplate = `system-view
sysname ${device.name}
undo info-center enable
#if device.mgmt_ip
interface GigabitEthernet0/0/0
 ip address ${device.mgmt_ip} ${device.mgmt_mask}
 undo shutdown
quit
#end
#for iface in device.interfaces
interface ${iface.name}
#if iface.description
 description ${iface.description}
#end
#if iface.address
 ip address ${iface.address} ${iface.mask}
#end
 undo shutdown
quit
#end
ip route-static 0.0.0.0 0.0.0.0 ${device.gateway}
#for area in device.ospf_areas
ospf 1
 area ${area.id}
#for net in area.networks
  network ${net.address} ${net.wildcard}
#end
 quit
quit
#end
acl 2000
 rule 10 permit icmp
quit
undo ip icmp rate-limit
return
save
y
`

const firewallTemplate = `system-view
sysname ${device.name}
info-center timestamp log date-time
#for zone in device.zones
firewall zone ${zone.name}
#if zone.priority
 set priority ${zone.priority}
#end
quit
#end
#if device.mgmt_ip
interface GigabitEthernet1/0/1
 description Management_Interface
 ip address ${device.mgmt_ip} ${device.mgmt_mask}
 undo shutdown
quit
#end
#for iface in device.interfaces
interface ${iface.name}
#if iface.description
 description ${iface.description}
#end
#if iface.address
 ip address ${iface.address} ${iface.mask}
#end
 undo shutdown
quit
#if iface.zone
firewall zone ${iface.zone}
 add interface ${iface.name}
quit
#end
#end
#if device.policies
security-policy
#for policy in device.policies
 rule name ${policy.name}
  source-zone ${policy.source_zone}
  destination-zone ${policy.destination_zone}
#if policy.service
  service ${policy.service}
#end
  action ${policy.action}
#end
quit
#end
#if device.nat_rules
nat-policy
#for rule in device.nat_rules
 rule name ${rule.name}
  source-zone ${rule.source_zone}
#if rule.destination_zone
  destination-zone ${rule.destination_zone}
#end
  action ${rule.action}
#end
quit
#end
return
save
y
`
