// Package cmdlib is a reference catalogue of raw VRP CLI fragments for
// template authors. Fragments are documentation: the core never executes
// them directly.
package cmdlib

import (
	"fmt"
	"sort"
)

// Fragment is one annotated CLI snippet.
type Fragment struct {
	Command string
	Purpose string
}

var catalogue = map[string][]Fragment{
	"vlan": {
		{"vlan batch <id> [<id> ...]", "declare multiple VLANs in one command"},
		{"vlan <id>", "enter VLAN view"},
		{"description <text>", "set VLAN description (VLAN view)"},
		{"port link-type access", "make port an access port (interface view)"},
		{"port default vlan <id>", "assign access VLAN (interface view)"},
		{"port link-type trunk", "make port a trunk (interface view)"},
		{"port trunk allow-pass vlan <id> [<id> ...]", "allow VLANs on trunk (interface view)"},
	},
	"interface": {
		{"interface <name>", "enter interface view"},
		{"ip address <addr> <mask>", "assign IPv4 address (interface view)"},
		{"description <text>", "set interface description (interface view)"},
		{"undo shutdown", "administratively enable the interface"},
		{"interface Vlanif<id>", "enter the SVI for a VLAN"},
	},
	"routing": {
		{"ip route-static <dest> <mask> <next-hop>", "static route; 0.0.0.0 0.0.0.0 for default"},
		{"ospf <process-id>", "enter OSPF view"},
		{"area <id>", "enter OSPF area view"},
		{"network <addr> <wildcard>", "advertise a network in the area (area view)"},
	},
	"acl": {
		{"acl <number>", "enter basic (2000-2999) or advanced (3000-3999) ACL view"},
		{"rule <id> permit source <addr> <wildcard>", "permit matching sources (ACL view)"},
		{"rule <id> permit icmp", "permit ICMP (ACL view)"},
		{"rule <id> deny ip", "deny remaining traffic (ACL view)"},
	},
	"ssh": {
		{"stelnet server enable", "enable the SSH server"},
		{"undo telnet server enable", "disable cleartext telnet"},
		{"ssh user <name> authentication-type password", "password authentication for an SSH user"},
		{"ssh user <name> service-type stelnet", "allow the user to use SSH"},
		{"local-user <name> password cipher <pass>", "create the local account (AAA view)"},
		{"local-user <name> privilege level 15", "grant full privileges (AAA view)"},
		{"user-interface vty 0 4", "enter VTY line view"},
		{"authentication-mode aaa", "use AAA on the VTY lines (VTY view)"},
		{"protocol inbound ssh", "restrict VTY lines to SSH (VTY view)"},
	},
	"logging": {
		{"info-center enable", "enable the logging subsystem"},
		{"info-center source default channel 0 log level warning", "set console log severity"},
		{"info-center timestamp log date-time", "timestamp log entries"},
		{"undo info-center enable", "silence logging (quiet lab consoles)"},
	},
	"port-security": {
		{"port-security enable", "enable port security (interface view)"},
		{"port-security max-mac-num <n>", "limit learned MAC addresses (interface view)"},
		{"port-security protect-action shutdown", "shut the port on violation (interface view)"},
	},
}

// Topics returns the catalogue topics in sorted order.
func Topics() []string {
	topics := make([]string, 0, len(catalogue))
	for t := range catalogue {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Fragments returns the fragments for a topic.
func Fragments(topic string) ([]Fragment, error) {
	frags, ok := catalogue[topic]
	if !ok {
		return nil, fmt.Errorf("unknown command topic '%s'", topic)
	}
	return frags, nil
}
