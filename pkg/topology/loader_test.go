package topology

import (
	"os"
	"path/filepath"
	"testing"
)

const labYAML = `name: campus-lab
devices:
  - name: SW1
    family: access-switch
    mgmt_ip: 192.168.56.10/24
    vlans:
      - id: 10
        description: users
      - id: 20
    interfaces:
      - name: GigabitEthernet0/0/1
        access_vlan: 10
      - name: GigabitEthernet0/0/24
        trunk_vlans: [10, 20]
  - name: R1
    family: router
    mgmt_ip: 192.168.56.1
    credentials:
      username: labadmin
      port: 2222
    interfaces:
      - name: GigabitEthernet0/0/0
        description: to-SW1
    routing:
      default_gateway: 192.168.56.254
links:
  - a: SW1:GigabitEthernet0/0/24
    z: R1:GigabitEthernet0/0/0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "lab.yaml", labYAML)
	topo, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if topo.Name != "campus-lab" {
		t.Errorf("Name = %q", topo.Name)
	}
	if len(topo.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(topo.Devices))
	}

	sw1, err := topo.GetDevice("SW1")
	if err != nil {
		t.Fatal(err)
	}
	if sw1.Credentials.Username != "admin" || sw1.Credentials.Port != 22 {
		t.Error("SW1 should carry default credentials")
	}

	r1, err := topo.GetDevice("R1")
	if err != nil {
		t.Fatal(err)
	}
	if r1.Credentials.Username != "labadmin" || r1.Credentials.Port != 2222 {
		t.Errorf("R1 credentials = %s:%d, explicit values should survive",
			r1.Credentials.Username, r1.Credentials.Port)
	}
	if r1.Credentials.Password != "huawei@123" {
		t.Error("R1 password should fall back to the default")
	}
}

func TestLoad_InvalidTopology(t *testing.T) {
	path := writeFile(t, "bad.yaml", `name: broken
devices:
  - name: SW1
    family: access-switch
    mgmt_ip: not-an-ip
`)
	if _, err := Load(path); err == nil {
		t.Fatal("invalid topology loaded without error")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "devices: [not: {valid")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML loaded without error")
	}
}

func TestLoadInventory(t *testing.T) {
	path := writeFile(t, "inventory.csv",
		"name,family,mgmt_ip,username,password,port\n"+
			"SW1,access-switch,192.168.56.10,,,\n"+
			"SW2,core-switch,192.168.56.11,ops,secret,2022\n"+
			"R1,router,192.168.56.1,,,\n")

	topo, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	if len(topo.Devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(topo.Devices))
	}

	sw1 := topo.Devices[0]
	if sw1.Family != FamilyAccessSwitch {
		t.Errorf("SW1 family = %q", sw1.Family)
	}
	if sw1.Credentials.Username != "admin" || sw1.Credentials.Port != 22 {
		t.Error("blank inventory credentials should take defaults")
	}

	sw2 := topo.Devices[1]
	if sw2.Credentials.Username != "ops" || sw2.Credentials.Port != 2022 {
		t.Error("explicit inventory credentials lost")
	}
}

func TestLoadInventory_UnknownFamily(t *testing.T) {
	path := writeFile(t, "inventory.csv",
		"name,family,mgmt_ip,username,password,port\n"+
			"X1,mainframe,192.168.56.10,,,\n")
	if _, err := LoadInventory(path); err == nil {
		t.Fatal("unknown family accepted")
	}
}
