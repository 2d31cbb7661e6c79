package topology

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML topology document, applies the documented defaults,
// and validates it. The returned topology is ready for rendering.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology %s: %w", path, err)
	}

	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing topology %s: %w", path, err)
	}

	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("topology %s: %w", path, err)
	}
	return &t, nil
}

// inventoryRow is one line of a CSV device inventory. Column headers match
// the csv tags; credential columns are optional and fall back to defaults.
type inventoryRow struct {
	Name     string `csv:"name"`
	Family   string `csv:"family"`
	MgmtIP   string `csv:"mgmt_ip"`
	Username string `csv:"username"`
	Password string `csv:"password"`
	Port     int    `csv:"port"`
}

// LoadInventory reads a CSV device inventory into a topology. Inventories
// carry no VLAN/zone detail; they exist for bulk labs where every device
// gets its family's baseline configuration.
func LoadInventory(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}
	defer f.Close()

	var rows []*inventoryRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing inventory %s: %w", path, err)
	}

	t := &Topology{Name: path}
	for _, row := range rows {
		family, err := ParseModelFamily(row.Family)
		if err != nil {
			return nil, fmt.Errorf("inventory %s: device '%s': %w", path, row.Name, err)
		}
		t.Devices = append(t.Devices, &Device{
			Name:   row.Name,
			Family: family,
			MgmtIP: row.MgmtIP,
			Credentials: Credentials{
				Username: row.Username,
				Password: row.Password,
				Port:     row.Port,
			},
		})
	}

	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	return t, nil
}
