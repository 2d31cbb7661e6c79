package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
)

// Script is the rendered command sequence for one device. It is never
// mutated after creation and is consumed exactly once by a device session.
type Script struct {
	Device     string
	Family     topology.ModelFamily
	Commands   []string
	RenderedAt time.Time
}

// String returns the script as newline-joined command text.
func (s *Script) String() string {
	return strings.Join(s.Commands, "\n")
}

// Catalogue maps model families to compiled templates. It is read-only
// after construction and freely shared across concurrent renders.
type Catalogue struct {
	templates map[topology.ModelFamily]*Program

	// Now supplies the ${now} built-in. Defaults to time.Now; tests pin it
	// so repeated renders stay byte-identical.
	Now func() time.Time
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{
		templates: make(map[topology.ModelFamily]*Program),
		Now:       time.Now,
	}
}

// Register binds a compiled template to a model family, replacing any
// previous binding.
func (c *Catalogue) Register(family topology.ModelFamily, p *Program) {
	c.templates[family] = p
}

// Lookup returns the template registered for a family.
func (c *Catalogue) Lookup(family topology.ModelFamily) (*Program, bool) {
	p, ok := c.templates[family]
	return p, ok
}

// Families returns the registered model families, sorted for stable output.
func (c *Catalogue) Families() []topology.ModelFamily {
	var families []topology.ModelFamily
	for f := range c.templates {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// LoadDir compiles every <family>.tmpl file in dir into the catalogue,
// overriding built-ins for the families it names. Unknown family names are
// an error; template authors get compile errors up front, not at render.
func (c *Catalogue) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading template directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		family, err := topology.ParseModelFamily(strings.TrimSuffix(entry.Name(), ".tmpl"))
		if err != nil {
			return fmt.Errorf("template file %s: %w", entry.Name(), err)
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}
		p, err := Compile(entry.Name(), string(data))
		if err != nil {
			return err
		}
		c.Register(family, p)
	}
	return nil
}

// Render validates the device, selects its family's template, and produces
// the literal command sequence. Rendering never touches the network and is
// deterministic: the same device and catalogue always produce the same
// commands.
func (c *Catalogue) Render(d *topology.Device) (*Script, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	p, ok := c.Lookup(d.Family)
	if !ok {
		return nil, &util.UnknownModelError{Device: d.Name, Family: string(d.Family)}
	}

	now := c.Now()
	sc := newScope(deviceContext(d, now))
	var commands []string
	for _, n := range p.body {
		if err := n.render(&commands, sc, p.name); err != nil {
			return nil, err
		}
	}
	return &Script{
		Device:     d.Name,
		Family:     d.Family,
		Commands:   commands,
		RenderedAt: now,
	}, nil
}
