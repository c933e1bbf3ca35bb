// Package scene keeps the catalog of loadable scenes and loads their data
// off the frame loop.
package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/gamestate/specs"
)

var (
	ErrNotFound  = errors.New("scene not found")
	ErrAmbiguous = errors.New("more than one scene matches")
)

// NotBaked is the BakedID of scenes whose kind is missing from the order.
const NotBaked = -1

type Details struct {
	// ID is the registration index across all kinds.
	ID      int
	Name    string
	Path    string
	Kind    Kind
	BakedID int
}

func (d Details) String() string {
	bake := " - not baked"
	if d.BakedID != NotBaked {
		bake = fmt.Sprintf(" - baked id: %d", d.BakedID)
	}
	return fmt.Sprintf("[%d]%s: type: %s%s, path: %s", d.ID, d.Name, d.Kind, bake, d.Path)
}

type entrySpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// CatalogSpec is the on-disk form of scenes.yaml.
type CatalogSpec struct {
	Order  []Kind                 `yaml:"order"`
	Scenes map[string][]entrySpec `yaml:"scenes"`
}

// Catalog is the set of scenes the game can load. Baked ids follow the
// configured kind order, then each kind's declaration order.
type Catalog struct {
	order   []Kind
	byKind  map[Kind][]Details
	current *Details
}

func LoadCatalog(name string) (*Catalog, error) {
	spec, err := specs.LoadSpec[CatalogSpec](name)
	if err != nil {
		return nil, err
	}
	return NewCatalog(spec)
}

func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	c := &Catalog{
		order:  spec.Order,
		byKind: make(map[Kind][]Details, len(spec.Scenes)),
	}

	// Registration ids are stable regardless of map iteration order.
	names := make([]string, 0, len(spec.Scenes))
	for k := range spec.Scenes {
		names = append(names, k)
	}
	sort.Strings(names)

	id := 0
	for _, kindName := range names {
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		for _, e := range spec.Scenes[kindName] {
			if strings.TrimSpace(e.Name) == "" {
				return nil, fmt.Errorf("scene: %s scene without a name", kind)
			}
			if c.has(kind, e.Name) {
				return nil, fmt.Errorf("scene: %s %q: %w", kind, e.Name, ErrAmbiguous)
			}
			c.byKind[kind] = append(c.byKind[kind], Details{
				ID:      id,
				Name:    e.Name,
				Path:    e.Path,
				Kind:    kind,
				BakedID: NotBaked,
			})
			id++
		}
	}

	c.bake()
	return c, nil
}

func (c *Catalog) has(kind Kind, name string) bool {
	for _, d := range c.byKind[kind] {
		if d.Name == name {
			return true
		}
	}
	return false
}

func (c *Catalog) bake() {
	baked := 0
	seen := make(map[Kind]bool, len(c.order))
	for _, kind := range c.order {
		if seen[kind] {
			continue
		}
		seen[kind] = true
		scenes := c.byKind[kind]
		for i := range scenes {
			scenes[i].BakedID = baked
			baked++
		}
	}
}

func (c *Catalog) all() []Details {
	var out []Details
	for _, kind := range c.kinds() {
		out = append(out, c.byKind[kind]...)
	}
	return out
}

func (c *Catalog) kinds() []Kind {
	kinds := make([]Kind, 0, len(c.byKind))
	for k := range c.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// BakedID returns the baked id of the scene called name within kind.
func (c *Catalog) BakedID(kind Kind, name string) (int, error) {
	d, err := c.find(c.byKind[kind], name)
	if err != nil {
		return 0, fmt.Errorf("scene: %s %q: %w", kind, name, err)
	}
	return d.BakedID, nil
}

// BakedIDByName looks name up across every kind.
func (c *Catalog) BakedIDByName(name string) (int, error) {
	d, err := c.find(c.all(), name)
	if err != nil {
		return 0, fmt.Errorf("scene: %q: %w", name, err)
	}
	return d.BakedID, nil
}

func (c *Catalog) find(scenes []Details, name string) (Details, error) {
	var found []Details
	for _, d := range scenes {
		if d.Name == name {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 0:
		return Details{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return Details{}, ErrAmbiguous
	}
}

func (c *Catalog) ByID(id int) (Details, error) {
	for _, d := range c.all() {
		if d.ID == id {
			return d, nil
		}
	}
	return Details{}, fmt.Errorf("scene: id %d: %w", id, ErrNotFound)
}

func (c *Catalog) ByBakedID(baked int) (Details, error) {
	if baked == NotBaked {
		return Details{}, fmt.Errorf("scene: baked id %d: %w", baked, ErrNotFound)
	}
	for _, d := range c.all() {
		if d.BakedID == baked {
			return d, nil
		}
	}
	return Details{}, fmt.Errorf("scene: baked id %d: %w", baked, ErrNotFound)
}

func (c *Catalog) First(kind Kind) (Details, error) {
	return c.At(kind, 0)
}

// At returns the index-th scene of kind in declaration order.
func (c *Catalog) At(kind Kind, index int) (Details, error) {
	scenes := c.byKind[kind]
	if index < 0 || index >= len(scenes) {
		return Details{}, fmt.Errorf("scene: %s #%d: %w", kind, index, ErrNotFound)
	}
	return scenes[index], nil
}

// SetCurrent marks the scene that is now running. Unknown or ambiguous
// names leave the current scene unchanged.
func (c *Catalog) SetCurrent(kind Kind, name string) bool {
	d, err := c.find(c.byKind[kind], name)
	if err != nil {
		return false
	}
	c.current = &d
	return true
}

func (c *Catalog) Current() (Details, bool) {
	if c.current == nil {
		return Details{}, false
	}
	return *c.current, true
}

// Next returns the scene declared after the current one within its kind.
func (c *Catalog) Next() (Details, bool) {
	if c.current == nil {
		return Details{}, false
	}
	scenes := c.byKind[c.current.Kind]
	for i, d := range scenes {
		if d.Name == c.current.Name && i+1 < len(scenes) {
			return scenes[i+1], true
		}
	}
	return Details{}, false
}

func (c *Catalog) String() string {
	var b strings.Builder
	for _, d := range c.all() {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
