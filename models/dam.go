package models

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"
	"gopkg.in/yaml.v3"
)

//go:embed dams.yaml
var defaultDamsYAML string

// StationID identifies one observation point on the river observation site.
type StationID string

// Dam pairs a human-readable dam name with its observation station.
type Dam struct {
	Name      string    `yaml:"name" json:"name"`
	StationID StationID `yaml:"station_id" json:"station_id"`
}

// DamTable is an immutable name->station mapping. Build it once at startup and pass it down.
type DamTable struct {
	dams  []Dam
	index map[string]int
}

type damFile struct {
	Dams []Dam `yaml:"dams"`
}

// DefaultDamTable returns the table compiled into the binary.
func DefaultDamTable() (*DamTable, error) {
	return LoadDamTable(strings.NewReader(defaultDamsYAML))
}

// LoadDamTable reads a YAML document of the form `dams: [{name, station_id}, ...]`.
func LoadDamTable(r io.Reader) (*DamTable, error) {
	var f damFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse dam table: %w", err)
	}
	return NewDamTable(f.Dams)
}

// NewDamTable validates dams and copies them into a table. Names are unique after normalization.
func NewDamTable(dams []Dam) (*DamTable, error) {
	if len(dams) == 0 {
		return nil, fmt.Errorf("dam table is empty")
	}
	t := &DamTable{
		dams:  make([]Dam, 0, len(dams)),
		index: make(map[string]int, len(dams)),
	}
	for i, d := range dams {
		key := NormalizeDamName(d.Name)
		if key == "" {
			return nil, fmt.Errorf("dam table entry %d has no name", i)
		}
		if strings.TrimSpace(string(d.StationID)) == "" {
			return nil, fmt.Errorf("dam %q has no station_id", d.Name)
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("duplicate dam name %q", d.Name)
		}
		t.index[key] = len(t.dams)
		t.dams = append(t.dams, d)
	}
	return t, nil
}

// Find returns the table entry for name or ErrUnknownDamName.
func (t *DamTable) Find(name string) (Dam, error) {
	i, ok := t.index[NormalizeDamName(name)]
	if !ok {
		return Dam{}, fmt.Errorf("%w: %q", ErrUnknownDamName, name)
	}
	return t.dams[i], nil
}

// Lookup returns the station for name or ErrUnknownDamName.
func (t *DamTable) Lookup(name string) (StationID, error) {
	d, err := t.Find(name)
	return d.StationID, err
}

// Dams returns a copy of the table in file order.
func (t *DamTable) Dams() []Dam {
	out := make([]Dam, len(t.dams))
	copy(out, t.dams)
	return out
}

// Names returns the dam names in file order.
func (t *DamTable) Names() []string {
	names := make([]string, len(t.dams))
	for i, d := range t.dams {
		names[i] = d.Name
	}
	return names
}

// NormalizeDamName folds width variants, trims space and drops a trailing "ダム",
// so "矢木沢ダム" and "矢木沢" resolve to the same entry.
func NormalizeDamName(name string) string {
	n := strings.TrimSpace(width.Fold.String(name))
	n = strings.TrimSuffix(n, "ダム")
	return strings.TrimSpace(n)
}
