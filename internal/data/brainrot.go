package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Extent is a model size in metres along each axis.
type Extent struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// IsZero reports whether no axis has a positive size.
func (e Extent) IsZero() bool {
	return e.X <= 0 && e.Y <= 0 && e.Z <= 0
}

// BrainrotTemplate holds the static definition of a clickable creature,
// loaded from YAML. Non-positive numeric values mean "unset": the engine
// falls back to the global defaults when it reads them at spawn time.
type BrainrotTemplate struct {
	Name           string  `yaml:"name"`
	Rarity         string  `yaml:"rarity"`
	ClicksRequired float64 `yaml:"clicks_required"`
	RespawnTime    float64 `yaml:"respawn_time"` // seconds
	CoinsPerSecond float64 `yaml:"coins_per_second"`
	Area           string  `yaml:"area"`
	PrimarySize    Extent  `yaml:"primary_size"` // primary geometry extent
	BoundsSize     Extent  `yaml:"bounds_size"`  // bounding-box fallback
}

// Radius is half the max horizontal extent of the primary geometry,
// falling back to the bounding box, falling back to 0.
func (t *BrainrotTemplate) Radius() float64 {
	if r := halfMaxHorizontal(t.PrimarySize); r > 0 {
		return r
	}
	if r := halfMaxHorizontal(t.BoundsSize); r > 0 {
		return r
	}
	return 0
}

// HasGeometry reports whether the template has anything to anchor in the
// world. Templates without geometry cannot spawn.
func (t *BrainrotTemplate) HasGeometry() bool {
	return !t.PrimarySize.IsZero() || !t.BoundsSize.IsZero()
}

func halfMaxHorizontal(e Extent) float64 {
	m := e.X
	if e.Z > m {
		m = e.Z
	}
	if m <= 0 {
		return 0
	}
	return m / 2
}

type brainrotListFile struct {
	Brainrots []BrainrotTemplate `yaml:"brainrots"`
}

// BrainrotTable holds all creature templates indexed by name.
type BrainrotTable struct {
	templates map[string]*BrainrotTemplate
}

// LoadBrainrotTable loads creature templates from a YAML file.
func LoadBrainrotTable(path string) (*BrainrotTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brainrot_list: %w", err)
	}
	var f brainrotListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse brainrot_list: %w", err)
	}
	return NewBrainrotTable(f.Brainrots), nil
}

// NewBrainrotTable builds a table from already-parsed templates.
func NewBrainrotTable(templates []BrainrotTemplate) *BrainrotTable {
	t := &BrainrotTable{templates: make(map[string]*BrainrotTemplate, len(templates))}
	for i := range templates {
		b := &templates[i]
		t.templates[b.Name] = b
	}
	return t
}

// Get returns a template by name, or nil if not found.
func (t *BrainrotTable) Get(name string) *BrainrotTemplate {
	return t.templates[name]
}

// Count returns the number of loaded templates.
func (t *BrainrotTable) Count() int {
	return len(t.templates)
}

// Area is a flat rectangular spawn region: a horizontal extent plus the
// floor height instances stand on.
type Area struct {
	Name   string  `yaml:"name"`
	MinX   float64 `yaml:"min_x"`
	MinZ   float64 `yaml:"min_z"`
	MaxX   float64 `yaml:"max_x"`
	MaxZ   float64 `yaml:"max_z"`
	FloorY float64 `yaml:"floor_y"`
}

type areaListFile struct {
	Areas []Area `yaml:"areas"`
}

// AreaTable holds world areas indexed by name.
type AreaTable struct {
	areas map[string]*Area
}

// LoadAreaTable loads world areas from a YAML file.
func LoadAreaTable(path string) (*AreaTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read area_list: %w", err)
	}
	var f areaListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse area_list: %w", err)
	}
	return NewAreaTable(f.Areas), nil
}

// NewAreaTable builds a table from already-parsed areas.
func NewAreaTable(areas []Area) *AreaTable {
	t := &AreaTable{areas: make(map[string]*Area, len(areas))}
	for i := range areas {
		a := &areas[i]
		t.areas[a.Name] = a
	}
	return t
}

// Get returns an area by name, or nil if not found.
func (t *AreaTable) Get(name string) *Area {
	return t.areas[name]
}

// Count returns the number of loaded areas.
func (t *AreaTable) Count() int {
	return len(t.areas)
}

// SpawnEntry defines the initial world population: how many instances of a
// template to stand up in an area at boot.
type SpawnEntry struct {
	Template string `yaml:"template"`
	Area     string `yaml:"area"`
	Count    int    `yaml:"count"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return f.Spawns, nil
}
