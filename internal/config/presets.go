package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Built-in chemistry presets. Cutoff windows follow the dashboard's cell
// setup defaults (LFP 2.8-3.6 V, NMC 3.2-4.0 V); NCA and LTO use their
// datasheet windows.
var presets = map[string]CellConfig{
	"lfp": {
		Name:                  "LFP prismatic 8Ah",
		Chemistry:             "lfp",
		CapacityAh:            8.0,
		NominalVoltage:        3.2,
		InternalResistanceOhm: 0.008,
		LowerCutoffV:          2.8,
		UpperCutoffV:          3.6,
		HeatCapacityJPerK:     250,
	},
	"nmc": {
		Name:                  "NMC pouch 6.66Ah",
		Chemistry:             "nmc",
		CapacityAh:            6.66,
		NominalVoltage:        3.7,
		InternalResistanceOhm: 0.02,
		LowerCutoffV:          3.2,
		UpperCutoffV:          4.0,
		HeatCapacityJPerK:     180,
	},
	"nca": {
		Name:                  "NCA 18650 3.2Ah",
		Chemistry:             "nca",
		CapacityAh:            3.2,
		NominalVoltage:        3.6,
		InternalResistanceOhm: 0.035,
		LowerCutoffV:          2.5,
		UpperCutoffV:          4.2,
		HeatCapacityJPerK:     45,
	},
	"lto": {
		Name:                  "LTO cylindrical 10Ah",
		Chemistry:             "lto",
		CapacityAh:            10.0,
		NominalVoltage:        2.4,
		InternalResistanceOhm: 0.005,
		LowerCutoffV:          1.5,
		UpperCutoffV:          2.8,
		HeatCapacityJPerK:     300,
	},
}

// Preset returns a built-in chemistry preset by name (case-insensitive).
func Preset(name string) (CellConfig, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CellEntry is a named cell definition, either built in or loaded from a directory.
type CellEntry struct {
	ID      string
	File    string // empty for built-ins
	BuiltIn bool
	Cell    CellConfig
}

// BuiltInCells lists the presets as entries.
func BuiltInCells() []CellEntry {
	out := make([]CellEntry, 0, len(presets))
	for _, name := range PresetNames() {
		out = append(out, CellEntry{ID: name, BuiltIn: true, Cell: presets[name]})
	}
	return out
}

// LoadCellDir reads every *.yaml / *.yml file in dir that has a `cell:` key.
// The ID is the filename without extension. Unreadable files are reported in
// skipped rather than failing the whole listing.
func LoadCellDir(dir string) (cells []CellEntry, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skipped = map[string]error{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		cell, lerr := LoadCellFile(path)
		if lerr != nil {
			skipped[e.Name()] = lerr
			continue
		}
		if verr := cell.ToModelProfile().Validate(); verr != nil {
			skipped[e.Name()] = verr
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if cell.Name == "" {
			cell.Name = id
		}
		cells = append(cells, CellEntry{ID: id, File: path, Cell: cell})
	}
	return cells, skipped, nil
}

// ResolveCellRef finds a cell by ID: built-in presets first, then dir.
func ResolveCellRef(dir, id string) (CellConfig, error) {
	if p, ok := Preset(id); ok {
		return p, nil
	}
	if dir == "" {
		return CellConfig{}, fmt.Errorf("unknown cell %q", id)
	}
	// IDs are plain file stems; reject anything that could escape dir.
	if id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return CellConfig{}, fmt.Errorf("invalid cell id %q", id)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return LoadCellFile(path)
		}
	}
	return CellConfig{}, fmt.Errorf("unknown cell %q", id)
}
