// Package competitor loads the bots taking part in a competition from their
// configuration bundles.
package competitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	locationsSection = "Locations"
	nameKey          = "name"
)

// Competitor is a bot identified by its .cfg path.
type Competitor struct {
	configPath string
	name       string
}

// New builds a competitor without reading the bundle.
func New(configPath, name string) Competitor {
	if name == "" {
		name = baseName(configPath)
	}
	return Competitor{configPath: configPath, name: name}
}

// Load reads the bundle at path. The display name comes from
// [Locations] name and falls back to the file name.
func Load(path string) (Competitor, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Competitor{}, fmt.Errorf("%w: %s: %w", ErrLoadCompetitor, path, err)
	}
	name := strings.TrimSpace(cfg.Section(locationsSection).Key(nameKey).String())
	return New(path, name), nil
}

// LoadAll loads every path in order.
func LoadAll(paths []string) ([]Competitor, error) {
	out := make([]Competitor, 0, len(paths))
	for _, p := range paths {
		c, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ConfigPath identifies the competitor.
func (c Competitor) ConfigPath() string { return c.configPath }

// Name is the display name from the bundle.
func (c Competitor) Name() string { return c.name }

func (c Competitor) String() string { return c.name + " (" + c.configPath + ")" }

// ConfigPaths returns the identifying paths in order.
func ConfigPaths(cs []Competitor) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.configPath
	}
	return out
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type teamSettings struct {
	BlueTeam   []teamEntry `json:"blue_team"`
	OrangeTeam []teamEntry `json:"orange_team"`
}

type teamEntry struct {
	Path string `json:"path"`
}

// TeamSettingsPaths reads a launcher team settings file and returns the
// bundle paths of the blue team followed by the orange team. Entries without
// a path (humans, built-in bots) are skipped.
func TeamSettingsPaths(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTeamSettings, err)
	}
	var ts teamSettings
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTeamSettings, path, err)
	}
	var out []string
	for _, e := range append(ts.BlueTeam, ts.OrangeTeam...) {
		if e.Path != "" {
			out = append(out, e.Path)
		}
	}
	return out, nil
}
