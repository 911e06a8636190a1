package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type configRole struct {
	ID               string `yaml:"id"`
	Tag              string `yaml:"tag"`
	Style            string `yaml:"style"`
	Instructions     string `yaml:"instructions"`
	InstructionsFile string `yaml:"instructions_file"`
}

type configFile struct {
	Sentinel   string       `yaml:"sentinel"`
	PassMarker string       `yaml:"pass_marker"`
	Roles      []configRole `yaml:"roles"`
}

// Load reads a roster config file. Instruction files resolve relative to the
// config's directory. Loaded once per process; the result is immutable.
func Load(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read roster file: %w", err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse roster YAML: %w", err)
	}
	if len(cfg.Roles) == 0 {
		return nil, fmt.Errorf("roster file %q defines no roles", path)
	}

	baseDir := filepath.Dir(path)
	roles := make([]Role, 0, len(cfg.Roles))
	for _, rc := range cfg.Roles {
		tag, err := ParseTag(rc.Tag)
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", rc.ID, err)
		}
		style, err := ParseStyle(rc.Style)
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", rc.ID, err)
		}

		instructions := rc.Instructions
		if rc.InstructionsFile != "" {
			p := rc.InstructionsFile
			if !filepath.IsAbs(p) {
				p = filepath.Join(baseDir, p)
			}
			b, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("role %q: could not read instructions file: %w", rc.ID, err)
			}
			instructions = string(b)
		}
		if tag != TagExecutor && strings.TrimSpace(instructions) == "" {
			return nil, fmt.Errorf("role %q has no instructions", rc.ID)
		}

		roles = append(roles, Role{
			ID:           ID(strings.TrimSpace(rc.ID)),
			Tag:          tag,
			Style:        style,
			Instructions: instructions,
		})
	}

	return New(roles, cfg.Sentinel, cfg.PassMarker)
}
