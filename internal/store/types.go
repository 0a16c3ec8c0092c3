package store

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Source names the tier that produced a ResolvedConfig.
type Source string

const (
	SourceFile     Source = "file"
	SourceRegistry Source = "registry"
	SourceDefault  Source = "default"
)

// ResolvedConfig carries the install path. An empty InstallPath means unresolved.
type ResolvedConfig struct {
	InstallPath string `mapstructure:"game_path" json:"game_path"`
	Source      Source `mapstructure:"-" json:"source"`
}

type document struct {
	GamePath string `yaml:"game_path"`
}

// Text renders the config in the persisted YAML form.
func (c ResolvedConfig) Text() string {
	b, err := yaml.Marshal(document{GamePath: c.InstallPath})
	if err != nil {
		return fmt.Sprintf("game_path: %q\n", c.InstallPath)
	}
	return string(b)
}

// ParseText reads the YAML form produced by Text.
func ParseText(text string) (ResolvedConfig, error) {
	var d document
	if err := yaml.Unmarshal([]byte(text), &d); err != nil {
		return ResolvedConfig{}, err
	}
	return ResolvedConfig{InstallPath: d.GamePath}, nil
}
