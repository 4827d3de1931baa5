package classify

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

type tableFile struct {
	Version    int             `yaml:"version"`
	MinSignal  int             `yaml:"min_signal"`
	Categories []categoryTable `yaml:"categories"`
}

type categoryTable struct {
	Name      string   `yaml:"name"`
	Threshold int      `yaml:"threshold"`
	Patterns  []string `yaml:"patterns"`
}

// Tables holds the compiled pattern tables in priority order.
type Tables struct {
	MinSignal  int
	Categories []CompiledCategory
}

type CompiledCategory struct {
	Name      string
	Threshold int
	Patterns  []*regexp.Regexp
}

// LoadTables parses and compiles the embedded pattern tables. Patterns are
// matched case-insensitively.
func LoadTables() (*Tables, error) {
	return loadTables(tablesYAML)
}

func loadTables(raw []byte) (*Tables, error) {
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if len(tf.Categories) == 0 {
		return nil, fmt.Errorf("tables: no categories defined")
	}
	t := &Tables{MinSignal: tf.MinSignal}
	if t.MinSignal <= 0 {
		t.MinSignal = 2
	}
	for _, c := range tf.Categories {
		cc := CompiledCategory{Name: c.Name, Threshold: c.Threshold}
		for _, p := range c.Patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, fmt.Errorf("tables: category %q pattern %q: %w", c.Name, p, err)
			}
			cc.Patterns = append(cc.Patterns, re)
		}
		t.Categories = append(t.Categories, cc)
	}
	return t, nil
}
