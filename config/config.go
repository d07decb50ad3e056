// Package config loads session.Session's keyword-style options from a
// YAML file, the declarative-config convention the rest of the
// retrieved pack uses for services of this shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options carries the keyword options of SPEC_FULL.md §6: the skip
// glob-pattern set, whether a trampoline reenters the debugger on a
// termination signal, and whether the runner's own entry call event
// is ignored (defaults differ between Run/RunEval and SetTrace/RunCall,
// so it is a pointer here — nil means "let the runner facade decide").
type Options struct {
	Skip                 []string `yaml:"skip"`
	SigintTrampoline     bool     `yaml:"sigintTrampoline"`
	IgnoreFirstCallEvent *bool    `yaml:"ignoreFirstCallEvent"`
}

// Load reads and parses an Options value from a YAML file at path. A
// missing file is not an error: it returns the zero Options, matching
// every keyword option being optional per spec.md §6.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Options{}, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &opts, nil
}
