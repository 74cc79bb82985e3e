// Package loader builds type registries from schema directories and keeps
// them fresh: templates are parsed from YAML files, registered, and eagerly
// resolved so dangling references surface at startup instead of at first use.
package loader

import (
	"fmt"

	"github.com/artpar/typekit/core/registry"
	"github.com/artpar/typekit/core/schema"
)

// Load parses every template definition in dirs, registers them into a fresh
// registry, and resolves all non-generic templates. Generic templates are
// registered but only instantiated on demand, since their argument tuples are
// not known up front.
func Load(dirs []string, obs registry.Observer) (*registry.Registry, error) {
	reg := registry.New()
	if obs != nil {
		reg.Observe(obs)
	}

	for _, dir := range dirs {
		templates, err := schema.ParseDir(dir)
		if err != nil {
			return nil, fmt.Errorf("load schemas from %s: %w", dir, err)
		}
		if err := reg.RegisterAll(templates); err != nil {
			return nil, fmt.Errorf("register schemas from %s: %w", dir, err)
		}
	}

	for _, tpl := range reg.Templates() {
		if len(tpl.TypeParams) > 0 {
			continue
		}
		if _, err := reg.Resolve(tpl.SerialName); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", tpl.SerialName, err)
		}
	}

	return reg, nil
}
