// Package definition loads component and system definitions from YAML files.
// A definition file may declare components, systems, or both; directory
// loading scans for *.yaml and *.yml files and merges everything found.
package definition

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/strand/internal/component"
	"github.com/zjrosen/strand/internal/log"
)

// File is the root structure of a definition file.
type File struct {
	Components []component.Component        `yaml:"components"`
	Systems    []component.SystemDefinition `yaml:"systems"`
}

// Bundle is the merged result of loading one or more definition files.
type Bundle struct {
	Components []component.Component
	Systems    []component.SystemDefinition
}

// Parse decodes a single definition document and validates it. Each
// component's SourcePath is set to source so change watching and lazy
// reloading know where it came from.
func Parse(content []byte, source string) (Bundle, error) {
	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return Bundle{}, fmt.Errorf("parse %s: %w", source, err)
	}

	for i, c := range file.Components {
		if c.Name == "" {
			return Bundle{}, fmt.Errorf("%s: component %d: name is required", source, i)
		}
		if !c.Type.IsValid() {
			return Bundle{}, fmt.Errorf("%s: component %s: unknown type %q", source, c.Name, c.Type)
		}
		file.Components[i].SourcePath = source
	}
	for i, s := range file.Systems {
		if s.Name == "" {
			return Bundle{}, fmt.Errorf("%s: system %d: name is required", source, i)
		}
	}

	return Bundle{Components: file.Components, Systems: file.Systems}, nil
}

// LoadFile reads and parses one definition file from disk.
func LoadFile(path string) (Bundle, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- caller-supplied definition path
	if err != nil {
		return Bundle{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(content, path)
}

// LoadDir walks root for definition files and merges their contents. Files
// are visited in lexical order, so later files win any name collisions once
// the bundle is registered.
func LoadDir(fsys fs.FS, root string) (Bundle, error) {
	var bundle Bundle

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDefinitionFile(d.Name()) {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		loaded, err := Parse(content, path)
		if err != nil {
			return err
		}
		bundle.Components = append(bundle.Components, loaded.Components...)
		bundle.Systems = append(bundle.Systems, loaded.Systems...)
		return nil
	})
	if err != nil {
		return Bundle{}, fmt.Errorf("scan definitions: %w", err)
	}

	log.Debug(log.CatConfig, "definitions loaded", "root", root,
		"components", len(bundle.Components), "systems", len(bundle.Systems))
	return bundle, nil
}

// System returns the named system definition from the bundle.
func (b Bundle) System(name string) (component.SystemDefinition, bool) {
	for _, s := range b.Systems {
		if s.Name == name {
			return s, true
		}
	}
	return component.SystemDefinition{}, false
}

func isDefinitionFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
