package component

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"gopkg.in/yaml.v3"
)

// ErrEmptyComponentName is returned when a manifest entry has no name.
var ErrEmptyComponentName = errors.New("component manifest entry has no name")

// Manifest is a declarative list of components, typically shipped next to the shader sources.
//
//	components:
//	  - name: normal_map
//	    flag: true
//	    shader: normal_map
//	    fields:
//	      - { name: normal_scale, offset: 32, size: 4 }
type Manifest struct {
	Components []ManifestEntry `yaml:"components"`
}

// ManifestEntry declares a single component.
type ManifestEntry struct {
	Name   string          `yaml:"name"`
	Flag   *bool           `yaml:"flag"`
	Shader string          `yaml:"shader"`
	Fields []ManifestField `yaml:"fields"`
}

// ManifestField declares one GPU record field serialized by a component.
type ManifestField struct {
	Name   string `yaml:"name"`
	Offset uint32 `yaml:"offset"`
	Size   uint32 `yaml:"size"`
}

// Component converts the entry into a Basic component. Entries without an explicit flag contribute one.
func (e ManifestEntry) Component() Component {
	flag := true
	if e.Flag != nil {
		flag = *e.Flag
	}
	fields := make([]gpu_mirror.FieldDescriptor, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, gpu_mirror.FieldDescriptor{Name: f.Name, Offset: f.Offset, Size: f.Size})
	}
	return Basic{Flag: flag, FieldList: fields, Fragment: e.Shader}
}

// LoadManifest parses a YAML component manifest.
//
// Parameters:
//   - data: the raw YAML document
//
// Returns:
//   - Manifest: the parsed manifest
//   - error: a parse error or ErrEmptyComponentName
func LoadManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse component manifest: %w", err)
	}
	for i, e := range m.Components {
		if e.Name == "" {
			return Manifest{}, fmt.Errorf("entry %d: %w", i, ErrEmptyComponentName)
		}
	}
	return m, nil
}

// RegisterManifest registers every manifest entry in order. If any registration fails, the entries of this
// manifest that were already registered are unregistered again before the error is returned.
//
// Parameters:
//   - table: the component table to register into
//   - m: the manifest
//
// Returns:
//   - []common.ComponentID: the assigned IDs in manifest order
//   - error: the first registration error, wrapped with the entry name
func RegisterManifest(table ComponentTable, m Manifest) ([]common.ComponentID, error) {
	ids := make([]common.ComponentID, 0, len(m.Components))
	for i, e := range m.Components {
		id, err := table.RegisterComponent(e.Name, e.Component())
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = table.UnregisterComponent(m.Components[j].Name)
			}
			return nil, fmt.Errorf("register component %q: %w", e.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
