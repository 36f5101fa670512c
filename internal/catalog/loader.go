package catalog

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog document.
type File struct {
	Project  string                 `yaml:"project"`
	Entities map[string]*EntityFile `yaml:"entities"`
}

// EntityFile describes one entity type in a catalog document.
type EntityFile struct {
	Table      string                    `yaml:"table,omitempty"`
	Identity   string                    `yaml:"identity,omitempty"`
	Attributes map[string]*AttributeFile `yaml:"attributes"`
}

// AttributeFile describes one attribute in a catalog document.
type AttributeFile struct {
	Type          string      `yaml:"type"`
	Column        string      `yaml:"column,omitempty"`
	Link          string      `yaml:"link,omitempty"`
	LinkAttribute string      `yaml:"link_attribute,omitempty"`
	Restricted    bool        `yaml:"restricted,omitempty"`
	Validation    *Validation `yaml:"validation,omitempty"`
}

// UnmarshalYAML accepts either a bare kind (`name: identifier`) or a map.
func (a *AttributeFile) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Type = value.Value
		return nil
	}
	type plain AttributeFile
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*a = AttributeFile(p)
	return nil
}

// Load reads and validates a catalog document from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load catalog %s", path)
	}
	return cat, nil
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	return Build(&f)
}

// Build converts a catalog document into a validated Catalog.
func Build(f *File) (*Catalog, error) {
	cat := &Catalog{Project: f.Project, Entities: make(map[string]*EntityType, len(f.Entities))}

	for name, ef := range f.Entities {
		if ef == nil {
			ef = &EntityFile{}
		}
		e := &EntityType{
			Name:       name,
			Table:      ef.Table,
			Identity:   ef.Identity,
			Attributes: make(map[string]*Attribute, len(ef.Attributes)+1),
		}
		if e.Table == "" {
			e.Table = TableName(name)
		}
		if e.Identity == "" {
			e.Identity = "id"
		}
		for attrName, af := range ef.Attributes {
			if af == nil {
				return nil, errors.Newf("%s.%s: missing attribute definition", name, attrName)
			}
			a, err := buildAttribute(name, attrName, af)
			if err != nil {
				return nil, err
			}
			e.Attributes[attrName] = a
		}
		if _, ok := e.Attributes[e.Identity]; !ok && e.Identity == "id" {
			e.Attributes["id"] = &Attribute{Name: "id", Column: "id", Kind: KindIdentifier}
		}
		cat.Entities[name] = e
	}

	if err := Validate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func buildAttribute(entity, name string, af *AttributeFile) (*Attribute, error) {
	kind, err := ParseKind(af.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", entity, name)
	}
	a := &Attribute{
		Name:          name,
		Column:        af.Column,
		Kind:          kind,
		LinkEntity:    af.Link,
		LinkAttribute: af.LinkAttribute,
		Restricted:    af.Restricted,
		Validation:    af.Validation,
	}
	if a.IsLink() && a.LinkEntity == "" {
		a.LinkEntity = name
	}
	if a.IsReverseLink() && a.LinkAttribute == "" {
		a.LinkAttribute = entity
	}
	if a.Column == "" {
		switch {
		case a.IsReverseLink():
			// no column on the owner's table
		case a.IsLink():
			a.Column = name + "_id"
		default:
			a.Column = name
		}
	}
	return a, nil
}

// TableName derives a SQL table name from an entity name.
func TableName(entity string) string {
	return strings.ReplaceAll(slug.Make(entity), "-", "_")
}
