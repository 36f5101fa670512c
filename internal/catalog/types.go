// Package catalog holds the read-only metadata that queries are compiled
// against: entity types, their attributes and how they link together.
package catalog

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrUnknownEntity is returned when an entity type is not in the catalog.
var ErrUnknownEntity = errors.New("unknown entity type")

// AttributeKind is the closed set of attribute kinds.
type AttributeKind int

const (
	KindIdentifier AttributeKind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindDateTime
	KindMatch
	KindMatrix
	KindFile
	KindFileCollection
	KindParent
	KindChild
	KindCollection
	KindTable
	KindLink
)

var kindNames = map[AttributeKind]string{
	KindIdentifier:     "identifier",
	KindString:         "string",
	KindInteger:        "integer",
	KindFloat:          "float",
	KindBoolean:        "boolean",
	KindDateTime:       "date_time",
	KindMatch:          "match",
	KindMatrix:         "matrix",
	KindFile:           "file",
	KindFileCollection: "file_collection",
	KindParent:         "parent",
	KindChild:          "child",
	KindCollection:     "collection",
	KindTable:          "table",
	KindLink:           "link",
}

func (k AttributeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a catalog file kind name to an AttributeKind.
func ParseKind(name string) (AttributeKind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown attribute kind %q", name)
}

// RestrictionAttribute is the name of the boolean attribute an entity type
// declares to mark individual records as restricted.
const RestrictionAttribute = "restricted"

// Validation is an optional rule attached to an attribute. For matrix
// attributes Options names the matrix columns in storage order.
type Validation struct {
	Type    string   `yaml:"type"`
	Options []string `yaml:"options,omitempty"`
	Pattern string   `yaml:"pattern,omitempty"`
}

// Attribute is a named, typed field or relationship of an entity type.
type Attribute struct {
	Name   string
	Column string
	Kind   AttributeKind

	// LinkEntity is the target entity type for link kinds.
	LinkEntity string
	// LinkAttribute names the attribute on LinkEntity that points back at
	// the owner. Only meaningful for reverse links (child, collection, table).
	LinkAttribute string

	Restricted bool
	Validation *Validation
}

// IsLink reports whether the attribute refers to another entity type.
func (a *Attribute) IsLink() bool {
	switch a.Kind {
	case KindParent, KindChild, KindCollection, KindTable, KindLink:
		return true
	}
	return false
}

// IsReverseLink reports whether the foreign key lives on the linked table.
func (a *Attribute) IsReverseLink() bool {
	switch a.Kind {
	case KindChild, KindCollection, KindTable:
		return true
	}
	return false
}

// IsList reports whether following the attribute yields many records.
func (a *Attribute) IsList() bool {
	return a.Kind == KindCollection || a.Kind == KindTable
}

// IsFileLike reports whether the attribute stores file JSON.
func (a *Attribute) IsFileLike() bool {
	return a.Kind == KindFile || a.Kind == KindFileCollection
}

// MatrixOptions returns the column names of a matrix attribute.
func (a *Attribute) MatrixOptions() []string {
	if a.Validation == nil {
		return nil
	}
	return a.Validation.Options
}

// EntityType is a named record kind with a fixed attribute set.
type EntityType struct {
	Name       string
	Table      string
	Identity   string
	Attributes map[string]*Attribute
}

// Attribute looks up an attribute by name.
func (e *EntityType) Attribute(name string) (*Attribute, bool) {
	a, ok := e.Attributes[name]
	return a, ok
}

// IdentityAttribute returns the attribute that identifies records.
func (e *EntityType) IdentityAttribute() *Attribute {
	return e.Attributes[e.Identity]
}

// ParentAttribute returns the entity's parent link, or nil for a root entity.
func (e *EntityType) ParentAttribute() *Attribute {
	for _, name := range e.AttributeNames() {
		if a := e.Attributes[name]; a.Kind == KindParent {
			return a
		}
	}
	return nil
}

// RestrictionAttribute returns the boolean restriction flag, if declared.
func (e *EntityType) RestrictionAttribute() *Attribute {
	a, ok := e.Attributes[RestrictionAttribute]
	if !ok || a.Kind != KindBoolean {
		return nil
	}
	return a
}

// AttributeNames returns attribute names in sorted order.
func (e *EntityType) AttributeNames() []string {
	names := make([]string, 0, len(e.Attributes))
	for name := range e.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog is the full set of entity types for a project. It is never
// mutated after Load returns, so it can be shared between goroutines.
type Catalog struct {
	Project  string
	Entities map[string]*EntityType
}

// EntityType returns the named entity type.
func (c *Catalog) EntityType(name string) (*EntityType, error) {
	e, ok := c.Entities[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEntity, "%q", name)
	}
	return e, nil
}

// EntityNames returns entity names in sorted order.
func (c *Catalog) EntityNames() []string {
	names := make([]string, 0, len(c.Entities))
	for name := range c.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForeignKey returns the column holding the link for attribute a on owner.
// For forward links it is a column on owner's table; for reverse links it is
// a column on the linked entity's table.
func (c *Catalog) ForeignKey(owner *EntityType, a *Attribute) (string, error) {
	if !a.IsLink() {
		return "", errors.Newf("%s.%s is not a link", owner.Name, a.Name)
	}
	if !a.IsReverseLink() {
		return a.Column, nil
	}
	target, err := c.EntityType(a.LinkEntity)
	if err != nil {
		return "", err
	}
	back, ok := target.Attribute(a.LinkAttribute)
	if !ok {
		return "", errors.Newf("%s.%s: %s has no attribute %q", owner.Name, a.Name, target.Name, a.LinkAttribute)
	}
	return back.Column, nil
}

// Ancestors walks parent links upward from e, nearest first. Cycles in the
// parent graph stop the walk.
func (c *Catalog) Ancestors(e *EntityType) []*EntityType {
	var out []*EntityType
	seen := map[string]bool{e.Name: true}
	for cur := e; ; {
		p := cur.ParentAttribute()
		if p == nil {
			return out
		}
		next, ok := c.Entities[p.LinkEntity]
		if !ok || seen[next.Name] {
			return out
		}
		seen[next.Name] = true
		out = append(out, next)
		cur = next
	}
}
