package catalog

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ValidationIssue is a single problem found in a catalog.
type ValidationIssue struct {
	Entity    string
	Attribute string
	Message   string
}

func (i ValidationIssue) String() string {
	if i.Attribute == "" {
		return fmt.Sprintf("%s: %s", i.Entity, i.Message)
	}
	return fmt.Sprintf("%s.%s: %s", i.Entity, i.Attribute, i.Message)
}

// Check returns every consistency problem in the catalog.
func Check(c *Catalog) []ValidationIssue {
	var issues []ValidationIssue
	add := func(e, a, format string, args ...any) {
		issues = append(issues, ValidationIssue{Entity: e, Attribute: a, Message: fmt.Sprintf(format, args...)})
	}

	for _, name := range c.EntityNames() {
		e := c.Entities[name]

		id, ok := e.Attributes[e.Identity]
		if !ok {
			add(name, "", "identity attribute %q is not declared", e.Identity)
		} else if id.Kind != KindIdentifier {
			add(name, e.Identity, "identity attribute must be of kind identifier, got %s", id.Kind)
		}

		parents := 0
		for _, attrName := range e.AttributeNames() {
			a := e.Attributes[attrName]
			if a.Kind == KindIdentifier && attrName != e.Identity {
				add(name, attrName, "only the identity attribute may be of kind identifier")
			}
			if a.Kind == KindParent {
				parents++
			}
			if attrName == RestrictionAttribute && a.Kind != KindBoolean {
				add(name, attrName, "restriction flag must be boolean")
			}
			if a.Kind == KindMatrix && len(a.MatrixOptions()) == 0 {
				add(name, attrName, "matrix attribute needs validation options naming its columns")
			}
			if !a.IsLink() {
				continue
			}
			target, ok := c.Entities[a.LinkEntity]
			if !ok {
				add(name, attrName, "links to unknown entity %q", a.LinkEntity)
				continue
			}
			if !a.IsReverseLink() {
				continue
			}
			back, ok := target.Attributes[a.LinkAttribute]
			if !ok {
				add(name, attrName, "%s has no inverse attribute %q", target.Name, a.LinkAttribute)
				continue
			}
			if (back.Kind != KindParent && back.Kind != KindLink) || back.LinkEntity != name {
				add(name, attrName, "inverse attribute %s.%s must be a parent or link to %s", target.Name, back.Name, name)
			}
		}
		if parents > 1 {
			add(name, "", "declares %d parent attributes, at most one allowed", parents)
		}
	}
	return issues
}

// ValidationError reports every issue Check found in a catalog.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return "invalid catalog:\n  " + strings.Join(msgs, "\n  ")
}

// Validate returns a *ValidationError when Check finds any issue.
func Validate(c *Catalog) error {
	issues := Check(c)
	if len(issues) == 0 {
		return nil
	}
	return errors.WithStack(&ValidationError{Issues: issues})
}
