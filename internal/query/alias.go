package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aidanlsb/quarry/internal/catalog"
)

// aliasRegistry hands out table aliases for one Question. Aliases are plain
// keys into a flat map, so revisiting an entity type (self links, repeated
// traversal) always yields a fresh alias and no object graph is built.
type aliasRegistry struct {
	next    int
	entries map[string]string // alias -> entity name
}

func newAliasRegistry() *aliasRegistry {
	return &aliasRegistry{entries: make(map[string]string)}
}

// introduce allocates a new alias for e. Aliases derive from the entity
// name, not its table, which may be schema-qualified.
func (r *aliasRegistry) introduce(e *catalog.EntityType) string {
	alias := fmt.Sprintf("%s_%d", catalog.TableName(e.Name), r.next)
	r.next++
	r.entries[alias] = e.Name
	return alias
}

// hashed returns a content-addressed alias: the same parts always map to
// the same alias within a Question.
func (r *aliasRegistry) hashed(prefix string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = []byte(fmt.Sprint(parts...))
	}
	sum := sha256.Sum256(data)
	alias := prefix + "_" + hex.EncodeToString(sum[:])[:12]
	r.entries[alias] = prefix
	return alias
}
