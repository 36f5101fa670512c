package query

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// VerbPrefix marks a token as a verb rather than an attribute name.
const VerbPrefix = "::"

func isVerb(tok any) bool {
	s, ok := tok.(string)
	return ok && strings.HasPrefix(s, VerbPrefix)
}

// ParseTokens decodes a JSON token stream. Numbers decode as float64.
func ParseTokens(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var tokens []any
	if err := dec.Decode(&tokens); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "query must be a JSON array"), ErrInvalidArgument)
	}
	if dec.More() {
		return nil, argumentErrorf("unexpected data after query array")
	}
	return tokens, nil
}

// cursor walks a token slice. It is the only mutable state while a
// predicate chain is being dispatched.
type cursor struct {
	tokens []any
	pos    int
}

func newCursor(tokens []any) *cursor {
	return &cursor{tokens: tokens}
}

func (c *cursor) done() bool {
	return c.pos >= len(c.tokens)
}

func (c *cursor) remaining() int {
	return len(c.tokens) - c.pos
}

func (c *cursor) peek() (any, bool) {
	if c.done() {
		return nil, false
	}
	return c.tokens[c.pos], true
}

func (c *cursor) next() (any, bool) {
	tok, ok := c.peek()
	if ok {
		c.pos++
	}
	return tok, ok
}

// peekArray returns the next token if it is a nested array.
func (c *cursor) peekArray() ([]any, bool) {
	tok, ok := c.peek()
	if !ok {
		return nil, false
	}
	arr, ok := tok.([]any)
	return arr, ok
}

// rest returns the unconsumed tokens.
func (c *cursor) rest() []any {
	if c.done() {
		return nil
	}
	return c.tokens[c.pos:]
}

// expectDone fails with a trailing arguments error if tokens remain.
func (c *cursor) expectDone() error {
	if c.done() {
		return nil
	}
	return argumentErrorf("trailing arguments %s", describe(c.rest()))
}
