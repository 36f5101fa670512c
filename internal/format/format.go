// Package format describes the shape of a query answer and flattens answers
// into columns for tabular export.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format mirrors the nesting of an answer. It is one of Leaf, Branch or
// Vector.
type Format interface {
	isFormat()
}

// Leaf names a single value, as "entity::attribute".
type Leaf string

// Branch describes a list of [identifier, value] pairs.
type Branch struct {
	Key   Leaf
	Value Format
}

// Vector describes a fixed-length list of parallel values.
type Vector []Format

func (Leaf) isFormat()   {}
func (Branch) isFormat() {}
func (Vector) isFormat() {}

// MarshalJSON encodes a branch as [key, value].
func (b Branch) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{b.Key, b.Value})
}

// MarshalJSON encodes an empty vector as [] rather than null.
func (v Vector) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Format(v))
}

// Segment is one step of a Path. Each marks a branching list: the step
// applies the rest of the path to every [identifier, value] element.
type Segment struct {
	Index int
	Each  bool
}

// Path locates a leaf inside an answer element.
type Path []Segment

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		if s.Each {
			parts[i] = fmt.Sprintf("*%d", s.Index)
		} else {
			parts[i] = fmt.Sprintf("%d", s.Index)
		}
	}
	return strings.Join(parts, ".")
}

// Column is one flat output column: its header and where to find it.
type Column struct {
	Header string
	Path   Path
}

// Columns returns the leaf columns of one value described by f, in order.
func Columns(f Format) []Column {
	return appendColumns(nil, f, nil)
}

func appendColumns(out []Column, f Format, prefix Path) []Column {
	switch f := f.(type) {
	case Leaf:
		out = append(out, Column{Header: string(f), Path: clonePath(prefix)})
	case Vector:
		for i, child := range f {
			out = appendColumns(out, child, append(clonePath(prefix), Segment{Index: i}))
		}
	case Branch:
		out = append(out, Column{Header: string(f.Key), Path: append(clonePath(prefix), Segment{Index: 0, Each: true})})
		out = appendColumns(out, f.Value, append(clonePath(prefix), Segment{Index: 1, Each: true}))
	}
	return out
}

func clonePath(p Path) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return out
}

// Locate follows path into v. A segment over a branching list collects the
// rest of the path from every element and flattens the results into one list.
func Locate(v any, path Path) any {
	if len(path) == 0 {
		return v
	}
	seg, rest := path[0], path[1:]
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	if !seg.Each {
		if seg.Index < 0 || seg.Index >= len(list) {
			return nil
		}
		return Locate(list[seg.Index], rest)
	}

	out := make([]any, 0, len(list))
	for _, elem := range list {
		pair, ok := elem.([]any)
		if !ok || seg.Index >= len(pair) {
			continue
		}
		found := Locate(pair[seg.Index], rest)
		if nested, ok := found.([]any); ok && eachAfter(rest) {
			out = append(out, nested...)
			continue
		}
		out = append(out, found)
	}
	return out
}

func eachAfter(p Path) bool {
	for _, s := range p {
		if s.Each {
			return true
		}
	}
	return false
}

// Table flattens an answer into headers and rows. When the answer is a
// branching list each element becomes a row; otherwise the whole answer is
// a single row.
func Table(f Format, answer any) ([]string, [][]any) {
	var rowFormat Format = f
	var elems []any
	if b, ok := f.(Branch); ok {
		rowFormat = Vector{b.Key, b.Value}
		list, _ := answer.([]any)
		elems = list
	} else {
		elems = []any{answer}
	}

	cols := Columns(rowFormat)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}

	rows := make([][]any, 0, len(elems))
	for _, elem := range elems {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = Locate(elem, c.Path)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// Cell renders a located value as text. Lists are joined with ", ".
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Cell(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
