package query

import (
	"github.com/aidanlsb/quarry/internal/format"
)

// PredicateKind is the closed set of predicate families.
type PredicateKind int

const (
	PredicateModel PredicateKind = iota
	PredicateRecord
	PredicateVector
	PredicateString
	PredicateNumber
	PredicateDateTime
	PredicateBoolean
	PredicateFile
	PredicateFileCollection
	PredicateMatch
	PredicateMatrix
)

var predicateKindNames = [...]string{
	PredicateModel:          "model",
	PredicateRecord:         "record",
	PredicateVector:         "vector",
	PredicateString:         "string",
	PredicateNumber:         "number",
	PredicateDateTime:       "date_time",
	PredicateBoolean:        "boolean",
	PredicateFile:           "file",
	PredicateFileCollection: "file_collection",
	PredicateMatch:          "match",
	PredicateMatrix:         "matrix",
}

func (k PredicateKind) String() string {
	if int(k) < len(predicateKindNames) {
		return predicateKindNames[k]
	}
	return "unknown"
}

// Predicate is one resolved step of a query. Every predicate except a
// terminal or a vector has exactly one child.
type Predicate interface {
	Kind() PredicateKind
	// Child returns the next predicate in the chain, or nil at a terminal
	// or a vector.
	Child() Predicate
	// Format describes the shape of the value extract produces.
	Format() format.Format

	children() []Predicate
	contribution() contribution
	extract(q *Question, rs *resultSet, rows []int) (any, error)
}

// mode says whether a chain is built for output or inside a filter. Filter
// chains select nothing; their terminal supplies a boolean expression.
type mode int

const (
	modeOutput mode = iota
	modeFilter
)

// scope is the record a chain is currently positioned on.
type scope struct {
	entity   string
	alias    string
	identity string // label of the selected identity column, "" in filters
}

// base carries the statement contribution shared by all predicate types.
type base struct {
	contrib contribution
}

func (b *base) contribution() contribution { return b.contrib }

func (b *base) addJoin(j Join)          { b.contrib.joins = append(b.contrib.joins, j) }
func (b *base) addConstraint(e ...Expr) { b.contrib.constraints = append(b.contrib.constraints, e...) }
func (b *base) addSelect(c Column)      { b.contrib.selects = append(b.contrib.selects, c) }
func (b *base) addOrder(e Expr)         { b.contrib.order = append(b.contrib.order, e) }

func single(p Predicate) []Predicate {
	if p == nil {
		return nil
	}
	return []Predicate{p}
}

// terminal returns the last predicate of a chain.
func terminal(p Predicate) Predicate {
	for p != nil {
		next := p.Child()
		if next == nil {
			return p
		}
		p = next
	}
	return nil
}
