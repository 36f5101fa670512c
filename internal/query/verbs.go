package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aidanlsb/quarry/internal/dates"
	"github.com/aidanlsb/quarry/internal/sqlutil"
	"github.com/aidanlsb/quarry/internal/store"
)

// Verb tables. They are built once at package initialisation and never
// mutated; the empty verb is the behaviour when no verb token follows.

type listShape int

const (
	shapeFirst listShape = iota
	shapeAll
	shapeCount
	shapeDistinct
	shapeAny
	shapeEvery
)

type modelVerb struct {
	shape      listShape
	quantifier bool
}

var modelVerbs = map[string]modelVerb{
	"::first":    {shape: shapeFirst},
	"::all":      {shape: shapeAll},
	"::count":    {shape: shapeCount},
	"::distinct": {shape: shapeDistinct},
	"::any":      {shape: shapeAny, quantifier: true},
	"::every":    {shape: shapeEvery, quantifier: true},
}

type recordVerb struct {
	// present selects ::has (true) or ::lacks (false) for attribute tests.
	present   bool
	attribute bool
}

var recordVerbs = map[string]recordVerb{
	"::identifier": {},
	"::has":        {attribute: true, present: true},
	"::lacks":      {attribute: true},
}

type resultType int

const (
	resultValue    resultType = iota // terminal value
	resultBoolean                    // terminal boolean expression
	resultContinue                   // continues as another scalar family
)

type operandType int

const (
	operandString operandType = iota
	operandNumber
	operandDateTime
	operandStringList
	operandNumberList
)

func (t operandType) String() string {
	switch t {
	case operandString:
		return "a string"
	case operandNumber:
		return "a number"
	case operandDateTime:
		return "a date"
	case operandStringList:
		return "an array of strings"
	case operandNumberList:
		return "an array of numbers"
	}
	return "an operand"
}

// exprBuilder returns the boolean expression (resultBoolean), the selected
// expression (resultValue) or the continued subject (resultContinue).
type exprBuilder func(d store.Dialect, subject string, ops []any) Expr

type scalarVerb struct {
	operands []operandType
	result   resultType
	next     PredicateKind
	build    exprBuilder
}

var (
	bareValue = scalarVerb{result: resultValue, build: selectSubject}

	stringVerbs = map[string]scalarVerb{
		"":          bareValue,
		"::=":       comparison("=", operandString),
		"::!=":      comparison("<>", operandString),
		"::<":       comparison("<", operandString),
		"::<=":      comparison("<=", operandString),
		"::>":       comparison(">", operandString),
		"::>=":      comparison(">=", operandString),
		"::in":      membership(false, operandStringList),
		"::not":     membership(true, operandStringList),
		"::notin":   membership(true, operandStringList),
		"::matches": {operands: []operandType{operandString}, result: resultBoolean, build: matches},
	}

	numberVerbs = map[string]scalarVerb{
		"":      bareValue,
		"::=":   comparison("=", operandNumber),
		"::!=":  comparison("<>", operandNumber),
		"::<":   comparison("<", operandNumber),
		"::<=":  comparison("<=", operandNumber),
		"::>":   comparison(">", operandNumber),
		"::>=":  comparison(">=", operandNumber),
		"::in":  membership(false, operandNumberList),
		"::not": membership(true, operandNumberList),
	}

	dateTimeVerbs = map[string]scalarVerb{
		"":     bareValue,
		"::=":  comparison("=", operandDateTime),
		"::!=": comparison("<>", operandDateTime),
		"::<":  comparison("<", operandDateTime),
		"::<=": comparison("<=", operandDateTime),
		"::>":  comparison(">", operandDateTime),
		"::>=": comparison(">=", operandDateTime),
	}

	booleanVerbs = map[string]scalarVerb{
		"":         bareValue,
		"::true":   {result: resultBoolean, build: boolTest("%s = TRUE")},
		"::false":  {result: resultBoolean, build: boolTest("%s = FALSE")},
		"::untrue": {result: resultBoolean, build: boolTest("(%[1]s IS NULL OR %[1]s = FALSE)")},
	}

	fileVerbs = map[string]scalarVerb{
		"":           bareValue,
		"::filename": continuation(PredicateString, jsonKey("filename")),
	}

	fileCollectionVerbs = map[string]scalarVerb{
		"":        bareValue,
		"::count": continuation(PredicateNumber, jsonLength),
	}

	matchVerbs = map[string]scalarVerb{
		"":        bareValue,
		"::type":  continuation(PredicateString, jsonKey("type")),
		"::value": continuation(PredicateString, jsonKey("value")),
	}

	matrixVerbs = map[string]scalarVerb{
		"":        bareValue,
		"::slice": {operands: []operandType{operandStringList}, result: resultValue, build: selectSubject},
	}

	scalarVerbs = map[PredicateKind]map[string]scalarVerb{
		PredicateString:         stringVerbs,
		PredicateNumber:         numberVerbs,
		PredicateDateTime:       dateTimeVerbs,
		PredicateBoolean:        booleanVerbs,
		PredicateFile:           fileVerbs,
		PredicateFileCollection: fileCollectionVerbs,
		PredicateMatch:          matchVerbs,
		PredicateMatrix:         matrixVerbs,
	}
)

func selectSubject(_ store.Dialect, subject string, _ []any) Expr {
	return Expr{SQL: subject}
}

func comparison(op string, operand operandType) scalarVerb {
	return scalarVerb{
		operands: []operandType{operand},
		result:   resultBoolean,
		build: func(d store.Dialect, subject string, ops []any) Expr {
			return Expr{SQL: fmt.Sprintf("%s %s ?", subject, op), Args: []any{bindArg(d, ops[0])}}
		},
	}
}

func membership(negate bool, operand operandType) scalarVerb {
	return scalarVerb{
		operands: []operandType{operand},
		result:   resultBoolean,
		build: func(_ store.Dialect, subject string, ops []any) Expr {
			items, _ := ops[0].([]any)
			if negate && len(items) == 0 {
				return Expr{SQL: "1 = 1"}
			}
			ph, args := sqlutil.InClauseArgs(items)
			op := "IN"
			if negate {
				op = "NOT IN"
			}
			return Expr{SQL: fmt.Sprintf("%s %s (%s)", subject, op, ph), Args: args}
		},
	}
}

func matches(d store.Dialect, subject string, ops []any) Expr {
	return Expr{SQL: d.Regexp(subject), Args: []any{ops[0]}}
}

func boolTest(format string) exprBuilder {
	return func(_ store.Dialect, subject string, _ []any) Expr {
		return Expr{SQL: fmt.Sprintf(format, subject)}
	}
}

func continuation(next PredicateKind, build exprBuilder) scalarVerb {
	return scalarVerb{result: resultContinue, next: next, build: build}
}

func jsonKey(key string) exprBuilder {
	return func(d store.Dialect, subject string, _ []any) Expr {
		return Expr{SQL: d.JSONText(subject, key)}
	}
}

func jsonLength(d store.Dialect, subject string, _ []any) Expr {
	return Expr{SQL: d.JSONArrayLength(subject)}
}

func bindArg(d store.Dialect, v any) any {
	if t, ok := v.(time.Time); ok {
		return d.TimeArg(t)
	}
	return v
}

// verbNames lists the verbs of a table for error hints.
func verbNames[V any](table map[string]V) string {
	names := make([]string, 0, len(table))
	for name := range table {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// coerceOperand type-checks one operand token.
func coerceOperand(t operandType, tok any) (any, bool) {
	switch t {
	case operandString:
		s, ok := tok.(string)
		return s, ok
	case operandNumber:
		return toNumber(tok)
	case operandDateTime:
		s, ok := tok.(string)
		if !ok {
			return nil, false
		}
		d, err := dates.ParseOperand(s, time.Now())
		return d, err == nil
	case operandStringList, operandNumberList:
		list, ok := tok.([]any)
		if !ok {
			return nil, false
		}
		out := make([]any, len(list))
		for i, item := range list {
			elem := operandString
			if t == operandNumberList {
				elem = operandNumber
			}
			v, ok := coerceOperand(elem, item)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
	return nil, false
}

func toNumber(v any) (any, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}
	return nil, false
}
