package sqlbuilder

import (
	"fmt"
	"strings"
)

// Condition operators.
const (
	OpEq  = "="
	OpIn  = "IN"
	OpAny = "OR"
	OpAll = "AND"
)

// Condition is one filter predicate or a group of predicates.
// It is a sealed value type constructed via Eq, In, Any and All.
type Condition struct {
	op       string
	column   string
	value    any
	values   []any
	children []Condition
}

// Eq matches column = value. A nil value compiles to IS NULL.
func Eq(column string, value any) Condition {
	return Condition{op: OpEq, column: column, value: value}
}

// In matches column against a set of values. An empty set matches nothing.
func In(column string, values []any) Condition {
	return Condition{op: OpIn, column: column, values: values}
}

// Any groups conditions with OR. An empty group matches nothing.
func Any(conds ...Condition) Condition {
	return Condition{op: OpAny, children: conds}
}

// All groups conditions with AND. An empty group matches everything.
func All(conds ...Condition) Condition {
	return Condition{op: OpAll, children: conds}
}

func (c Condition) Op() string            { return c.op }
func (c Condition) Column() string        { return c.column }
func (c Condition) Value() any            { return c.value }
func (c Condition) Values() []any         { return c.values }
func (c Condition) Children() []Condition { return c.children }

// String renders the condition with values inlined, for logs and tests.
func (c Condition) String() string {
	switch c.op {
	case OpEq:
		if c.value == nil {
			return c.column + " IS NULL"
		}
		return fmt.Sprintf("%s = %s", c.column, literal(c.value))
	case OpIn:
		parts := make([]string, len(c.values))
		for i, v := range c.values {
			parts[i] = literal(v)
		}
		return fmt.Sprintf("%s IN (%s)", c.column, strings.Join(parts, ", "))
	case OpAny, OpAll:
		if len(c.children) == 1 {
			return c.children[0].String()
		}
		parts := make([]string, len(c.children))
		for i, child := range c.children {
			parts[i] = child.String()
		}
		return "(" + strings.Join(parts, " "+c.op+" ") + ")"
	}
	return ""
}

// compile renders the condition as SQL, appending bound values to args.
// Values are never interpolated.
func (c Condition) compile(d Dialect, args *[]any) string {
	switch c.op {
	case OpEq:
		if c.value == nil {
			return d.Quote(c.column) + " IS NULL"
		}
		*args = append(*args, c.value)
		return d.Quote(c.column) + " = " + d.Placeholder(len(*args))
	case OpIn:
		if len(c.values) == 0 {
			return "1 = 0"
		}
		ph := make([]string, len(c.values))
		for i, v := range c.values {
			*args = append(*args, v)
			ph[i] = d.Placeholder(len(*args))
		}
		return d.Quote(c.column) + " IN (" + strings.Join(ph, ", ") + ")"
	case OpAny, OpAll:
		if len(c.children) == 0 {
			if c.op == OpAny {
				return "1 = 0"
			}
			return "1 = 1"
		}
		if len(c.children) == 1 {
			return c.children[0].compile(d, args)
		}
		parts := make([]string, len(c.children))
		for i, child := range c.children {
			parts[i] = child.compile(d, args)
		}
		return "(" + strings.Join(parts, " "+c.op+" ") + ")"
	}
	return "1 = 1"
}
