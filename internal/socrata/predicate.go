package socrata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/propscope/propscope/internal/errors"
)

// fieldPattern matches valid SoQL column identifiers. Anything else is
// rejected at render time, before a request is built.
var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Predicate is one node of a $where expression tree. Conditions are composed
// with And/Or and rendered to SoQL in one pass at query time, so caller
// input reaches the wire only through validated fields and escaped literals.
type Predicate interface {
	render(sb *strings.Builder) error
}

// comparison is a binary operator applied to a column and a literal
type comparison struct {
	field string
	op    string
	value any
}

// call is a SoQL function applied to a column and a string literal
type call struct {
	fn    string
	field string
	arg   string
}

// group combines child predicates with AND or OR
type group struct {
	op       string
	children []Predicate
}

// Eq matches rows where field equals value. Strings are escaped; numbers
// render bare.
func Eq(field string, value any) Predicate {
	return &comparison{field: field, op: "=", value: value}
}

// Neq matches rows where field differs from value
func Neq(field string, value any) Predicate {
	return &comparison{field: field, op: "!=", value: value}
}

// Gt matches rows where field is greater than value
func Gt(field string, value any) Predicate {
	return &comparison{field: field, op: ">", value: value}
}

// Gte matches rows where field is greater than or equal to value
func Gte(field string, value any) Predicate {
	return &comparison{field: field, op: ">=", value: value}
}

// Lt matches rows where field is less than value
func Lt(field string, value any) Predicate {
	return &comparison{field: field, op: "<", value: value}
}

// StartsWith matches rows where the text column begins with prefix
func StartsWith(field, prefix string) Predicate {
	return &call{fn: "starts_with", field: field, arg: prefix}
}

// Contains matches rows where the text column contains needle
func Contains(field, needle string) Predicate {
	return &call{fn: "contains", field: field, arg: needle}
}

// And combines predicates so that all must hold
func And(preds ...Predicate) Predicate {
	return &group{op: "AND", children: preds}
}

// Or combines predicates so that at least one must hold
func Or(preds ...Predicate) Predicate {
	return &group{op: "OR", children: preds}
}

// Render produces the SoQL $where string for a predicate tree
func Render(p Predicate) (string, error) {
	if p == nil {
		return "", errors.Newf("cannot render nil predicate").
			Category(errors.CategoryValidation).
			Component("socrata").
			Build()
	}
	var sb strings.Builder
	if err := p.render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (c *comparison) render(sb *strings.Builder) error {
	if err := writeField(sb, c.field); err != nil {
		return err
	}
	sb.WriteByte(' ')
	sb.WriteString(c.op)
	sb.WriteByte(' ')
	return writeValue(sb, c.value)
}

func (c *call) render(sb *strings.Builder) error {
	sb.WriteString(c.fn)
	sb.WriteByte('(')
	if err := writeField(sb, c.field); err != nil {
		return err
	}
	sb.WriteString(", ")
	writeString(sb, c.arg)
	sb.WriteByte(')')
	return nil
}

func (g *group) render(sb *strings.Builder) error {
	switch len(g.children) {
	case 0:
		return errors.Newf("empty %s group", g.op).
			Category(errors.CategoryValidation).
			Component("socrata").
			Build()
	case 1:
		return g.children[0].render(sb)
	}
	sb.WriteByte('(')
	for i, child := range g.children {
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(g.op)
			sb.WriteByte(' ')
		}
		if child == nil {
			return errors.Newf("nil predicate in %s group", g.op).
				Category(errors.CategoryValidation).
				Component("socrata").
				Build()
		}
		if err := child.render(sb); err != nil {
			return err
		}
	}
	sb.WriteByte(')')
	return nil
}

func writeField(sb *strings.Builder, field string) error {
	if !fieldPattern.MatchString(field) {
		return errors.Newf("invalid SoQL field name: %q", field).
			Category(errors.CategoryValidation).
			Context("field", field).
			Component("socrata").
			Build()
	}
	sb.WriteString(field)
	return nil
}

func writeValue(sb *strings.Builder, value any) error {
	switch v := value.(type) {
	case string:
		writeString(sb, v)
	case int:
		sb.WriteString(strconv.Itoa(v))
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	default:
		return errors.Newf("unsupported predicate literal type %T", value).
			Category(errors.CategoryValidation).
			Component("socrata").
			Build()
	}
	return nil
}

// writeString writes a single-quoted SoQL string literal, doubling any
// embedded quotes
func writeString(sb *strings.Builder, s string) {
	sb.WriteByte('\'')
	sb.WriteString(strings.ReplaceAll(s, "'", "''"))
	sb.WriteByte('\'')
}
