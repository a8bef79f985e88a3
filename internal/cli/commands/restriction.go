package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/conduit-lang/criteria/internal/orm/path"
	"github.com/conduit-lang/criteria/internal/orm/query"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// parseRestriction parses "path operator [value]" into a comparison against c's root.
//
// Values of IN, NOT IN and BETWEEN are comma separated. Values are converted to the
// compared attribute's type; quotes around a value are stripped.
func parseRestriction(c *query.Criteria, expr string) (query.Predicate, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return nil, fmt.Errorf("restriction %q: expected \"path operator value\"", expr)
	}

	node, err := c.Path(fields[0])
	if err != nil {
		return nil, err
	}

	op, rest, err := splitOperator(fields[1:])
	if err != nil {
		return nil, fmt.Errorf("restriction %q: %w", expr, err)
	}
	raw := strings.Join(rest, " ")

	switch op {
	case query.OpIsNull, query.OpIsNotNull:
		if raw != "" {
			return nil, fmt.Errorf("restriction %q: %s takes no value", expr, op)
		}
		return query.Compare(node, op, nil), nil
	}

	if raw == "" {
		return nil, fmt.Errorf("restriction %q: %s requires a value", expr, op)
	}

	typ, err := comparedType(node)
	if err != nil {
		return nil, fmt.Errorf("restriction %q: %w", expr, err)
	}
	if err := query.ValidateOperator(op, typ); err != nil {
		return nil, fmt.Errorf("restriction %q: %w", expr, err)
	}

	switch op {
	case query.OpIn, query.OpNotIn, query.OpBetween:
		parts := strings.Split(raw, ",")
		values := make([]any, 0, len(parts))
		for _, part := range parts {
			v, err := convertValue(strings.TrimSpace(part), typ)
			if err != nil {
				return nil, fmt.Errorf("restriction %q: %w", expr, err)
			}
			values = append(values, v)
		}
		return query.Compare(node, op, values), nil
	default:
		v, err := convertValue(raw, typ)
		if err != nil {
			return nil, fmt.Errorf("restriction %q: %w", expr, err)
		}
		return query.Compare(node, op, v), nil
	}
}

// splitOperator takes the longest operator at the start of tokens
func splitOperator(tokens []string) (query.Operator, []string, error) {
	for n := min(3, len(tokens)); n > 0; n-- {
		if op, err := query.ParseOperator(strings.Join(tokens[:n], " ")); err == nil {
			return op, tokens[n:], nil
		}
	}
	return 0, nil, fmt.Errorf("unknown operator %q", tokens[0])
}

// comparedType is the value type a node's column holds; entity nodes compare by identifier
func comparedType(node *path.Node) (schema.PrimitiveType, error) {
	if node.IsTerminal() {
		return node.Attribute().Type, nil
	}

	bound := node.BoundType()
	if bound == nil || bound.IsEmbeddable() {
		return 0, fmt.Errorf("%s is not comparable", node)
	}
	for _, attr := range bound.HierarchyRoot().DeclaredAttributes() {
		if attr.Kind == schema.KindBasic && attr.Column == bound.IDColumn() {
			return attr.Type, nil
		}
	}
	return schema.TypeString, nil
}

func convertValue(raw string, typ schema.PrimitiveType) (any, error) {
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}

	switch typ {
	case schema.TypeInt, schema.TypeBigInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return v, nil
	case schema.TypeFloat, schema.TypeDecimal:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return v, nil
	case schema.TypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// parseOrder parses "path" or "path:desc"
func parseOrder(c *query.Criteria, expr string) error {
	dotted, direction, _ := strings.Cut(expr, ":")
	node, err := c.Path(dotted)
	if err != nil {
		return err
	}
	if direction != "" && !strings.EqualFold(direction, "asc") && !strings.EqualFold(direction, "desc") {
		return fmt.Errorf("order %q: direction must be asc or desc", expr)
	}
	c.OrderBy(node, direction)
	return nil
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
