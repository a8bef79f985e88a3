// Package query builds restrictions over typed paths and assembles them into SQL.
package query

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/criteria/internal/orm/path"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// Operator represents a comparison operator
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpIn
	OpNotIn
	OpLike
	OpIsNull
	OpIsNotNull
	OpBetween
)

// String returns the SQL form of the operator
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	case OpLike:
		return "LIKE"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpBetween:
		return "BETWEEN"
	default:
		return "UNKNOWN"
	}
}

// ParseOperator converts the textual form of an operator
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "=", "==":
		return OpEqual, nil
	case "!=", "<>":
		return OpNotEqual, nil
	case ">":
		return OpGreaterThan, nil
	case ">=":
		return OpGreaterThanOrEqual, nil
	case "<":
		return OpLessThan, nil
	case "<=":
		return OpLessThanOrEqual, nil
	case "IN":
		return OpIn, nil
	case "NOT IN":
		return OpNotIn, nil
	case "LIKE":
		return OpLike, nil
	case "IS NULL":
		return OpIsNull, nil
	case "IS NOT NULL":
		return OpIsNotNull, nil
	case "BETWEEN":
		return OpBetween, nil
	default:
		return OpEqual, fmt.Errorf("unknown operator: %s", s)
	}
}

// Predicate is a restriction that renders to a SQL boolean expression.
//
// The set of predicates is closed; Criteria renders each variant.
type Predicate interface {
	predicate()
}

// Constant is a predicate whose value is known without reading any row
type Constant struct {
	Value bool
}

// DiscriminatorEquals compares the discriminator column reached by Path
type DiscriminatorEquals struct {
	Path    *path.Node
	Column  string
	Value   string
	Literal *schema.EntityType
}

// JoinedTypeEquals tests which subtype tables hold a row for the instance reached by Path
type JoinedTypeEquals struct {
	Path    *path.Node
	Root    *schema.EntityType
	Literal *schema.EntityType
}

// Comparison compares the column reached by Path with a value
type Comparison struct {
	Path     *path.Node
	Operator Operator
	Value    any
}

// Junction combines predicates with AND, or OR when Or is set
type Junction struct {
	Or         bool
	Predicates []Predicate
}

// Negation inverts a predicate
type Negation struct {
	Predicate Predicate
}

func (Constant) predicate()             {}
func (*DiscriminatorEquals) predicate() {}
func (*JoinedTypeEquals) predicate()    {}
func (*Comparison) predicate()          {}
func (*Junction) predicate()            {}
func (*Negation) predicate()            {}

// Compare restricts the value at node. The node must end at a basic attribute or an
// entity, whose identifier is compared; this is checked when the query is rendered.
func Compare(node *path.Node, op Operator, value any) Predicate {
	return &Comparison{Path: node, Operator: op, Value: value}
}

// Eq is shorthand for Compare(node, OpEqual, value)
func Eq(node *path.Node, value any) Predicate {
	return Compare(node, OpEqual, value)
}

// IsNull matches rows where node has no value
func IsNull(node *path.Node) Predicate {
	return Compare(node, OpIsNull, nil)
}

// And matches rows satisfying every predicate. And() is always true.
func And(preds ...Predicate) Predicate {
	return &Junction{Predicates: preds}
}

// Or matches rows satisfying any predicate. Or() is always false.
func Or(preds ...Predicate) Predicate {
	return &Junction{Or: true, Predicates: preds}
}

// Not inverts p. Constants are folded.
func Not(p Predicate) Predicate {
	if c, ok := p.(Constant); ok {
		return Constant{Value: !c.Value}
	}
	return &Negation{Predicate: p}
}

// Condition is a comparison against a resolved column expression
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// conditionToSQL renders a condition, passing each value through bind to obtain its placeholder
func conditionToSQL(cond *Condition, bind func(any) string) (string, error) {
	switch cond.Operator {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual, OpLike:
		if cond.Value == nil {
			return "", fmt.Errorf("operator %s requires a value, use IS NULL to match missing values", cond.Operator)
		}
		return fmt.Sprintf("%s %s %s", cond.Field, cond.Operator, bind(cond.Value)), nil

	case OpIn, OpNotIn:
		values, ok := cond.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%s operator requires []any value", cond.Operator)
		}
		if len(values) == 0 {
			// IN () is never true, NOT IN () always
			if cond.Operator == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}

		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = bind(v)
		}
		return fmt.Sprintf("%s %s (%s)", cond.Field, cond.Operator, strings.Join(placeholders, ", ")), nil

	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", cond.Field, cond.Operator), nil

	case OpBetween:
		values, ok := cond.Value.([]any)
		if !ok || len(values) != 2 {
			return "", fmt.Errorf("BETWEEN operator requires [min, max] values")
		}
		low := bind(values[0])
		high := bind(values[1])
		return fmt.Sprintf("%s BETWEEN %s AND %s", cond.Field, low, high), nil

	default:
		return "", fmt.Errorf("unsupported operator: %v", cond.Operator)
	}
}

// ValidateOperator validates that an operator is compatible with a column type
func ValidateOperator(op Operator, typ schema.PrimitiveType) error {
	switch op {
	case OpLike:
		if typ != schema.TypeString && typ != schema.TypeText {
			return fmt.Errorf("operator %s only works with text fields", op)
		}
	case OpBetween:
		switch typ {
		case schema.TypeInt, schema.TypeBigInt, schema.TypeFloat, schema.TypeDecimal, schema.TypeTimestamp, schema.TypeDate:
		default:
			return fmt.Errorf("operator %s only works with numeric or date fields", op)
		}
	}
	return nil
}
