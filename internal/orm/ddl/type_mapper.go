package ddl

import (
	"fmt"

	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// MapType converts a primitive attribute type to a column type understood by both
// PostgreSQL and SQLite
func MapType(typ schema.PrimitiveType) (string, error) {
	switch typ {
	case schema.TypeString:
		return "VARCHAR(255)", nil
	case schema.TypeText:
		return "TEXT", nil
	case schema.TypeInt:
		return "INTEGER", nil
	case schema.TypeBigInt:
		return "BIGINT", nil
	case schema.TypeFloat:
		return "DOUBLE PRECISION", nil
	case schema.TypeDecimal:
		return "NUMERIC", nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	case schema.TypeTimestamp:
		return "TIMESTAMP", nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeUUID:
		return "UUID", nil
	default:
		return "", fmt.Errorf("unsupported type: %s", typ)
	}
}

// MapNullability returns the nullability constraint for a column
func MapNullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}
