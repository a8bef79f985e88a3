package schema

import "testing"

func TestToTableName(t *testing.T) {
	tests := map[string]string{
		"Post":              "posts",
		"Address":           "addresses",
		"Category":          "categories",
		"Box":               "boxes",
		"LineItem":          "line_items",
		"ThingWithQuantity": "thing_with_quantities",
		"HTTPServer":        "http_servers",
	}

	for input, want := range tests {
		if got := toTableName(input); got != want {
			t.Errorf("toTableName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParsers_RoundTripNames(t *testing.T) {
	for p := TypeString; p <= TypeUUID; p++ {
		parsed, err := ParsePrimitiveType(p.String())
		if err != nil || parsed != p {
			t.Errorf("ParsePrimitiveType(%q) = %v, %v", p.String(), parsed, err)
		}
	}

	for k := KindBasic; k <= KindToMany; k++ {
		parsed, err := ParseAttributeKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("ParseAttributeKind(%q) = %v, %v", k.String(), parsed, err)
		}
	}

	for s := StrategyNone; s <= StrategyJoined; s++ {
		parsed, err := ParseInheritanceStrategy(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseInheritanceStrategy(%q) = %v, %v", s.String(), parsed, err)
		}
	}

	if _, err := ParsePrimitiveType("money"); err == nil {
		t.Error("expected error for unknown primitive type")
	}
	if kind, _ := ParseAttributeKind("has_one"); kind != KindToOne {
		t.Errorf("has_one should parse as to_one, got %s", kind)
	}
}

func TestAttributeKind_IsNavigable(t *testing.T) {
	if KindBasic.IsNavigable() {
		t.Error("basic attributes are terminal")
	}
	for _, k := range []AttributeKind{KindEmbedded, KindToOne, KindToMany} {
		if !k.IsNavigable() {
			t.Errorf("%s should be navigable", k)
		}
	}
	if KindEmbedded.IsAssociation() || !KindToMany.IsAssociation() {
		t.Error("unexpected association classification")
	}
}
