package atomq

import "testing"

func TestHashKey_Deterministic(t *testing.T) {
	a := hashKey([]any{"users", 1})
	b := hashKey([]any{"users", 1})
	if a != b {
		t.Errorf("equal keys hashed differently: %q vs %q", a, b)
	}
}

func TestHashKey_DistinguishesKeys(t *testing.T) {
	cases := [][]any{
		{"users"},
		{"users", 1},
		{"users", 2},
		{"users", "1"},
		{"posts", 1},
		{"users", map[string]any{"page": 1}},
		{"users", map[string]any{"page": 2}},
	}

	seen := make(map[string][]any)
	for _, key := range cases {
		h := hashKey(key)
		if prev, ok := seen[h]; ok {
			t.Errorf("keys %v and %v collide on %q", prev, key, h)
		}
		seen[h] = key
	}
}

func TestHashKey_MapOrderIndependent(t *testing.T) {
	// Build the two maps in different insertion orders.
	m1 := map[string]any{}
	m1["a"] = 1
	m1["b"] = 2
	m1["c"] = 3

	m2 := map[string]any{}
	m2["c"] = 3
	m2["a"] = 1
	m2["b"] = 2

	if hashKey([]any{"q", m1}) != hashKey([]any{"q", m2}) {
		t.Error("logically equal maps hashed differently")
	}
}

func TestHashKey_NestedStructures(t *testing.T) {
	key := []any{
		"search",
		map[string]any{
			"filters": []any{"active", "verified"},
			"page":    map[string]any{"size": 20, "cursor": nil},
		},
	}
	a := hashKey(key)
	b := hashKey(key)
	if a != b {
		t.Errorf("nested key hashed differently: %q vs %q", a, b)
	}
}

func TestHashKey_NilAndEmpty(t *testing.T) {
	if hashKey(nil) != hashKey([]any{}) {
		t.Error("nil and empty key must hash equally")
	}
	if hashKey([]any{nil}) == hashKey([]any{}) {
		t.Error("a nil element is not the same as no element")
	}
}

func TestHashKey_StructElements(t *testing.T) {
	type filter struct {
		Status string
		Limit  int
	}
	a := hashKey([]any{"q", filter{Status: "open", Limit: 10}})
	b := hashKey([]any{"q", filter{Status: "open", Limit: 10}})
	c := hashKey([]any{"q", filter{Status: "closed", Limit: 10}})
	if a != b {
		t.Errorf("equal structs hashed differently")
	}
	if a == c {
		t.Errorf("different structs collide")
	}
}

func TestHashKey_UnmarshalableFallback(t *testing.T) {
	fn := func() {}
	a := hashKey([]any{"q", fn})
	if a == "" {
		t.Error("expected stable fallback identity for unmarshalable element")
	}
}
