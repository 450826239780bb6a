package collection

import (
	"encoding/json"
	"testing"
)

type item struct {
	Name string `json:"name"`
}

func TestSingleOrArrayDecodesSingleObject(t *testing.T) {
	var s SingleOrArray[item]
	if err := json.Unmarshal([]byte(`{"name":"A"}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(s) != 1 || s[0].Name != "A" {
		t.Fatalf("got %+v, want one item named A", s)
	}
}

func TestSingleOrArrayDecodesArray(t *testing.T) {
	var s SingleOrArray[item]
	if err := json.Unmarshal([]byte(`[{"name":"A"},{"name":"B"}]`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(s) != 2 || s[0].Name != "A" || s[1].Name != "B" {
		t.Fatalf("got %+v, want [A B]", s)
	}
}

func TestSingleOrArrayDecodesNull(t *testing.T) {
	var s SingleOrArray[item] = SingleOrArray[item]{{Name: "stale"}}
	if err := json.Unmarshal([]byte(`null`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s != nil {
		t.Fatalf("got %+v, want nil", s)
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"KLGA": 1, "KORD": 2, "KATL": 3}
	keys := SortedMapKeys(m)
	want := []string{"KATL", "KLGA", "KORD"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}
