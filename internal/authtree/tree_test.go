package authtree

import (
	"bytes"
	"testing"
)

func TestMarshal_Deterministic(t *testing.T) {
	a := Map{"b": Int(1), "a": String("x"), "c": List{Int(2), Int(3)}}
	b := Map{"c": List{Int(2), Int(3)}, "a": String("x"), "b": Int(1)}

	ja, err := Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, err := Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(ja, jb) {
		t.Fatalf("serialization not stable: %s vs %s", ja, jb)
	}
	want := `{"a":"x","b":1,"c":[2,3]}`
	if string(ja) != want {
		t.Fatalf("got %s want %s", ja, want)
	}
}

func TestSetPath_BuildsIntermediates(t *testing.T) {
	m := SetPath(Map{}, "info.name", String("Bob"))
	v, ok := GetPath(m, "info.name")
	if !ok || v != String("Bob") {
		t.Fatalf("got %v %v", v, ok)
	}
}

func TestSetPath_NoAliasing(t *testing.T) {
	orig := Map{"info": Map{"name": String("Bob")}}
	_ = SetPath(orig, "info.name", String("Alice"))
	if v, _ := GetPath(orig, "info.name"); v != String("Bob") {
		t.Fatalf("original tree mutated: %v", v)
	}
}

func TestSetPath_ReplacesNonMapLevel(t *testing.T) {
	orig := Map{"info": String("scalar")}
	m := SetPath(orig, "info.name", String("Bob"))
	if v, ok := GetPath(m, "info.name"); !ok || v != String("Bob") {
		t.Fatalf("got %v %v", v, ok)
	}
}

func TestFlatten(t *testing.T) {
	m := Map{"a": Map{"b": Int(1), "c": List{Int(2), Int(3)}}}
	got := Flatten(m)
	want := []KV{
		{"a[b]", "1"},
		{"a[c][0]", "2"},
		{"a[c][1]", "3"},
	}
	if len(got) != len(want) {
		t.Fatalf("len %d want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kv[%d] = %v want %v", i, got[i], want[i])
		}
	}
}

func TestNormalize_Booleans(t *testing.T) {
	m := Map{"verified": Bool(true), "info": Map{"admin": Bool(false)}, "n": Int(7)}
	n := Normalize(m).(Map)
	if n["verified"] != Int(1) {
		t.Fatalf("verified = %v", n["verified"])
	}
	if n["info"].(Map)["admin"] != Int(0) {
		t.Fatalf("admin = %v", n["info"].(Map)["admin"])
	}
	if n["n"] != Int(7) {
		t.Fatalf("n = %v", n["n"])
	}
	// el árbol original no se toca
	if m["verified"] != Bool(true) {
		t.Fatalf("original mutated")
	}
}

func TestFromAny_ProviderProfile(t *testing.T) {
	n, err := FromAny(map[string]any{
		"id":       float64(123),
		"name":     "Bob",
		"verified": true,
		"langs":    []any{"es", "en"},
	})
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}
	m := n.(Map)
	if m["id"] != Float(123) || m["name"] != String("Bob") || m["verified"] != Bool(true) {
		t.Fatalf("bad tree: %v", m)
	}
	if len(m["langs"].(List)) != 2 {
		t.Fatalf("langs: %v", m["langs"])
	}
}

func TestFromAny_UnsupportedType(t *testing.T) {
	type opaque struct{ X int }
	if _, err := FromAny(opaque{1}); err == nil {
		t.Fatal("expected error for struct input")
	}
}

func TestMapProfile(t *testing.T) {
	profile := Map{
		"id":   Int(42),
		"name": String("Bob"),
		"urls": Map{"web": String("http://b")},
	}
	auth := MapProfile(profile, map[string]string{
		"uid":            "id",
		"info.name":      "name",
		"info.urls.site": "urls.web",
		"info.nope":      "does.not.exist",
		"raw":            "",
	})
	if v, _ := GetPath(auth, "uid"); v != Int(42) {
		t.Fatalf("uid: %v", v)
	}
	if v, _ := GetPath(auth, "info.urls.site"); v != String("http://b") {
		t.Fatalf("site: %v", v)
	}
	if _, ok := GetPath(auth, "info.nope"); ok {
		t.Fatal("missing source should be skipped")
	}
	if v, _ := GetPath(auth, "raw.name"); v != String("Bob") {
		t.Fatalf("raw: %v", v)
	}
}

func TestCanonical_RendersScalarLeaves(t *testing.T) {
	in := Map{
		"s": String("42"),
		"i": Int(42),
		"f": Float(1.5),
		"b": Bool(true),
		"n": Null{},
		"l": List{Int(7), String("x")},
	}
	got := Canonical(in).(Map)

	want := Map{
		"s": String("42"),
		"i": String("42"),
		"f": String("1.5"),
		"b": String("1"),
		"n": String(""),
		"l": List{String("7"), String("x")},
	}
	ja, _ := Marshal(got)
	jb, _ := Marshal(want)
	if string(ja) != string(jb) {
		t.Fatalf("canonical mismatch:\n%s\n%s", ja, jb)
	}
	// el árbol de entrada no se muta
	if in["i"] != Int(42) || in["b"] != Bool(true) {
		t.Fatal("input tree mutated")
	}
}
