package json

import (
	j "encoding/json"
	"testing"
)

type model struct {
	ID     string `json:"id,omitempty"`
	Pin    string `json:"pin"`
	Plain  string
	Hidden string `json:"-"`
}

func TestDecodeUnknown(t *testing.T) {
	raw := []byte(`{"id":"A","pin":"1","Plain":"p","Hidden":"h","links":[{"rel":"self"}]}`)
	u, err := DecodeUnknown(raw, model{})
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 2 {
		t.Fatalf("expect 2 unknown members, got %d: %v", len(u), u)
	}
	if string(u["links"]) != `[{"rel":"self"}]` {
		t.Errorf("unexpected links member %s", u["links"])
	}
	if _, ok := u["Hidden"]; !ok {
		t.Error("expect Hidden to be unknown since it is not mapped")
	}
	u, err = DecodeUnknown([]byte(`{"id":"A"}`), &model{})
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Errorf("expect nil, got %v", u)
	}
	if _, err = DecodeUnknown([]byte(`[1,2]`), model{}); err == nil {
		t.Error("expect error on non-object")
	}
}

func TestEncodeWithUnknown(t *testing.T) {
	u := Unknown{
		"links": j.RawMessage(`[]`),
		"id":    j.RawMessage(`"shadowed"`),
	}
	enc, err := EncodeWithUnknown(model{ID: "A", Pin: "1"}, u)
	if err != nil {
		t.Fatal(err)
	}
	expect := `{"Plain":"","id":"A","links":[],"pin":"1"}`
	if string(enc) != expect {
		t.Errorf("expect %s, got %s", expect, enc)
	}
	enc, err = EncodeWithUnknown(model{Pin: "1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(enc) != `{"pin":"1","Plain":""}` {
		t.Errorf("unexpected encoding %s", enc)
	}
}

func TestUnknownMerge(t *testing.T) {
	a := Unknown{"a": j.RawMessage(`1`), "b": j.RawMessage(`2`)}
	b := Unknown{"b": j.RawMessage(`3`)}
	m := a.Merge(b)
	if string(m["a"]) != "1" || string(m["b"]) != "3" {
		t.Errorf("unexpected merge result %v", m)
	}
	if string(a["b"]) != "2" {
		t.Error("expect receiver to stay untouched")
	}
	var empty Unknown
	if empty.Merge(nil) != nil {
		t.Error("expect nil merge of nil sets")
	}
	c := a.Clone()
	c["a"][0] = '9'
	if string(a["a"]) != "1" {
		t.Error("expect clone to copy raw values")
	}
}
