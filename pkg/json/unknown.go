// Package json keeps the JSON members a model does not declare, so they survive a
// decode/encode round trip.
package json

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Unknown holds raw JSON object members keyed by their member name
type Unknown map[string]json.RawMessage

// Clone returns a copy of u. The raw values are copied as well.
func (u Unknown) Clone() Unknown {
	if u == nil {
		return nil
	}
	c := make(Unknown, len(u))
	for k, v := range u {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

// Merge overlays the members of other onto u and returns the result.
//
// u is not modified.
func (u Unknown) Merge(other Unknown) Unknown {
	if len(other) == 0 {
		return u.Clone()
	}
	m := u.Clone()
	if m == nil {
		m = make(Unknown, len(other))
	}
	for k, v := range other {
		m[k] = append(json.RawMessage(nil), v...)
	}
	return m
}

var fieldCache sync.Map

// declaredFields returns the JSON member names of the exported fields of struct type t
func declaredFields(t reflect.Type) map[string]struct{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := make(map[string]struct{})
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name := f.Name
			if tag != "" {
				if idx := strings.IndexByte(tag, ','); idx >= 0 {
					tag = tag[:idx]
				}
				if tag != "" {
					name = tag
				}
			}
			names[name] = struct{}{}
		}
	}
	fieldCache.Store(t, names)
	return names
}

// DecodeUnknown returns the members of the JSON object raw which are not declared
// as fields of model. model is only used for its type.
//
// It returns nil if every member is declared.
func DecodeUnknown(raw []byte, model interface{}) (Unknown, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	declared := declaredFields(reflect.TypeOf(model))
	var u Unknown
	for k, v := range all {
		if _, ok := declared[k]; ok {
			continue
		}
		if u == nil {
			u = make(Unknown)
		}
		u[k] = v
	}
	return u, nil
}

// EncodeWithUnknown encodes known and adds the members of unknown which are not
// already present in the encoded object.
func EncodeWithUnknown(known interface{}, unknown Unknown) ([]byte, error) {
	enc, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(unknown) == 0 {
		return enc, nil
	}
	var members map[string]json.RawMessage
	if err = json.Unmarshal(enc, &members); err != nil {
		return nil, err
	}
	if members == nil {
		members = make(map[string]json.RawMessage, len(unknown))
	}
	for k, v := range unknown {
		if _, ok := members[k]; ok {
			continue
		}
		members[k] = v
	}
	// map keys are sorted by encoding/json
	return json.Marshal(members)
}
