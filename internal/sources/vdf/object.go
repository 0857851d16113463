// Package vdf decodes Valve's KeyValues formats: the text form used by app
// manifests and library folders, and the binary form used by shortcuts.vdf.
package vdf

import (
	"strconv"
	"strings"
)

// Kind is the type of a field value.
type Kind uint8

const (
	KindString Kind = iota
	KindObject
	KindInt32
	KindFloat32
	KindUint64
)

// Field is one key/value pair. Exactly one value member is meaningful,
// selected by Kind.
type Field struct {
	Key    string
	Kind   Kind
	Str    string
	Int    int64
	Uint   uint64
	Float  float64
	Object *Object
}

// Object is an ordered list of fields. Lookups are case-insensitive and
// return the first match, like Steam does.
type Object struct {
	Fields []Field
}

// Get returns the first field named key.
func (o *Object) Get(key string) (Field, bool) {
	if o == nil {
		return Field{}, false
	}
	for _, f := range o.Fields {
		if strings.EqualFold(f.Key, key) {
			return f, true
		}
	}
	return Field{}, false
}

// Child returns the nested object named key, or nil.
func (o *Object) Child(key string) *Object {
	f, ok := o.Get(key)
	if !ok || f.Kind != KindObject {
		return nil
	}
	return f.Object
}

// String returns the string form of a leaf value.
func (o *Object) String(key string) string {
	f, ok := o.Get(key)
	if !ok {
		return ""
	}
	switch f.Kind {
	case KindString:
		return f.Str
	case KindInt32:
		return strconv.FormatInt(f.Int, 10)
	case KindUint64:
		return strconv.FormatUint(f.Uint, 10)
	case KindFloat32:
		return strconv.FormatFloat(f.Float, 'f', -1, 32)
	}
	return ""
}

// Int returns an integer leaf, parsing text values when needed.
func (o *Object) Int(key string) (int64, bool) {
	f, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	switch f.Kind {
	case KindInt32:
		return f.Int, true
	case KindUint64:
		return int64(f.Uint), true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(f.Str), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func (o *Object) add(f Field) {
	o.Fields = append(o.Fields, f)
}
