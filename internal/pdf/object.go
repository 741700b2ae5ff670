// Package pdf holds the in-memory object model used to rewrite documents
// into their canonical byte form. Documents are parsed with
// github.com/digitorus/pdf and serialized by WriteTo.
package pdf

import "sort"

// Kind identifies the type of an Object.
type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Real
	String
	Name
	Array
	Dict
	Stream
	Reference
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case String:
		return "string"
	case Name:
		return "name"
	case Array:
		return "array"
	case Dict:
		return "dict"
	case Stream:
		return "stream"
	case Reference:
		return "reference"
	}
	return "unknown"
}

// Object is a PDF value. Only the fields matching Kind are meaningful.
//
// A Stream uses Dict for its header (without /Length, which is computed on
// write) and Data for its payload.
type Object struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Real  float64
	Str   string // String bytes or Name without the leading solidus
	Array []Object
	Dict  map[string]Object
	Data  []byte
	Ref   uint32
}

func NewNull() Object              { return Object{Kind: Null} }
func NewBool(b bool) Object        { return Object{Kind: Bool, Bool: b} }
func NewInteger(i int64) Object    { return Object{Kind: Integer, Int: i} }
func NewReal(f float64) Object     { return Object{Kind: Real, Real: f} }
func NewString(s string) Object    { return Object{Kind: String, Str: s} }
func NewName(n string) Object      { return Object{Kind: Name, Str: n} }
func NewArray(a ...Object) Object  { return Object{Kind: Array, Array: a} }
func NewReference(n uint32) Object { return Object{Kind: Reference, Ref: n} }

func NewDict(d map[string]Object) Object {
	if d == nil {
		d = make(map[string]Object)
	}
	return Object{Kind: Dict, Dict: d}
}

func NewStream(d map[string]Object, data []byte) Object {
	if d == nil {
		d = make(map[string]Object)
	}
	return Object{Kind: Stream, Dict: d, Data: data}
}

// Key returns the dictionary entry for key, or a null object.
func (o Object) Key(key string) Object {
	if o.Dict == nil {
		return NewNull()
	}
	v, ok := o.Dict[key]
	if !ok {
		return NewNull()
	}
	return v
}

// Keys returns the dictionary keys in the order they are serialized.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o.Dict))
	for k := range o.Dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o Object) IsNull() bool {
	return o.Kind == Null
}
