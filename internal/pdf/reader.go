package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/digitorus/pdf"
)

// ErrUnsupportedDocument is returned for documents that cannot be rewritten,
// such as encrypted files.
var ErrUnsupportedDocument = errors.New("unsupported document")

const maxDepth = 100

// decodableFilters are the stream filters whose decoded output is stored
// instead of the original encoding.
var decodableFilters = map[string]bool{
	"FlateDecode": true,
}

type objectID struct {
	id  uint32
	gen uint16
}

func ptrOf(v pdflib.Value) objectID {
	p := v.GetPtr()
	return objectID{id: uint32(p.GetID()), gen: uint16(p.GetGen())}
}

type pending struct {
	num uint32
	v   pdflib.Value
}

type loader struct {
	data    []byte
	numbers map[objectID]uint32
	queue   []pending
	objects []Object

	// The object being converted, for detecting references to itself.
	current pending
	repr    string
}

// Load parses data and resolves every object reachable from the trailer's
// Root and Info entries. Objects are renumbered breadth first: the catalog
// becomes object 1, the Info dictionary object 2 (an empty one is created
// when missing) and the rest follow in the order they are first referenced,
// visiting dictionary keys in sorted order.
func Load(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("failed to read document: %v", r)
		}
	}()

	rdr, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	trailer := rdr.Trailer()
	if !trailer.Key("Encrypt").IsNull() {
		return nil, fmt.Errorf("%w: encrypted documents are not supported", ErrUnsupportedDocument)
	}

	root := trailer.Key("Root")
	if root.Kind() != pdflib.Dict {
		return nil, fmt.Errorf("%w: missing document catalog", ErrUnsupportedDocument)
	}

	l := &loader{
		data:    data,
		numbers: make(map[objectID]uint32),
	}
	tp := ptrOf(trailer)

	l.reserve(root, tp)
	info := trailer.Key("Info")
	if info.Kind() == pdflib.Dict {
		l.reserve(info, tp)
	} else {
		l.objects = append(l.objects, NewDict(nil))
	}

	for len(l.queue) > 0 {
		next := l.queue[0]
		l.queue = l.queue[1:]

		l.current, l.repr = next, ""
		obj, err := l.direct(next.v, 0)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", next.num, err)
		}
		l.objects[next.num-1] = obj
	}

	if l.objects[InfoObject-1].Kind != Dict {
		return nil, fmt.Errorf("%w: info is a %s", ErrUnsupportedDocument, l.objects[InfoObject-1].Kind)
	}

	id := NewNull()
	if v := trailer.Key("ID"); v.Kind() == pdflib.Array {
		n := len(l.objects)
		l.current, l.repr = pending{}, ""
		if id, err = l.direct(v, 0); err != nil {
			return nil, fmt.Errorf("trailer ID: %w", err)
		}
		if len(l.objects) > n {
			// The ID may only hold direct strings.
			id = NewNull()
			l.objects = l.objects[:n]
			l.queue = nil
		}
	}

	doc = &Document{
		objects: l.objects,
		id:      id,
		pages:   numPage(rdr),
	}

	return doc, nil
}

func numPage(rdr *pdflib.Reader) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return rdr.NumPage()
}

// reserve assigns the next object number to v. Values stored directly in
// the trailer get a number of their own too.
func (l *loader) reserve(v pdflib.Value, trailer objectID) uint32 {
	p := ptrOf(v)
	if p != trailer {
		if num, ok := l.numbers[p]; ok {
			return num
		}
	}

	l.objects = append(l.objects, Object{})
	num := uint32(len(l.objects))
	if p != trailer {
		l.numbers[p] = num
	}
	l.queue = append(l.queue, pending{num: num, v: v})
	return num
}

// value converts a value found inside the container identified by parent.
// A value carrying a different object pointer was reached through an
// indirect reference.
func (l *loader) value(v pdflib.Value, parent objectID, depth int) (Object, error) {
	if v.Kind() == pdflib.Null {
		return NewNull(), nil
	}
	p := ptrOf(v)
	if p != parent && p.id != 0 {
		return NewReference(l.reserve(v, objectID{})), nil
	}
	if l.isCurrent(v, p) {
		return NewReference(l.current.num), nil
	}
	return l.direct(v, depth)
}

// isCurrent reports whether v is a reference back to the object being
// converted. Such a reference resolves to a value with the same pointer as
// its container; a direct value is always strictly smaller than the object
// holding it, so only a reference can print exactly like the whole object.
func (l *loader) isCurrent(v pdflib.Value, p objectID) bool {
	if l.current.num == 0 || p.id == 0 || p != ptrOf(l.current.v) {
		return false
	}
	switch v.Kind() {
	case pdflib.Array, pdflib.Dict, pdflib.Stream:
	default:
		return false
	}
	if l.repr == "" {
		l.repr = l.current.v.String()
	}
	return v.String() == l.repr
}

func (l *loader) direct(v pdflib.Value, depth int) (Object, error) {
	if depth > maxDepth {
		return Object{}, errors.New("objects nested too deeply")
	}
	self := ptrOf(v)

	switch v.Kind() {
	case pdflib.Null:
		return NewNull(), nil
	case pdflib.Bool:
		return NewBool(v.Bool()), nil
	case pdflib.Integer:
		return NewInteger(v.Int64()), nil
	case pdflib.Real:
		return NewReal(v.Float64()), nil
	case pdflib.String:
		return NewString(v.RawString()), nil
	case pdflib.Name:
		return NewName(v.Name()), nil
	case pdflib.Array:
		arr := make([]Object, v.Len())
		for i := range arr {
			obj, err := l.value(v.Index(i), self, depth+1)
			if err != nil {
				return Object{}, err
			}
			arr[i] = obj
		}
		return NewArray(arr...), nil
	case pdflib.Dict:
		dict, err := l.dict(v, self, depth, nil)
		if err != nil {
			return Object{}, err
		}
		return NewDict(dict), nil
	case pdflib.Stream:
		return l.stream(v, self, depth)
	}

	return Object{}, fmt.Errorf("unexpected value kind %d", v.Kind())
}

// dict converts the entries of v in sorted key order, leaving out null
// values and the keys in skip.
func (l *loader) dict(v pdflib.Value, self objectID, depth int, skip map[string]bool) (map[string]Object, error) {
	keys := append([]string(nil), v.Keys()...)
	sort.Strings(keys)

	dict := make(map[string]Object, len(keys))
	for _, k := range keys {
		if skip[k] {
			continue
		}
		obj, err := l.value(v.Key(k), self, depth+1)
		if err != nil {
			return nil, fmt.Errorf("/%s: %w", k, err)
		}
		if obj.Kind == Null {
			continue
		}
		dict[k] = obj
	}
	return dict, nil
}

func (l *loader) stream(v pdflib.Value, self objectID, depth int) (Object, error) {
	skip := map[string]bool{"Length": true}

	data, ok := decodeStream(v)
	if ok {
		skip["Filter"] = true
		skip["DecodeParms"] = true
		skip["DL"] = true
	} else {
		raw, err := rawStream(l.data, v)
		if err != nil {
			return Object{}, err
		}
		data = raw
	}

	dict, err := l.dict(v, self, depth, skip)
	if err != nil {
		return Object{}, err
	}
	return NewStream(dict, data), nil
}

// decodeStream returns the decoded payload when every filter of the stream
// is decodable without predictors.
func decodeStream(v pdflib.Value) (data []byte, ok bool) {
	defer func() {
		if recover() != nil {
			data, ok = nil, false
		}
	}()

	if !decodable(v.Key("Filter"), v.Key("DecodeParms")) {
		return nil, false
	}

	rc := v.Reader()
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}

func decodable(filter, parms pdflib.Value) bool {
	switch filter.Kind() {
	case pdflib.Null:
		return true
	case pdflib.Name:
		return decodableFilters[filter.Name()] && noPredictor(parms)
	case pdflib.Array:
		for i := 0; i < filter.Len(); i++ {
			if !decodableFilters[filter.Index(i).Name()] {
				return false
			}
		}
		if parms.Kind() == pdflib.Array {
			for i := 0; i < parms.Len(); i++ {
				if !noPredictor(parms.Index(i)) {
					return false
				}
			}
			return true
		}
		return noPredictor(parms)
	}
	return false
}

func noPredictor(parms pdflib.Value) bool {
	if parms.Kind() != pdflib.Dict {
		return true
	}
	return parms.Key("Predictor").Int64() <= 1
}

// rawStream returns the undecoded payload of stream v. The payload offset
// is the one the parser found through the cross-reference data; it is only
// exposed as the "@offset" suffix of the stream's textual form.
func rawStream(data []byte, v pdflib.Value) ([]byte, error) {
	repr := v.String()
	at := strings.LastIndexByte(repr, '@')
	if at < 0 {
		return nil, fmt.Errorf("stream object %d: payload offset unknown", ptrOf(v).id)
	}
	offset, err := strconv.ParseInt(repr[at+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stream object %d: payload offset unknown: %w", ptrOf(v).id, err)
	}

	length := v.Key("Length").Int64()
	if offset < 0 || length < 0 || offset+length > int64(len(data)) {
		return nil, fmt.Errorf("stream object %d: %d bytes at %d out of range", ptrOf(v).id, length, offset)
	}

	raw := make([]byte, length)
	copy(raw, data[offset:offset+length])
	return raw, nil
}
