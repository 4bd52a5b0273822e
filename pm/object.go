package pm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Object is a loosely typed XML document: attributes and child elements share
// one map, repeated children become []any, text-only elements become strings.
type Object map[string]any

const textKey = "#text"

// Parse converts an XML document into an Object keyed by its root element name.
func Parse(data []byte) (Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("no root element")}
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		if start, ok := tok.(xml.StartElement); ok {
			value, err := parseElement(dec, start)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			return Object{start.Name.Local: value}, nil
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	obj := Object{}
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		obj[attr.Name.Local] = attr.Value
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			obj.add(t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			s := strings.TrimSpace(text.String())
			if len(obj) == 0 {
				return s, nil
			}
			if s != "" {
				obj[textKey] = s
			}
			return obj, nil
		}
	}
}

func (o Object) add(name string, value any) {
	existing, ok := o[name]
	if !ok {
		o[name] = value
		return
	}
	// element values are never slices, so a slice here means repeated children
	if list, isList := existing.([]any); isList {
		o[name] = append(list, value)
		return
	}
	o[name] = []any{existing, value}
}

// Arrayify normalizes a one-or-many value: nil gives an empty slice, a slice is
// returned unchanged, anything else is wrapped.
func Arrayify(x any) []any {
	switch v := x.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []Object:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return list
	default:
		return []any{x}
	}
}

// Get walks nested objects by key. Missing keys yield nil.
func (o Object) Get(path ...string) any {
	var current any = o
	for _, key := range path {
		obj, ok := asObject(current)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

// String returns the text at path, or "" if it is missing or not text.
func (o Object) String(path ...string) string {
	switch v := o.Get(path...).(type) {
	case string:
		return v
	case Object:
		if s, ok := v[textKey].(string); ok {
			return s
		}
	case map[string]any:
		if s, ok := v[textKey].(string); ok {
			return s
		}
	}
	return ""
}

// List returns the normalized list of objects at path.
func (o Object) List(path ...string) []Object {
	var list []Object
	for _, item := range Arrayify(o.Get(path...)) {
		if obj, ok := asObject(item); ok {
			list = append(list, obj)
		}
	}
	return list
}

func asObject(v any) (Object, bool) {
	switch obj := v.(type) {
	case Object:
		return obj, true
	case map[string]any:
		return obj, true
	}
	return nil, false
}

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pm: malformed xml response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
