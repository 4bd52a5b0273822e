package pm

import (
	"encoding/xml"
	"errors"
	"reflect"
	"strconv"
	"strings"
)

var ErrNotObject = errors.New("pm: xml input must be a non-null object")

// Element is a free-form XML node for payloads whose element names are only
// known at runtime, such as property use fragments.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Element
}

func NewElement(name string) *Element {
	return &Element{Name: name}
}

// TextElement builds <name>text</name>.
func TextElement(name, text string) *Element {
	return &Element{Name: name, Text: text}
}

func (e *Element) Attr(name, value string) *Element {
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return e
}

func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Child returns the first direct child with the given name.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (e Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}, Attr: e.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, child := range e.Children {
		if err := enc.Encode(child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// GetXMLString serializes a payload struct or Element tree into an XML document.
func GetXMLString(v any) (string, error) {
	if v == nil {
		return "", ErrNotObject
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", ErrNotObject
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", ErrNotObject
	}
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(data), nil
}

// Decimal is a number written in plain notation, never with an exponent.
type Decimal float64

func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(d), 'f', -1, 64)), nil
}

func (d *Decimal) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

func DecimalPtr(f *float64) *Decimal {
	if f == nil {
		return nil
	}
	d := Decimal(*f)
	return &d
}

func (d *Decimal) Float() *float64 {
	if d == nil {
		return nil
	}
	f := float64(*d)
	return &f
}
