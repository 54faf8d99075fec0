package kdbxml

import (
	"encoding/xml"
	"strings"
	"time"
)

func parseBoolValue(val string) bool {
	switch strings.ToLower(val) {
	case "true", "yes", "1", "enabled", "checked":
		return true
	default:
		return false
	}
}

// BoolWrapper marshals a Go bool as the "True"/"False" tokens KDBX XML
// uses, both as element content and as an attribute value.
type BoolWrapper struct {
	Bool bool
}

// NewBoolWrapper wraps value for use as a struct field.
func NewBoolWrapper(value bool) BoolWrapper {
	return BoolWrapper{Bool: value}
}

func (b *BoolWrapper) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	val := "False"
	if b.Bool {
		val = "True"
	}
	return e.EncodeElement(val, start)
}

func (b *BoolWrapper) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var val string
	if err := d.DecodeElement(&val, &start); err != nil {
		return err
	}
	b.Bool = parseBoolValue(val)
	return nil
}

func (b *BoolWrapper) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	val := "False"
	if b.Bool {
		val = "True"
	}
	return xml.Attr{Name: name, Value: val}, nil
}

func (b *BoolWrapper) UnmarshalXMLAttr(attr xml.Attr) error {
	b.Bool = parseBoolValue(attr.Value)
	return nil
}

// TimeWrapper marshals time.Time as the RFC3339 text KDBX v2 uses for its
// Times element. (KDBX4's packed-integer timestamp format doesn't apply
// here; this codec only speaks the v2/v3.1 container format.)
type TimeWrapper struct {
	Time time.Time
}

// Now returns a TimeWrapper holding the current time in UTC.
func Now() TimeWrapper {
	return TimeWrapper{Time: time.Now().In(time.UTC)}
}

func (tw TimeWrapper) MarshalText() ([]byte, error) {
	return []byte(tw.Time.In(time.UTC).Format(time.RFC3339)), nil
}

func (tw *TimeWrapper) UnmarshalText(data []byte) error {
	t, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		return err
	}
	tw.Time = t
	return nil
}
