package kdbxml

import (
	"encoding/base64"
	"encoding/xml"
)

// Value is the content of a Field. When Protected is set, its wire
// representation is base64 text wrapping Salsa20-ciphered bytes; when
// it's clear, the wire representation is the literal text content.
//
// raw always holds "the current bytes", whatever stage of the pipeline
// they're at: ciphertext immediately after UnmarshalXML parses a
// protected field, plaintext after kdbx.UnlockProtectedFields has run
// over it, and back to ciphertext again after kdbx.LockProtectedFields
// runs before a Marshal. Value() and SetValue() (the kdbx.ProtectedField
// methods) simply read and replace raw; all the base64 handling happens
// at the XML boundary in MarshalXML/UnmarshalXML, never in those two
// methods, matching this codec's rule that ProtectedField deals in raw
// bytes only.
type Value struct {
	Protected bool
	raw       []byte
}

// String returns the field's current content as text. Call this only
// after UnlockProtectedFields for a protected field, or at any time for a
// clear one.
func (v *Value) String() string { return string(v.raw) }

// SetString sets the field's current content from text. For a protected
// field, call this before LockProtectedFields; set afterwards, the
// plaintext is what Marshal base64-encodes in place of ciphertext.
func (v *Value) SetString(s string) { v.raw = []byte(s) }

// Value returns the field's raw current bytes (kdbx.ProtectedField).
func (v *Value) Value() []byte { return v.raw }

// SetValue replaces the field's raw current bytes (kdbx.ProtectedField).
func (v *Value) SetValue(b []byte) { v.raw = append([]byte{}, b...) }

func (v *Value) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if v.Protected {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "Protected"}, Value: "True"})
		encoded := base64.StdEncoding.EncodeToString(v.raw)
		return e.EncodeElement(encoded, start)
	}
	return e.EncodeElement(string(v.raw), start)
}

func (v *Value) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Protected" {
			v.Protected = parseBoolValue(attr.Value)
		}
	}

	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}

	if v.Protected {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return err
		}
		v.raw = decoded
		return nil
	}

	v.raw = []byte(text)
	return nil
}
