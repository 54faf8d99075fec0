package kdbxml

import (
	"bytes"
	"encoding/xml"
	"fmt"

	kdbx "github.com/packetops/openkeepass"
)

const xmlDeclaration = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>` + "\n"

// Codec implements kdbx.TreeCodec, binding the core package to the
// Document/Group/Entry/Value schema in this package.
type Codec struct{}

func (Codec) Unmarshal(data []byte) (kdbx.Tree, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (Codec) Marshal(tree kdbx.Tree) ([]byte, error) {
	doc, ok := tree.(*Document)
	if !ok || doc == nil {
		return nil, fmt.Errorf("kdbxml: Marshal expects non-nil *Document, got %T", tree)
	}
	if doc.Meta.Generator == "" {
		return nil, fmt.Errorf("kdbxml: Marshal requires a populated Meta (use NewDocument)")
	}
	if len(doc.Root.Groups) == 0 {
		return nil, fmt.Errorf("kdbxml: Marshal requires at least one root Group")
	}

	body, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)
	buf.Write(body)
	return buf.Bytes(), nil
}

// ProtectedFields walks the group tree depth-first and, within each group,
// every entry in order: first the entry's own fields, then each history
// snapshot's fields in chronological order, before descending into
// sub-groups. That fixed traversal order is what lets UnlockProtectedFields
// and LockProtectedFields recover the right keystream alignment on both
// read and write, since the Salsa20 cursor has no notion of "position" of
// its own — only call order.
func (d *Document) ProtectedFields() []kdbx.ProtectedField {
	var out []kdbx.ProtectedField

	var walkEntry func(e *Entry)
	walkEntry = func(e *Entry) {
		for i := range e.Values {
			if e.Values[i].Value.Protected {
				out = append(out, &e.Values[i].Value)
			}
		}
		for h := range e.Histories {
			for i := range e.Histories[h].Entries {
				walkEntry(&e.Histories[h].Entries[i])
			}
		}
	}

	var walkGroup func(g *Group)
	walkGroup = func(g *Group) {
		for i := range g.Entries {
			walkEntry(&g.Entries[i])
		}
		for i := range g.Groups {
			walkGroup(&g.Groups[i])
		}
	}

	for i := range d.Root.Groups {
		walkGroup(&d.Root.Groups[i])
	}

	return out
}
