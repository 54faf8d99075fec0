// Package kdbxml is the reference KDBX v2 document model: the XML schema
// KeePass 2.x writes inside the encrypted, decompressed payload, and the
// kdbx.TreeCodec implementation that binds it to the core codec package.
package kdbxml

import "encoding/xml"

// Document is the root KeePassFile element.
type Document struct {
	XMLName xml.Name `xml:"KeePassFile"`
	Meta    Meta      `xml:"Meta"`
	Root    Root      `xml:"Root"`
}

// Meta holds database-wide settings: name, description, memory protection
// defaults, recycle bin location, and history retention limits.
type Meta struct {
	Generator              string        `xml:"Generator"`
	DatabaseName            string        `xml:"DatabaseName"`
	DatabaseDescription     string        `xml:"DatabaseDescription"`
	MemoryProtection        MemProtection `xml:"MemoryProtection"`
	RecycleBinEnabled       BoolWrapper   `xml:"RecycleBinEnabled"`
	RecycleBinUUID          UUID          `xml:"RecycleBinUUID"`
	HistoryMaxItems         int64         `xml:"HistoryMaxItems"`
	HistoryMaxSize          int64         `xml:"HistoryMaxSize"`
	CustomData              []CustomData  `xml:"CustomData>Item"`
}

// MemProtection records which standard fields the database author wants
// Salsa20-protected by default; individual Value elements still carry
// their own authoritative Protected attribute.
type MemProtection struct {
	ProtectTitle    BoolWrapper `xml:"ProtectTitle"`
	ProtectUserName BoolWrapper `xml:"ProtectUserName"`
	ProtectPassword BoolWrapper `xml:"ProtectPassword"`
	ProtectURL      BoolWrapper `xml:"ProtectURL"`
	ProtectNotes    BoolWrapper `xml:"ProtectNotes"`
}

// CustomData is a plugin-defined key/value pair attached to the database,
// a group, or an entry.
type CustomData struct {
	XMLName xml.Name `xml:"Item"`
	Key     string   `xml:"Key"`
	Value   string   `xml:"Value"`
}

// Root holds the database's group tree.
type Root struct {
	Groups []Group `xml:"Group"`
}

// Group is a named container for entries and nested sub-groups.
type Group struct {
	UUID       UUID    `xml:"UUID"`
	Name       string  `xml:"Name"`
	Notes      string  `xml:"Notes"`
	IconID     int64   `xml:"IconID"`
	IsExpanded BoolWrapper `xml:"IsExpanded"`
	Entries    []Entry `xml:"Entry,omitempty"`
	Groups     []Group `xml:"Group,omitempty"`
}

// Entry is one credential record: a UUID, an icon id, tags, a set of
// Key/Value fields, and whatever History snapshots it has accumulated.
// Timestamps and other Entry elements are not modeled; Unmarshal skips
// them, so they are not written back by Marshal.
type Entry struct {
	UUID      UUID      `xml:"UUID"`
	IconID    int64     `xml:"IconID"`
	Tags      string    `xml:"Tags"`
	Values    []Field   `xml:"String,omitempty"`
	Histories []History `xml:"History"`
}

// Get returns the field named key, or nil if the entry has none.
func (e *Entry) Get(key string) *Field {
	for i := range e.Values {
		if e.Values[i].Key == key {
			return &e.Values[i]
		}
	}
	return nil
}

// GetContent returns the current (post-unlock, if applicable) content of
// the field named key, or "" if it isn't present.
func (e *Entry) GetContent(key string) string {
	f := e.Get(key)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// History holds prior snapshots of an entry, oldest first, the way KeePass
// appends to it on every edit.
type History struct {
	Entries []Entry `xml:"Entry"`
}

// Field is one Key/Value pair inside an Entry or its history snapshots.
type Field struct {
	Key   string `xml:"Key"`
	Value Value  `xml:"Value"`
}

// NewDocument returns a Document with the minimal Meta/Root structure a
// fresh database needs.
func NewDocument() *Document {
	return &Document{
		Meta: Meta{
			Generator: "openkeepass",
			MemoryProtection: MemProtection{
				ProtectPassword: NewBoolWrapper(true),
			},
		},
	}
}

// NewGroup returns a Group with a fresh UUID.
func NewGroup(name string) Group {
	return Group{UUID: NewUUID(), Name: name}
}

// NewEntry returns an Entry with a fresh UUID and no fields.
func NewEntry() Entry {
	return Entry{UUID: NewUUID()}
}
