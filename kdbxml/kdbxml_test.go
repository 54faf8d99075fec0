package kdbxml

import (
	"encoding/xml"
	"testing"
	"time"
)

func TestBoolWrapperRoundTrip(t *testing.T) {
	b := NewBoolWrapper(true)
	attr, err := b.MarshalXMLAttr(xml.Name{Local: "Test"})
	if err != nil {
		t.Fatalf("MarshalXMLAttr: %v", err)
	}
	if attr.Value != "True" {
		t.Fatalf("got %q, want True", attr.Value)
	}

	var decoded BoolWrapper
	if err := decoded.UnmarshalXMLAttr(attr); err != nil {
		t.Fatalf("UnmarshalXMLAttr: %v", err)
	}
	if !decoded.Bool {
		t.Fatal("expected true")
	}
}

func TestTimeWrapperRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tw := TimeWrapper{Time: now}

	text, err := tw.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded TimeWrapper
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if !decoded.Time.Equal(now) {
		t.Fatalf("got %v, want %v", decoded.Time, now)
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	id := NewUUID()
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded UUID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded != id {
		t.Fatal("UUID did not round trip")
	}
}

func TestUUIDsAreUnique(t *testing.T) {
	a := NewUUID()
	b := NewUUID()
	if a == b {
		t.Fatal("two calls to NewUUID produced the same id")
	}
}

func TestDocumentProtectedFieldsOrder(t *testing.T) {
	doc := NewDocument()
	group := NewGroup("root")

	entry := NewEntry()
	title := Field{Key: "Title", Value: Value{}}
	title.Value.SetString("my entry")
	password := Field{Key: "Password", Value: Value{Protected: true}}
	password.Value.SetString("ciphertext-1")
	entry.Values = []Field{title, password}

	history := NewEntry()
	oldPassword := Field{Key: "Password", Value: Value{Protected: true}}
	oldPassword.Value.SetString("ciphertext-0")
	history.Values = []Field{oldPassword}
	entry.Histories = []History{{Entries: []Entry{history}}}

	group.Entries = append(group.Entries, entry)
	doc.Root.Groups = append(doc.Root.Groups, group)

	fields := doc.ProtectedFields()
	if len(fields) != 2 {
		t.Fatalf("got %d protected fields, want 2", len(fields))
	}
	if string(fields[0].Value()) != "ciphertext-1" {
		t.Fatalf("expected current entry's password first, got %q", fields[0].Value())
	}
	if string(fields[1].Value()) != "ciphertext-0" {
		t.Fatalf("expected history entry's password second, got %q", fields[1].Value())
	}
}

func TestCodecMarshalUnmarshalRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.Meta.DatabaseName = "test db"
	group := NewGroup("root")
	entry := NewEntry()
	title := Field{Key: "Title"}
	title.Value.SetString("my entry")
	entry.Values = []Field{title}
	group.Entries = append(group.Entries, entry)
	doc.Root.Groups = append(doc.Root.Groups, group)

	codec := Codec{}
	data, err := codec.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	tree, err := codec.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, ok := tree.(*Document)
	if !ok {
		t.Fatalf("unexpected type %T", tree)
	}
	if got.Meta.DatabaseName != "test db" {
		t.Fatalf("DatabaseName = %q, want %q", got.Meta.DatabaseName, "test db")
	}
	if len(got.Root.Groups) != 1 || len(got.Root.Groups[0].Entries) != 1 {
		t.Fatal("group/entry structure did not round trip")
	}
	if got.Root.Groups[0].Entries[0].GetContent("Title") != "my entry" {
		t.Fatalf("Title = %q, want %q", got.Root.Groups[0].Entries[0].GetContent("Title"), "my entry")
	}
}

func TestCodecMarshalRejectsMissingRootGroup(t *testing.T) {
	doc := NewDocument()
	codec := Codec{}
	if _, err := codec.Marshal(doc); err == nil {
		t.Fatal("expected Marshal to reject a document with no root Group")
	}
}

func TestCodecMarshalRejectsUnpopulatedMeta(t *testing.T) {
	doc := &Document{}
	doc.Root.Groups = append(doc.Root.Groups, NewGroup("root"))
	codec := Codec{}
	if _, err := codec.Marshal(doc); err == nil {
		t.Fatal("expected Marshal to reject a document with an unpopulated Meta")
	}
}
