package kdbxml

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	kdbx "github.com/packetops/openkeepass"
)

// buildTestDocument returns the Document fixture scenario 1 of the format's
// testable properties describes: one group "Test" holding one entry with a
// plaintext title/username and a protected password.
func buildTestDocument() *Document {
	doc := NewDocument()
	group := NewGroup("Test")

	entry := NewEntry()
	title := Field{Key: "Title"}
	title.Value.SetString("A")
	username := Field{Key: "UserName"}
	username.Value.SetString("u")
	password := Field{Key: "Password", Value: Value{Protected: true}}
	password.Value.SetString("p")
	entry.Values = []Field{title, username, password}

	group.Entries = append(group.Entries, entry)
	doc.Root.Groups = append(doc.Root.Groups, group)
	return doc
}

// TestFullRoundTripPasswordOnlyGZip is this module's end-to-end scenario
// test, grounded on the teacher's e2e_test.go in spirit (testify assertions
// over a full binary-in, binary-out run) rather than unit-level table cases.
func TestFullRoundTripPasswordOnlyGZip(t *testing.T) {
	doc := buildTestDocument()
	codec := kdbx.NewCodec(Codec{})

	var buf bytes.Buffer
	_, err := codec.Write(context.Background(), doc, "secret", &buf, kdbx.WithTransformRounds(6000))
	assert.NoError(t, err)

	header, err := codec.Header(buf.Bytes())
	assert.NoError(t, err)
	assert.EqualValues(t, 3, header.VersionMajor())
	assert.Equal(t, kdbx.CompressionGZip, header.Compression())
	assert.Equal(t, kdbx.InnerStreamSalsa20, header.InnerRandomStreamID())

	goodCreds, err := kdbx.NewCredentials(kdbx.WithPassword([]byte("secret")))
	assert.NoError(t, err)
	tree, _, err := codec.Open(context.Background(), buf.Bytes(), kdbx.WithCredentials(goodCreds))
	assert.NoError(t, err)

	got, ok := tree.(*Document)
	assert.True(t, ok, "unexpected tree type %T", tree)
	entry := got.Root.Groups[0].Entries[0]
	assert.Equal(t, "A", entry.GetContent("Title"))
	assert.Equal(t, "u", entry.GetContent("UserName"))
	assert.Equal(t, "p", entry.GetContent("Password"))

	wrongCreds, err := kdbx.NewCredentials(kdbx.WithPassword([]byte("wrong")))
	assert.NoError(t, err)
	_, _, err = codec.Open(context.Background(), buf.Bytes(), kdbx.WithCredentials(wrongCreds))
	assert.Error(t, err, "expected Open with the wrong password to fail")
}

func TestFullRoundTripPreservesHistory(t *testing.T) {
	doc := NewDocument()
	group := NewGroup("Test")
	entry := NewEntry()

	current := Field{Key: "Password", Value: Value{Protected: true}}
	current.Value.SetString("current-pw")
	entry.Values = []Field{current}

	historyPasswords := []string{"oldest-pw", "middle-pw", "newest-pw"}
	var snapshots []Entry
	for _, pw := range historyPasswords {
		histEntry := NewEntry()
		histField := Field{Key: "Password", Value: Value{Protected: true}}
		histField.Value.SetString(pw)
		histEntry.Values = []Field{histField}
		snapshots = append(snapshots, histEntry)
	}
	entry.Histories = []History{{Entries: snapshots}}

	group.Entries = append(group.Entries, entry)
	doc.Root.Groups = append(doc.Root.Groups, group)

	codec := kdbx.NewCodec(Codec{})
	var buf bytes.Buffer
	_, err := codec.Write(context.Background(), doc, "hunter2", &buf, kdbx.WithTransformRounds(500))
	assert.NoError(t, err)

	creds, err := kdbx.NewCredentials(kdbx.WithPassword([]byte("hunter2")))
	assert.NoError(t, err)
	tree, _, err := codec.Open(context.Background(), buf.Bytes(), kdbx.WithCredentials(creds))
	assert.NoError(t, err)

	got, ok := tree.(*Document)
	assert.True(t, ok, "unexpected tree type %T", tree)
	gotEntry := got.Root.Groups[0].Entries[0]

	assert.Equal(t, "current-pw", gotEntry.GetContent("Password"))
	if assert.Len(t, gotEntry.Histories, 1) && assert.Len(t, gotEntry.Histories[0].Entries, len(historyPasswords)) {
		for i, want := range historyPasswords {
			assert.Equal(t, want, gotEntry.Histories[0].Entries[i].GetContent("Password"), "history[%d]", i)
		}
	}
}
