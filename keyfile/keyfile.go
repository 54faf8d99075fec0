// Package keyfile parses KeePass key-files into the normalized 32-byte
// secret kdbx.WithKeyFileSecret expects: either the <Key><Data> element of
// an XML key-file, or, failing that, the raw file bytes treated as a
// key-file in the legacy (non-XML) formats KeePass also accepts.
package keyfile

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"

	"github.com/packetops/openkeepass/internal/bytesutil"
)

// document mirrors the <KeyFile><Key><Data>...</Data></Key></KeyFile>
// shape KeePass writes. Only the one element this codec needs is modeled;
// the <Meta><Version> sibling element is read but discarded.
type document struct {
	XMLName xml.Name `xml:"KeyFile"`
	Key     struct {
		Data string `xml:"Data"`
	} `xml:"Key"`
}

// keyFileError classifies a failure in this package. It is returned to
// callers as-is; this package attaches no kdbx Kind to it.
type keyFileError string

func (e keyFileError) Error() string { return string(e) }

// Parse turns raw key-file bytes into the normalized 32-byte secret. It
// tries, in order: the XML key-file format (base64 payload), then the
// legacy hex-encoded 32-byte format, then treats the file as a raw binary
// key whose bytes contribute directly (hashed down to 32 bytes if its
// length isn't already exactly 32). The hash-if-not-32-bytes rule is
// applied uniformly here with no way to opt out: a raw key file of any
// other length is hashed, never zero-padded or truncated.
func Parse(data []byte) ([]byte, error) {
	if secret, ok := tryXML(data); ok {
		return normalize(secret), nil
	}
	if secret, ok := tryHex(data); ok {
		return normalize(secret), nil
	}
	if len(data) == 0 {
		return nil, keyFileError("empty key file")
	}
	return normalize(data), nil
}

func tryXML(data []byte) ([]byte, bool) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.Key.Data == "" {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(doc.Key.Data)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// tryHex recognizes the legacy key-file format: the whole file is exactly
// 64 hex characters (optionally trailing a newline) encoding a 32-byte key.
func tryHex(data []byte) ([]byte, bool) {
	trimmed := trimTrailingNewline(data)
	if len(trimmed) != 64 {
		return nil, false
	}
	decoded, err := hex.DecodeString(string(trimmed))
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func trimTrailingNewline(data []byte) []byte {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	return data
}

func normalize(secret []byte) []byte {
	if len(secret) == 32 {
		return append([]byte{}, secret...)
	}
	return bytesutil.Sum256(secret)
}
