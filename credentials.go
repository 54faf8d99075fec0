package kdbx

import "github.com/packetops/openkeepass/internal/bytesutil"

// Credentials is the composite-key input to the master-key derivation: a
// password, a key-file's normalized 32-byte secret, or both. At least one
// must be present.
type Credentials struct {
	password []byte
	keyFile  []byte
}

// WithPassword sets the password component of the composite key. password
// is hashed with SHA-256 before it contributes to the composite; the raw
// bytes are never retained past this call.
func WithPassword(password []byte) CredentialOption {
	return func(c *Credentials) {
		if len(password) == 0 {
			return
		}
		c.password = bytesutil.Sum256(password)
	}
}

// WithKeyFileSecret sets the key-file component of the composite key.
// secret must already be the normalized 32-byte value a keyfile package
// produces; this function performs no further hashing.
func WithKeyFileSecret(secret []byte) CredentialOption {
	return func(c *Credentials) {
		if len(secret) == 0 {
			return
		}
		c.keyFile = append([]byte{}, secret...)
	}
}

// CredentialOption configures a Credentials value built by NewCredentials.
type CredentialOption func(*Credentials)

// NewCredentials assembles the composite key from the supplied options. It
// returns InvalidArgument if neither a password nor a key-file secret ends
// up set.
func NewCredentials(opts ...CredentialOption) (*Credentials, error) {
	c := &Credentials{}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.password) == 0 && len(c.keyFile) == 0 {
		return nil, &Unreadable{Kind: InvalidArgument, Err: errNoCredentials}
	}
	return c, nil
}

var errNoCredentials = credentialsError("at least one of password or key-file must be supplied")

type credentialsError string

func (e credentialsError) Error() string { return string(e) }

// CompositeKey returns the SHA-256 of whichever components are set, in
// the order password-hash || key-file secret (a single component is hashed
// on its own), the input to the key transform.
func (c *Credentials) CompositeKey() []byte {
	switch {
	case len(c.password) > 0 && len(c.keyFile) > 0:
		return bytesutil.Sum256(c.password, c.keyFile)
	case len(c.keyFile) > 0:
		return bytesutil.Sum256(c.keyFile)
	default:
		return bytesutil.Sum256(c.password)
	}
}

// Zero destroys the retained password hash and key-file secret. Callers
// should defer this immediately after deriving whatever master key they
// needed from the credentials.
func (c *Credentials) Zero() {
	bytesutil.Zero(c.password)
	bytesutil.Zero(c.keyFile)
}
