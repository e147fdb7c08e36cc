// Package securemem keeps provider credentials in memguard-protected memory
// so they cannot be read from swap, core dumps, or a debugger.
package securemem

import (
	"github.com/awnumar/memguard"
)

const redacted = "[redacted]"

// Credential is an API key held in an encrypted enclave. The zero value and
// nil are both empty credentials.
type Credential struct {
	enclave *memguard.Enclave
	source  string
	size    int
}

// NewCredential seals value and records where it came from (for example the
// environment variable name). The plaintext argument is not retained.
func NewCredential(value, source string) *Credential {
	c := &Credential{source: source, size: len(value)}
	if value == "" {
		return c
	}
	data := []byte(value)
	c.enclave = memguard.NewEnclave(data)
	memguard.WipeBytes(data)
	return c
}

// Source names where the credential was read from.
func (c *Credential) Source() string {
	if c == nil {
		return ""
	}
	return c.source
}

// IsEmpty reports whether no secret is held.
func (c *Credential) IsEmpty() bool {
	return c == nil || c.enclave == nil || c.size == 0
}

// Reveal passes fn an ordinary Go string copied out of the enclave. The
// provider SDKs only accept string keys, so that copy lives on the heap
// and is not wiped; only the protected buffer is destroyed when fn
// returns. Use RevealBytes when the caller can work with the buffer.
func (c *Credential) Reveal(fn func(secret string) error) error {
	return c.RevealBytes(func(secret []byte) error {
		return fn(string(secret))
	})
}

// RevealBytes opens the enclave and passes the protected buffer to fn.
// The buffer is wiped and released when fn returns, so fn must not keep
// the slice.
func (c *Credential) RevealBytes(fn func(secret []byte) error) error {
	if c.IsEmpty() {
		return fn(nil)
	}
	buf, err := c.enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Destroy drops the enclave reference. The sealed bytes are purged by
// Cleanup at process exit.
func (c *Credential) Destroy() {
	if c == nil {
		return
	}
	c.enclave = nil
	c.size = 0
}

// String never prints the secret.
func (c *Credential) String() string {
	if c.IsEmpty() {
		return ""
	}
	return redacted
}

// GoString never prints the secret.
func (c *Credential) GoString() string {
	return c.String()
}

// Init installs memguard's interrupt handler so protected memory is wiped
// when the process is interrupted.
func Init() {
	memguard.CatchInterrupt()
}

// Cleanup purges every memguard buffer. Call before process exit.
func Cleanup() {
	memguard.Purge()
}
