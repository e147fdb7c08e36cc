package securemem

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialReveal(t *testing.T) {
	cred := NewCredential("sk-test-123", "ANTHROPIC_API_KEY")

	assert.False(t, cred.IsEmpty())
	assert.Equal(t, "ANTHROPIC_API_KEY", cred.Source())

	var got string
	require.NoError(t, cred.Reveal(func(secret string) error {
		got = secret
		return nil
	}))
	assert.Equal(t, "sk-test-123", got)
}

func TestCredentialRevealStringOutlivesBuffer(t *testing.T) {
	cred := NewCredential("sk-copy-456", "OPENAI_API_KEY")

	var kept string
	require.NoError(t, cred.Reveal(func(secret string) error {
		kept = secret
		return nil
	}))

	// The enclave buffer is gone; the string handed out is its own copy.
	assert.Equal(t, "sk-copy-456", kept)
	require.NoError(t, cred.Reveal(func(secret string) error {
		assert.Equal(t, kept, secret)
		return nil
	}))
}

func TestCredentialRevealBytes(t *testing.T) {
	cred := NewCredential("sk-bytes-789", "GEMINI_API_KEY")

	var length int
	require.NoError(t, cred.RevealBytes(func(secret []byte) error {
		length = len(secret)
		assert.Equal(t, "sk-bytes-789", string(secret))
		return nil
	}))
	assert.Equal(t, len("sk-bytes-789"), length)

	sentinel := errors.New("client failed")
	assert.ErrorIs(t, cred.RevealBytes(func([]byte) error { return sentinel }), sentinel)

	var empty *Credential
	require.NoError(t, empty.RevealBytes(func(secret []byte) error {
		assert.Nil(t, secret)
		return nil
	}))
}

func TestCredentialRevealPropagatesError(t *testing.T) {
	cred := NewCredential("value", "TEST")
	sentinel := errors.New("client failed")

	err := cred.Reveal(func(string) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestCredentialEmpty(t *testing.T) {
	tests := []struct {
		name string
		cred *Credential
	}{
		{name: "nil", cred: nil},
		{name: "empty value", cred: NewCredential("", "OPENAI_API_KEY")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.cred.IsEmpty())
			assert.Equal(t, "", tt.cred.String())
			require.NoError(t, tt.cred.Reveal(func(secret string) error {
				assert.Equal(t, "", secret)
				return nil
			}))
		})
	}
}

func TestCredentialNeverFormatsSecret(t *testing.T) {
	cred := NewCredential("super-secret", "GEMINI_API_KEY")

	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", cred))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%#v", cred))
	assert.NotContains(t, fmt.Sprintf("%s", cred), "super-secret")
}

func TestCredentialDestroy(t *testing.T) {
	cred := NewCredential("value", "TEST")
	cred.Destroy()

	assert.True(t, cred.IsEmpty())
}
