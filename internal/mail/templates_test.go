package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWelcomeTask(t *testing.T) {
	task, err := NewWelcomeTask("alice@example.com", 42, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", task.Recipient)
	assert.Equal(t, "Welcome to Marquee!", task.Subject)
	for _, body := range []string{task.HTMLBody, task.PlainBody} {
		assert.Contains(t, body, "42")
		assert.Contains(t, body, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
		assert.Contains(t, body, "PUT /v1/users/activated")
	}
}

func TestNewActivationTask(t *testing.T) {
	task, err := NewActivationTask("bob@example.com", "TOKENTOKENTOKENTOKENTOKENT")
	require.NoError(t, err)

	assert.Equal(t, "Activate your Marquee account", task.Subject)
	assert.Contains(t, task.PlainBody, "TOKENTOKENTOKENTOKENTOKENT")
	assert.Contains(t, task.HTMLBody, "3 days")
}

func TestNewPasswordResetTask(t *testing.T) {
	task, err := NewPasswordResetTask("carol@example.com", "RESETRESETRESETRESETRESETR")
	require.NoError(t, err)

	assert.Equal(t, "Reset your Marquee password", task.Subject)
	assert.Contains(t, task.PlainBody, "PUT /v1/users/password")
	assert.Contains(t, task.HTMLBody, "45 minutes")
}
