package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconfiguredSMTPSenderDegrades(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{})
	// No provider configured: the attempt reports failure without panicking.
	assert.False(t, s.SendOTP(context.Background(), "a@b.com", "123456", "learn-ai", "Learn AI"))
}

func TestSMTPSenderFromDefaultsToUsername(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "465", Username: "noreply@iiskills.cloud"})
	assert.Equal(t, "noreply@iiskills.cloud", s.cfg.From)
}

func TestUnconfiguredTwilioSenderDegrades(t *testing.T) {
	s := NewTwilioSender("", "", "")
	assert.False(t, s.SendOTP(context.Background(), "+919876543210", "123456", "learn-ai", "Learn AI"))

	partial := NewTwilioSender("AC123", "", "+15550000000")
	assert.False(t, partial.SendOTP(context.Background(), "+919876543210", "123456", "learn-ai", "Learn AI"))
}
