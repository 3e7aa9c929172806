// Package delivery sends OTP codes through the configured channels. Senders
// report a plain success flag and never panic or surface errors to the OTP
// service: a missing provider configuration is an expected deployment state
// and degrades to false.
package delivery

import "context"

// Channel names the way an OTP reached (or was meant to reach) the user.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelBoth  Channel = "both"
)

// EmailSender dispatches an OTP to an email address.
type EmailSender interface {
	SendOTP(ctx context.Context, address, code, appID, appName string) bool
}

// SMSSender dispatches an OTP to an E.164 phone number. Numbers are validated
// by the OTP service before they reach a sender.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code, appID, appName string) bool
}
