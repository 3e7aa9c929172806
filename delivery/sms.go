package delivery

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender delivers OTP texts through the Twilio messaging API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds the Twilio client once at startup. Missing
// credentials are a valid deployment state (email-only installs) and yield a
// sender that reports every dispatch as failed.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	if accountSID == "" || authToken == "" || from == "" {
		return &TwilioSender{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

// SendOTP sends the code to an E.164 phone number. It reports false on any
// failure, including an unconfigured provider.
func (s *TwilioSender) SendOTP(ctx context.Context, phone, code, appID, appName string) bool {
	if s.client == nil {
		logrus.WithFields(logrus.Fields{"app_id": appID}).Warn("SMS provider not configured, skipping dispatch")
		return false
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("Your %s verification code is %s. It expires in 10 minutes.", appName, code))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "app_id": appID}).Error("Failed to send OTP SMS")
		return false
	}
	return true
}
