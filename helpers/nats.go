package helpers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/iiskills/backend-access/otp"
)

// Subjects this service participates on. The payment webhook requests OTP
// issuance over NATS after capturing a payment; the verified event feeds the
// external entitlement-granting flow.
const (
	SubjectOTPRequest  = "payments.otp.request"
	SubjectOTPVerified = "access.otp.verified"
)

// ResponsePayload represents the standard reply structure
type ResponsePayload struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OTPRequestPayload is the body of a payments.otp.request message.
type OTPRequestPayload struct {
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	AppID                string `json:"app_id"`
	AppName              string `json:"app_name"`
	UserID               string `json:"user_id,omitempty"`
	PaymentTransactionID string `json:"payment_transaction_id,omitempty"`
}

// Events wraps the optional NATS connection. A nil *Events is a disabled
// event bus; every method degrades to a no-op.
type Events struct {
	nc   *nats.Conn
	svc  *otp.Service
	subs []*nats.Subscription
}

// ConnectEvents connects to NATS and wires the payment subscription. An empty
// url disables eventing and returns (nil, nil).
func ConnectEvents(url string, svc *otp.Service) (*Events, error) {
	if url == "" {
		return nil, nil
	}

	nc, err := nats.Connect(
		url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(5*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v\n", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS reconnection attempt...")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, err
	}

	e := &Events{nc: nc, svc: svc}
	if err := e.subscribeOTPRequests(); err != nil {
		nc.Close()
		return nil, err
	}
	log.Println("Successfully connected to NATS")
	return e, nil
}

// subscribeOTPRequests serves payments.otp.request over request/reply.
func (e *Events) subscribeOTPRequests() error {
	sub, err := e.nc.Subscribe(SubjectOTPRequest, func(msg *nats.Msg) {
		var body OTPRequestPayload
		if err := json.Unmarshal(msg.Data, &body); err != nil {
			e.reply(msg, ResponsePayload{Success: false, Error: "invalid payload"})
			return
		}

		res, err := e.svc.GenerateAndDispatch(context.Background(), otp.GenerateInput{
			Email:                body.Email,
			Phone:                body.Phone,
			AppID:                body.AppID,
			AppName:              body.AppName,
			UserID:               body.UserID,
			PaymentTransactionID: body.PaymentTransactionID,
		})
		if err != nil {
			e.reply(msg, ResponsePayload{Success: false, Error: err.Error()})
			return
		}
		e.reply(msg, ResponsePayload{Success: res.Success, Data: res})
	})
	if err != nil {
		return err
	}
	if err := sub.SetPendingLimits(-1, -1); err != nil {
		log.Printf("Failed to set pending limits for %s: %v\n", SubjectOTPRequest, err)
	}
	e.subs = append(e.subs, sub)
	return nil
}

// reply answers a request message, skipping fire-and-forget publishes.
func (e *Events) reply(msg *nats.Msg, payload ResponsePayload) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling response: %v\n", err)
		return
	}
	if err := e.nc.Publish(msg.Reply, data); err != nil {
		log.Printf("Failed to publish response: %v\n", err)
	}
}

// PublishOTPVerified emits a verified event for the entitlement-granting
// flow. Safe on a nil receiver.
func (e *Events) PublishOTPVerified(res *otp.VerifyResult) {
	if e == nil || e.nc == nil || res == nil || !res.Success {
		return
	}
	payload := map[string]any{
		"request_id":  uuid.NewString(),
		"user_id":     res.UserID,
		"email":       res.Email,
		"app_id":      res.AppID,
		"verified_at": time.Now().UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling verified event: %v\n", err)
		return
	}
	if err := e.nc.Publish(SubjectOTPVerified, data); err != nil {
		log.Printf("Failed to publish verified event: %v\n", err)
	}
}

// Drain unsubscribes and drains the connection, bounded by ctx.
func (e *Events) Drain(ctx context.Context) error {
	if e == nil || e.nc == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		for _, sub := range e.subs {
			if err := sub.Unsubscribe(); err != nil {
				log.Printf("Error unsubscribing from %s: %v", sub.Subject, err)
			}
		}
		e.subs = nil
		done <- e.nc.Drain()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Println("NATS drain timeout, forcing close")
		e.nc.Close()
		return nil
	}
}
