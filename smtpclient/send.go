package smtpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-smtp-client/smtpc"
)

// SendResult reports the outcome of a one-shot Send/SendRaw call: which
// recipients, if any, were rejected. A nil error with a non-empty Rejected
// map means the message was delivered to every recipient that was
// accepted, but not all of them were; a non-nil error means the send
// failed outright (e.g. every recipient was refused).
type SendResult struct {
	Rejected map[string]*smtp.SMTPError
}

// Send delivers a structured message described by a MessageSource,
// dialing, negotiating TLS/AUTH per cfg, and closing the connection
// afterward. The envelope sender and recipients come from the message
// unless overridden; mirrors the Message-object overload of the original
// Python send_message function.
func Send(ctx context.Context, msg MessageSource, cfg Config, overrideSender string, overrideRecipients []string) (SendResult, error) {
	body, err := msg.Serialize()
	if err != nil {
		return SendResult{}, err
	}

	sender := overrideSender
	if sender == "" {
		mb, ok := msg.Sender()
		if !ok {
			return SendResult{}, fmt.Errorf("%w: message has no From header and no sender override was given", smtp.ErrIllegalArgument)
		}
		sender = mb.String()
	}

	recipients := overrideRecipients
	if len(recipients) == 0 {
		for _, mb := range msg.Recipients() {
			recipients = append(recipients, mb.String())
		}
	}
	if len(recipients) == 0 {
		return SendResult{}, fmt.Errorf("%w: message has no recipients and no recipient override was given", smtp.ErrIllegalArgument)
	}

	return SendRaw(ctx, sender, recipients, body, cfg)
}

// SendRaw delivers a raw RFC 5322 message given an explicit envelope
// sender and recipient list, dialing, negotiating TLS/AUTH per cfg, and
// closing the connection afterward. Mirrors the str/bytes overload of the
// original Python send_message function.
func SendRaw(ctx context.Context, sender string, recipients []string, body []byte, cfg Config) (SendResult, error) {
	if sender == "" {
		return SendResult{}, fmt.Errorf("%w: empty sender", smtp.ErrIllegalArgument)
	}
	if len(recipients) == 0 {
		return SendResult{}, fmt.Errorf("%w: no recipients", smtp.ErrIllegalArgument)
	}

	var result SendResult
	err := WithClient(ctx, cfg, func(c *Client) error {
		if max := c.ServerMaxSize(); max > 0 && int64(len(body)) > max {
			return &smtp.MessageTooLargeError{Size: int64(len(body)), MaxSize: max}
		}

		if c.SupportsPipelining() {
			rejected, err := c.SendMailPipelined(ctx, sender, recipients, body)
			result.Rejected = rejected
			return err
		}

		if err := c.Mail(ctx, sender); err != nil {
			return err
		}

		accepted := 0
		rejected := make(map[string]*smtp.SMTPError)
		for _, rcpt := range recipients {
			if err := c.Rcpt(ctx, rcpt); err != nil {
				var smtpErr *smtp.SMTPError
				if errors.As(err, &smtpErr) {
					rejected[rcpt] = smtpErr
					continue
				}
				return err
			}
			accepted++
		}
		if accepted == 0 {
			return &smtp.RecipientsRefusedError{Rejected: rejected}
		}
		if len(rejected) > 0 {
			result.Rejected = rejected
		}

		return c.Data(ctx, bytes.NewReader(body))
	})
	return result, err
}

// WithClient dials a Client per cfg, hands it to fn, and closes it
// afterward regardless of fn's outcome — the scoped-acquisition helper for
// callers that need more than one operation on the same connection
// without managing Dial/Close themselves.
func WithClient(ctx context.Context, cfg Config, fn func(*Client) error) error {
	c, err := cfg.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
