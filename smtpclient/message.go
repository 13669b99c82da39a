package smtpclient

import (
	"bytes"
	"fmt"
	"net/mail"

	"github.com/go-smtp-client/smtpc"
)

// MessageSource adapts a structured message to the envelope Send needs,
// so the core client never has to import a MIME library to extract a
// sender and recipient list from message headers.
type MessageSource interface {
	// Sender returns the envelope sender. ok is false if the source has
	// none, in which case the caller must supply one explicitly.
	Sender() (smtp.Mailbox, bool)
	// Recipients returns the envelope recipient list.
	Recipients() []smtp.Mailbox
	// Serialize returns the full RFC 5322 message (headers + body) as it
	// should be streamed through DATA.
	Serialize() ([]byte, error)
}

// HeaderMessage is a MessageSource backed by net/mail header parsing: the
// sender comes from the From header and recipients are the addresses of
// To, Cc, and Bcc in turn (duplicates kept), mirroring how the Python original derives an envelope from
// an email.message.Message when no explicit overrides are given.
type HeaderMessage struct {
	Raw []byte
}

func (m HeaderMessage) parsed() (*mail.Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(m.Raw))
	if err != nil {
		return nil, fmt.Errorf("smtp: parsing message headers: %w", err)
	}
	return msg, nil
}

// Sender returns the mailbox parsed from the From header.
func (m HeaderMessage) Sender() (smtp.Mailbox, bool) {
	msg, err := m.parsed()
	if err != nil {
		return smtp.Mailbox{}, false
	}
	from := msg.Header.Get("From")
	if from == "" {
		return smtp.Mailbox{}, false
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return smtp.Mailbox{}, false
	}
	mb, err := smtp.ParseMailbox(addr.Address)
	if err != nil {
		return smtp.Mailbox{}, false
	}
	return mb, true
}

// Recipients returns the addresses of the To, Cc, and Bcc headers, in that
// order; an address listed twice appears twice.
func (m HeaderMessage) Recipients() []smtp.Mailbox {
	msg, err := m.parsed()
	if err != nil {
		return nil
	}
	var recipients []smtp.Mailbox
	for _, header := range []string{"To", "Cc", "Bcc"} {
		v := msg.Header.Get(header)
		if v == "" {
			continue
		}
		addrs, err := mail.ParseAddressList(v)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if mb, err := smtp.ParseMailbox(a.Address); err == nil {
				recipients = append(recipients, mb)
			}
		}
	}
	return recipients
}

// Serialize returns the message exactly as provided; BCC stripping is the
// caller's responsibility, matching aiosmtplib's behavior of sending the
// message verbatim and using the header-derived Bcc only for the envelope.
func (m HeaderMessage) Serialize() ([]byte, error) {
	return m.Raw, nil
}
