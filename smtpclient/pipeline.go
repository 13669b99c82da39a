package smtpclient

import (
	"context"
	"fmt"

	"github.com/go-smtp-client/smtpc"
)

// SendMailPipelined performs MAIL FROM, RCPT TO for each recipient, and the
// start of DATA as a single pipelined burst (RFC 2920): all command lines
// are written back-to-back before any reply is read, and the replies are
// then read back in the order the commands were sent. This collapses what
// would otherwise be one network round-trip per command into one
// round-trip for the whole envelope, at the cost of requiring the server to
// have advertised PIPELINING (RFC 2920 §3). Callers should check
// Client.SupportsPipelining and fall back to SendMail otherwise.
//
// Unlike SendMail, a partial recipient rejection does not abort the send:
// every accepted recipient is still included in DATA, and the rejected
// ones are returned in the rejected map alongside a nil error. Only when
// every recipient is rejected does it return a RecipientsRefusedError.
func (c *Client) SendMailPipelined(ctx context.Context, from string, to []string, data []byte) (rejected map[string]*smtp.SMTPError, err error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: no recipients", smtp.ErrIllegalArgument)
	}
	if !c.SupportsPipelining() {
		return nil, fmt.Errorf("%w: server did not advertise PIPELINING", smtp.ErrNotSupported)
	}

	release, err := c.guard(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { release(&err) }()

	lines := make([]string, 0, len(to)+2)
	lines = append(lines, fmt.Sprintf("MAIL FROM:<%s>", from))
	for _, rcpt := range to {
		lines = append(lines, fmt.Sprintf("RCPT TO:<%s>", rcpt))
	}
	lines = append(lines, "DATA")

	if err := c.conn.WriteLines(lines...); err != nil {
		return nil, fmt.Errorf("smtp: pipelined envelope: %w", err)
	}

	mailReply, err := c.conn.ReadReply()
	if err != nil {
		return nil, fmt.Errorf("smtp: pipelined MAIL reply: %w", err)
	}
	if mailReply.Code != int(smtp.ReplyOK) {
		// The server still expects replies for every pipelined command
		// that follows, even though the transaction as a whole has
		// already failed; drain them before returning.
		for range to {
			c.conn.ReadReply()
		}
		c.conn.ReadReply() // DATA reply.
		return nil, &smtp.SenderRefusedError{SMTPError: replyToError(mailReply), Sender: from}
	}

	accepted := make([]string, 0, len(to))
	rejected = make(map[string]*smtp.SMTPError)
	for _, rcpt := range to {
		reply, err := c.conn.ReadReply()
		if err != nil {
			return nil, fmt.Errorf("smtp: pipelined RCPT reply: %w", err)
		}
		if reply.Code == int(smtp.ReplyOK) || reply.Code == int(smtp.ReplyUserNotLocal) {
			accepted = append(accepted, rcpt)
		} else {
			rejected[rcpt] = replyToError(reply)
		}
	}

	dataReply, err := c.conn.ReadReply()
	if err != nil {
		return nil, fmt.Errorf("smtp: pipelined DATA reply: %w", err)
	}

	if len(accepted) == 0 {
		// Every recipient was refused: the DATA command itself must now
		// be aborted with RSET rather than streaming a body nobody wants.
		if dataReply.Code == int(smtp.ReplyStartMailInput) {
			c.conn.Cmd("RSET")
		}
		return nil, &smtp.RecipientsRefusedError{Rejected: rejected}
	}

	if dataReply.Code != int(smtp.ReplyStartMailInput) {
		return rejected, &smtp.DataError{SMTPError: replyToError(dataReply)}
	}

	dw := c.conn.DotWriter()
	if _, err := dw.Write(data); err != nil {
		dw.Close()
		return rejected, fmt.Errorf("smtp: writing DATA body: %w", err)
	}
	if err := dw.Close(); err != nil {
		return rejected, fmt.Errorf("smtp: closing DATA body: %w", err)
	}

	finalReply, err := c.conn.ReadReply()
	if err != nil {
		return rejected, fmt.Errorf("smtp: reading DATA reply: %w", err)
	}
	if finalReply.Code != int(smtp.ReplyOK) {
		return rejected, &smtp.DataError{SMTPError: replyToError(finalReply)}
	}

	if len(rejected) == 0 {
		return nil, nil
	}
	return rejected, nil
}
