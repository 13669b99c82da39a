// Package smtpclient implements an SMTP client (RFC 5321).
package smtpclient

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-smtp-client/smtpc"
	"github.com/go-smtp-client/smtpc/internal/textproto"
)

// Client is an SMTP client for sending mail. A Client is bound to a single
// connection and runs one command at a time: cmdMu serializes calls, the
// same single-slot mutual-exclusion pattern async SMTP clients use to guard
// a connection against two coroutines awaiting the same command channel.
// cmdMu is a sync.Mutex, so waiting callers are not guaranteed to run in
// the order they arrived.
type Client struct {
	conn          *textproto.Conn
	netConn       net.Conn
	hostname      string // Server hostname from greeting.
	localName     string // Client identity for EHLO.
	exts          smtp.Extensions
	logger        *slog.Logger
	tls           bool
	authenticated bool

	cmdMu  sync.Mutex // Serializes execute/executeBatch; held for one command's duration.
	mu     sync.Mutex // Guards closed.
	closed bool       // True once the connection has fatally failed or Close was called.
}

// Option configures a Client.
type Option func(*options)

type options struct {
	dialer    *net.Dialer
	timeout   time.Duration
	localName string
	tlsConfig *tls.Config
	logger    *slog.Logger
}

// WithDialer sets a custom net.Dialer for the connection.
func WithDialer(d *net.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithTimeout sets the overall timeout for dial + greeting + EHLO.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLocalName sets the hostname used in EHLO.
func WithLocalName(name string) Option {
	return func(o *options) { o.localName = name }
}

// WithTLSConfig records a TLS configuration in the Dial options. Dial does
// not use it; StartTLS takes its configuration as an argument.
func WithTLSConfig(c *tls.Config) Option {
	return func(o *options) { o.tlsConfig = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// guard acquires the command-serialization lock for the duration of one
// command and arms a watcher that closes the transport the moment ctx is
// canceled or its deadline passes, so a suspended read/write never leaves
// the connection half-written. The returned release func must be deferred;
// it reports the final error to decide whether the fault was fatal.
func (c *Client) guard(ctx context.Context) (release func(*error), err error) {
	c.cmdMu.Lock()

	if c.isClosed() {
		c.cmdMu.Unlock()
		return nil, fmt.Errorf("%w: connection already closed", smtp.ErrServerDisconnected)
	}

	c.conn.SetDeadlineFromContext(ctx)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.failLocked()
		case <-stop:
		}
	}()

	return func(errp *error) {
		close(stop)
		if errp != nil {
			*errp = c.classify(*errp)
			if errors.Is(*errp, smtp.ErrServerDisconnected) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// The watcher closed the transport because the deadline passed.
				*errp = fmt.Errorf("%w: %v", smtp.ErrTimeout, *errp)
			}
			if isFatal(*errp) {
				c.failLocked()
			}
		}
		c.cmdMu.Unlock()
	}, nil
}

// failLocked marks the client Disconnected and closes the underlying
// transport. Idempotent and safe to call from the cancellation watcher
// goroutine while the owning command still holds cmdMu.
func (c *Client) failLocked() {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()
	if !already {
		c.netConn.Close()
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// classify maps a wire-level error onto the exported error taxonomy so
// callers can use errors.Is(err, smtp.ErrServerDisconnected) etc. regardless
// of which internal/textproto sentinel produced it. Non-transport errors
// (a parsed non-2xx reply, an already-classified error) pass through.
func (c *Client) classify(err error) error {
	var netErr net.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: %v", smtp.ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", smtp.ErrTimeout, err)
	case errors.Is(err, textproto.ErrConnectionLost), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %v", smtp.ErrServerDisconnected, err)
	case errors.Is(err, textproto.ErrLineTooLong):
		return fmt.Errorf("%w: %v", smtp.ErrLineTooLong, err)
	case errors.Is(err, textproto.ErrMalformedResponse):
		return fmt.Errorf("%w: %v", smtp.ErrMalformedResponse, err)
	case errors.Is(err, textproto.ErrCRLFInjection):
		return fmt.Errorf("%w: %v", smtp.ErrIllegalArgument, err)
	default:
		return err
	}
}

// isFatal reports whether err represents a transport/framing fault that
// must close the connection, as opposed to a parsed non-2xx SMTP reply
// (*smtp.SMTPError or a wrapper such as SenderRefusedError), which leaves
// the session usable.
func isFatal(err error) bool {
	return errors.Is(err, smtp.ErrServerDisconnected) ||
		errors.Is(err, smtp.ErrTimeout) ||
		errors.Is(err, smtp.ErrLineTooLong) ||
		errors.Is(err, smtp.ErrMalformedResponse)
}

// Dial connects to the SMTP server at addr, reads the greeting, and sends EHLO.
// It falls back to HELO if EHLO is rejected.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := &options{
		dialer:    &net.Dialer{},
		timeout:   30 * time.Second,
		localName: "localhost",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	// Apply timeout to the entire dial+greeting+EHLO sequence.
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	nc, err := o.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", addr, err)
	}

	c := &Client{
		conn:      textproto.NewConn(nc),
		netConn:   nc,
		localName: o.localName,
		logger:    o.logger,
	}

	c.conn.SetDeadlineFromContext(ctx)

	// Read greeting (RFC 5321 §4.3.1).
	reply, err := c.conn.ReadReply()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("smtp: reading greeting: %w", err)
	}
	if reply.Code != int(smtp.ReplyServiceReady) {
		nc.Close()
		return nil, replyToError(reply)
	}

	if len(reply.Lines) > 0 {
		c.hostname = reply.Lines[0]
	}

	// Send EHLO, fall back to HELO if rejected.
	if err := c.ehlo(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	return c, nil
}

// NewClient wraps an existing net.Conn as an SMTP client. The caller is
// responsible for having already established the connection. The greeting
// must not have been read yet.
func NewClient(nc net.Conn, localName string) (*Client, error) {
	c := &Client{
		conn:      textproto.NewConn(nc),
		netConn:   nc,
		localName: localName,
		logger:    slog.Default(),
	}

	// Read greeting.
	reply, err := c.conn.ReadReply()
	if err != nil {
		return nil, fmt.Errorf("smtp: reading greeting: %w", err)
	}
	if reply.Code != int(smtp.ReplyServiceReady) {
		return nil, replyToError(reply)
	}

	if len(reply.Lines) > 0 {
		c.hostname = reply.Lines[0]
	}

	// EHLO with HELO fallback.
	if err := c.ehlo(context.Background()); err != nil {
		return nil, err
	}

	return c, nil
}

// ehlo sends EHLO and falls back to HELO if rejected (RFC 5321 §4.1.1.1).
func (c *Client) ehlo(ctx context.Context) error {
	c.conn.SetDeadlineFromContext(ctx)

	reply, err := c.conn.Cmd("EHLO %s", c.localName)
	if err != nil {
		return fmt.Errorf("smtp: EHLO: %w", err)
	}

	if reply.Code == int(smtp.ReplyOK) {
		c.exts = smtp.ParseEHLOResponse(reply.Lines)
		return nil
	}

	// EHLO rejected — try HELO.
	if reply.Code == int(smtp.ReplySyntaxError) || reply.Code == int(smtp.ReplyCommandNotImpl) {
		reply, err = c.conn.Cmd("HELO %s", c.localName)
		if err != nil {
			return fmt.Errorf("smtp: HELO: %w", err)
		}
		if reply.Code != int(smtp.ReplyOK) {
			return replyToError(reply)
		}
		c.exts = nil // No extensions with HELO.
		return nil
	}

	return replyToError(reply)
}

// Extensions returns the extensions advertised by the server in the last
// EHLO response. Returns nil if the server only supports HELO.
func (c *Client) Extensions() smtp.Extensions {
	return c.exts
}

// Mail sends the MAIL FROM command with optional extension parameters
// (RFC 5321 §4.1.1.2, RFC 1870 SIZE, RFC 6152 8BITMIME, RFC 6531 SMTPUTF8, RFC 3461 DSN).
func (c *Client) Mail(ctx context.Context, from string, opts ...MailOption) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	cmd := fmt.Sprintf("MAIL FROM:<%s>", from)

	var mo mailOptions
	for _, opt := range opts {
		opt(&mo)
	}
	if mo.size > 0 {
		cmd += fmt.Sprintf(" SIZE=%d", mo.size)
	}
	if mo.body != "" {
		cmd += fmt.Sprintf(" BODY=%s", mo.body)
	}
	if mo.smtpUTF8 {
		cmd += " SMTPUTF8"
	}
	if mo.dsnRet != "" {
		cmd += fmt.Sprintf(" RET=%s", mo.dsnRet)
	}
	if mo.dsnEnvID != "" {
		cmd += fmt.Sprintf(" ENVID=%s", mo.dsnEnvID)
	}

	if err := c.conn.WriteLine(cmd); err != nil {
		return fmt.Errorf("smtp: MAIL FROM: %w", err)
	}
	reply, err := c.conn.ReadReply()
	if err != nil {
		return fmt.Errorf("smtp: MAIL FROM: %w", err)
	}
	if reply.Code != int(smtp.ReplyOK) {
		return &smtp.SenderRefusedError{SMTPError: replyToError(reply), Sender: from}
	}
	return nil
}

// Rcpt sends the RCPT TO command with optional extension parameters
// (RFC 5321 §4.1.1.3, RFC 3461 DSN).
func (c *Client) Rcpt(ctx context.Context, to string, opts ...RcptOption) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	cmd := fmt.Sprintf("RCPT TO:<%s>", to)

	var ro rcptOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.dsnNotify != "" {
		cmd += fmt.Sprintf(" NOTIFY=%s", ro.dsnNotify)
	}
	if ro.dsnOrcpt != "" {
		cmd += fmt.Sprintf(" ORCPT=%s", ro.dsnOrcpt)
	}

	if err := c.conn.WriteLine(cmd); err != nil {
		return fmt.Errorf("smtp: RCPT TO: %w", err)
	}
	reply, err := c.conn.ReadReply()
	if err != nil {
		return fmt.Errorf("smtp: RCPT TO: %w", err)
	}
	if reply.Code != int(smtp.ReplyOK) && reply.Code != int(smtp.ReplyUserNotLocal) {
		return replyToError(reply)
	}
	return nil
}

// ServerMaxSize returns the maximum message size advertised by the server
// via the SIZE extension (RFC 1870), or 0 if not advertised.
func (c *Client) ServerMaxSize() int64 {
	if c.exts == nil {
		return 0
	}
	param := c.exts.Param(smtp.ExtSIZE)
	if param == "" {
		return 0
	}
	var n int64
	fmt.Sscanf(param, "%d", &n)
	return n
}

// Data sends the DATA command and streams the message body from r.
// The body is dot-stuffed automatically (RFC 5321 §4.1.1.4).
func (c *Client) Data(ctx context.Context, r io.Reader) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	reply, err := c.conn.Cmd("DATA")
	if err != nil {
		return fmt.Errorf("smtp: DATA: %w", err)
	}
	if reply.Code != int(smtp.ReplyStartMailInput) {
		return replyToError(reply)
	}

	// Stream body through dot writer.
	dw := c.conn.DotWriter()
	if _, err := io.Copy(dw, r); err != nil {
		dw.Close()
		return fmt.Errorf("smtp: writing DATA body: %w", err)
	}
	if err := dw.Close(); err != nil {
		return fmt.Errorf("smtp: closing DATA body: %w", err)
	}

	// Read final reply.
	reply, err = c.conn.ReadReply()
	if err != nil {
		return fmt.Errorf("smtp: reading DATA reply: %w", err)
	}
	if reply.Code != int(smtp.ReplyOK) {
		return &smtp.DataError{SMTPError: replyToError(reply)}
	}
	return nil
}

// Bdat sends a BDAT chunk (RFC 3030). Set last=true for the final chunk.
func (c *Client) Bdat(ctx context.Context, data []byte, last bool) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	cmd := fmt.Sprintf("BDAT %d", len(data))
	if last {
		cmd += " LAST"
	}
	if err := c.conn.WriteLine(cmd); err != nil {
		return fmt.Errorf("smtp: BDAT: %w", err)
	}

	// Write the raw data (no dot-stuffing for BDAT).
	bw := c.conn.BufWriter()
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("smtp: BDAT write: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("smtp: BDAT flush: %w", err)
	}

	// Read reply.
	reply, err := c.conn.ReadReply()
	if err != nil {
		return fmt.Errorf("smtp: BDAT reply: %w", err)
	}
	if reply.Code != int(smtp.ReplyOK) {
		return replyToError(reply)
	}
	return nil
}

// StartTLS sends the STARTTLS command and upgrades the connection to TLS
// (RFC 3207). After a successful upgrade, it re-issues EHLO to refresh
// the server's extension list.
func (c *Client) StartTLS(ctx context.Context, config *tls.Config) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	if c.tls {
		return fmt.Errorf("%w: connection is already encrypted", smtp.ErrIllegalArgument)
	}
	if !c.exts.Has(smtp.ExtSTARTTLS) {
		return fmt.Errorf("%w: server did not advertise STARTTLS", smtp.ErrNotSupported)
	}

	reply, err := c.conn.Cmd("STARTTLS")
	if err != nil {
		return fmt.Errorf("smtp: STARTTLS: %w", err)
	}
	if reply.Code != int(smtp.ReplyServiceReady) {
		return replyToError(reply)
	}

	// Upgrade to TLS. A failed handshake leaves raw TLS record bytes
	// already exchanged on the socket, so cleartext SMTP cannot resume
	// even though the negotiated session state (extensions, auth) is
	// otherwise left untouched per RFC 3207 §4.2; the transport itself
	// must be torn down.
	tlsConn := tls.Client(c.netConn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return fmt.Errorf("%w: TLS handshake: %v", smtp.ErrServerDisconnected, err)
	}

	c.netConn = tlsConn
	c.conn.ReplaceConn(tlsConn)
	c.tls = true
	// Per RFC 3207 §4.2, any knowledge of the server gained before the
	// upgrade (advertised extensions, auth state) is discarded: a
	// man-in-the-middle could have forged the plaintext session.
	c.exts = nil
	c.authenticated = false

	// Re-issue EHLO after TLS upgrade.
	return c.ehlo(ctx)
}

// IsTLS reports whether the connection is using TLS.
func (c *Client) IsTLS() bool {
	return c.tls
}

// Auth performs SASL authentication using the given mechanism (RFC 4954).
func (c *Client) Auth(ctx context.Context, mech smtp.SASLMechanism) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	// Start the mechanism.
	initialResp, err := mech.Start()
	if err != nil {
		return fmt.Errorf("smtp: auth start: %w", err)
	}

	// Send AUTH command with optional initial response.
	var cmd string
	if initialResp != nil {
		cmd = fmt.Sprintf("AUTH %s %s", mech.Name(), base64.StdEncoding.EncodeToString(initialResp))
	} else {
		cmd = fmt.Sprintf("AUTH %s", mech.Name())
	}
	if err := c.conn.WriteLine(cmd); err != nil {
		return fmt.Errorf("smtp: auth write: %w", err)
	}

	// Process challenge/response loop.
	for {
		reply, err := c.conn.ReadReply()
		if err != nil {
			return fmt.Errorf("smtp: auth read: %w", err)
		}

		if reply.Code == int(smtp.ReplyAuthOK) {
			c.authenticated = true
			return nil // Authentication succeeded.
		}

		if reply.Code != int(smtp.ReplyAuthContinue) {
			return &smtp.AuthenticationError{SMTPError: replyToError(reply)}
		}

		// Decode the server challenge.
		challengeStr := ""
		if len(reply.Lines) > 0 {
			challengeStr = reply.Lines[0]
		}
		challenge, err := base64.StdEncoding.DecodeString(challengeStr)
		if err != nil {
			return fmt.Errorf("smtp: auth decode challenge: %w", err)
		}

		// Get client response.
		resp, err := mech.Next(challenge)
		if err != nil {
			// Cancel authentication.
			c.conn.WriteLine("*")
			c.conn.ReadReply()
			return fmt.Errorf("smtp: auth mechanism: %w", err)
		}

		// Send response.
		encoded := base64.StdEncoding.EncodeToString(resp)
		if err := c.conn.WriteLine(encoded); err != nil {
			return fmt.Errorf("smtp: auth response: %w", err)
		}
	}
}

// SubmitMessage performs STARTTLS (if available), AUTH, and then sends the
// message. This is the typical workflow for message submission (RFC 6409, port 587).
// If the connection is already TLS, the STARTTLS step is skipped.
func (c *Client) SubmitMessage(ctx context.Context, mech smtp.SASLMechanism, tlsConfig *tls.Config, from string, to []string, r io.Reader) error {
	// Step 1: STARTTLS if available and not already on TLS.
	if !c.tls && c.exts.Has(smtp.ExtSTARTTLS) && tlsConfig != nil {
		if err := c.StartTLS(ctx, tlsConfig); err != nil {
			return fmt.Errorf("smtp: submission STARTTLS: %w", err)
		}
	}

	// Step 2: Authenticate.
	if err := c.Auth(ctx, mech); err != nil {
		return fmt.Errorf("smtp: submission AUTH: %w", err)
	}

	// Step 3: Send the message.
	return c.SendMail(ctx, from, to, r)
}

// SendMail is a convenience method that performs MAIL FROM, RCPT TO for each
// recipient, and DATA in a single call.
func (c *Client) SendMail(ctx context.Context, from string, to []string, r io.Reader) error {
	if err := c.Mail(ctx, from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(ctx, rcpt); err != nil {
			return err
		}
	}
	return c.Data(ctx, r)
}

// Reset sends the RSET command to abort the current transaction (RFC 5321 §4.1.1.5).
func (c *Client) Reset(ctx context.Context) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	reply, err := c.conn.Cmd("RSET")
	if err != nil {
		return fmt.Errorf("smtp: RSET: %w", err)
	}
	if reply.Code != int(smtp.ReplyOK) {
		return replyToError(reply)
	}
	return nil
}

// Noop sends a NOOP command as a keepalive (RFC 5321 §4.1.1.9).
func (c *Client) Noop(ctx context.Context) (err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return err
	}
	defer func() { release(&err) }()

	reply, err := c.conn.Cmd("NOOP")
	if err != nil {
		return fmt.Errorf("smtp: NOOP: %w", err)
	}
	if reply.Code != int(smtp.ReplyOK) {
		return replyToError(reply)
	}
	return nil
}

// Verify sends the VRFY command to check whether a mailbox exists
// (RFC 5321 §4.1.1.6). Many servers disable it or always return a generic
// success to avoid leaking valid addresses to spammers.
func (c *Client) Verify(ctx context.Context, address string) (reply textproto.Reply, err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return textproto.Reply{}, err
	}
	defer func() { release(&err) }()

	reply, err = c.conn.Cmd("VRFY %s", address)
	if err != nil {
		return textproto.Reply{}, fmt.Errorf("smtp: VRFY: %w", err)
	}
	if !smtp.ReplyCode(reply.Code).IsPositive() {
		return reply, replyToError(reply)
	}
	return reply, nil
}

// Expand sends the EXPN command to list the membership of a mailing list
// (RFC 5321 §4.1.1.7).
func (c *Client) Expand(ctx context.Context, list string) (reply textproto.Reply, err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return textproto.Reply{}, err
	}
	defer func() { release(&err) }()

	reply, err = c.conn.Cmd("EXPN %s", list)
	if err != nil {
		return textproto.Reply{}, fmt.Errorf("smtp: EXPN: %w", err)
	}
	if !smtp.ReplyCode(reply.Code).IsPositive() {
		return reply, replyToError(reply)
	}
	return reply, nil
}

// Help sends the HELP command, optionally for a specific topic command
// (RFC 5321 §4.1.1.8).
func (c *Client) Help(ctx context.Context, topic string) (reply textproto.Reply, err error) {
	release, err := c.guard(ctx)
	if err != nil {
		return textproto.Reply{}, err
	}
	defer func() { release(&err) }()

	cmd := "HELP"
	if topic != "" {
		cmd += " " + topic
	}
	reply, err = c.conn.Cmd(cmd)
	if err != nil {
		return textproto.Reply{}, fmt.Errorf("smtp: HELP: %w", err)
	}
	if !smtp.ReplyCode(reply.Code).IsPositive() {
		return reply, replyToError(reply)
	}
	return reply, nil
}

// Close sends QUIT, reads the 221 reply best-effort, and closes the
// underlying transport. Safe to call more than once, and safe to call
// after a fatal error has already closed the connection. Mirrors the
// scoped-acquisition idiom's guaranteed cleanup: QUIT is attempted with a
// short timeout and failures are swallowed, the transport is always closed.
func (c *Client) Close() error {
	if c.isClosed() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if release, err := c.guard(ctx); err == nil {
		c.conn.Cmd("QUIT") // Best effort; ignore the reply and any error.
		release(nil)
	}
	c.failLocked()
	return nil
}

// replyToError converts a textproto.Reply to an SMTPError.
func replyToError(reply textproto.Reply) *smtp.SMTPError {
	msg := strings.Join(reply.Lines, "\n")

	// Try to extract enhanced code from first line.
	enhanced := smtp.EnhancedCode{}
	if len(reply.Lines) > 0 {
		cl, su, de, rest := textproto.ParseEnhancedCode(reply.Lines[0])
		if cl != 0 {
			enhanced = smtp.EnhancedCode{Class: cl, Subject: su, Detail: de}
			if len(reply.Lines) == 1 {
				msg = rest
			}
		}
	}

	return &smtp.SMTPError{
		Code:         smtp.ReplyCode(reply.Code),
		EnhancedCode: enhanced,
		Message:      msg,
	}
}
