// Package smtpclient implements an SMTP client (RFC 5321).
//
// # Quick Start
//
// Use [Dial] to connect to an SMTP server, then call [Client.SendMail]
// to send a message:
//
//	c, err := smtpclient.Dial(ctx, "mail.example.com:25")
//	if err != nil { ... }
//	defer c.Close()
//	err = c.SendMail(ctx, "from@example.com", []string{"to@example.com"}, body)
//
// # Message Submission (RFC 6409)
//
// For port 587 submission with STARTTLS and authentication, use
// [Client.SubmitMessage]:
//
//	err = c.SubmitMessage(ctx, smtp.PlainAuth("", user, pass), tlsCfg,
//	    "from@example.com", []string{"to@example.com"}, body)
//
// # Step-by-Step API
//
// For fine-grained control, use [Client.Mail], [Client.Rcpt], and
// [Client.Data] individually. Options like [WithSize], [WithBody],
// and DSN parameters can be passed to Mail and Rcpt.
//
// # STARTTLS
//
// Call [Client.StartTLS] to upgrade an existing connection to TLS.
// After a successful upgrade, the client re-issues EHLO automatically.
//
// # Authentication
//
// Call [Client.Auth] with any [smtp.SASLMechanism] (PLAIN, LOGIN, CRAM-MD5).
//
// # CHUNKING (RFC 3030)
//
// Call [Client.Bdat] to send message data in binary chunks without
// dot-stuffing.
//
// # PIPELINING (RFC 2920)
//
// Call [Client.SupportsPipelining] to check for server support, then
// [Client.SendMailPipelined] to send MAIL/RCPT/DATA as a single
// back-to-back burst instead of one round-trip per command.
//
// # One-shot sending
//
// [Send] and [SendRaw] dial, negotiate TLS/AUTH, deliver a message, and
// close the connection in a single call, configured by a [Config] value
// instead of Dial's functional options. [WithClient] provides the same
// dial/close scoping for callers that need more than one operation on
// the connection.
//
// # Diagnostic commands
//
// [Client.Verify], [Client.Expand], and [Client.Help] wrap VRFY, EXPN,
// and HELP. Most public servers disable or stub VRFY/EXPN to avoid
// leaking valid addresses; a non-2xx reply surfaces as a plain error,
// not a panic.
//
// # Concurrency and cancellation
//
// A Client is bound to one connection. Commands issued from multiple
// goroutines are serialized (not strictly in arrival order) rather than
// rejected, so concurrent
// callers compose safely but get no parallelism from a single Client —
// use one Client per goroutine, or a pool, for that. Canceling the
// context passed to any command tears down the connection immediately,
// even if the command was blocked mid-read or mid-write; every command
// issued afterward fails fast with an error matching
// [smtp.ErrServerDisconnected] instead of hanging or corrupting the
// wire. [Client.State] reports Disconnected once this has happened.
package smtpclient
