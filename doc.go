// Package smtp provides shared types for the SMTP protocol (RFC 5321).
//
// This package contains reply codes, enhanced status codes, error types,
// email address parsing, SMTP extension definitions, and SASL authentication
// mechanisms. It is used by the [github.com/go-smtp-client/smtpc/smtpclient]
// package and by the internal test fixtures under internal/smtptest.
//
// # Reply Codes
//
// [ReplyCode] constants cover all standard SMTP reply codes. The [SMTPError]
// type carries a reply code, optional [EnhancedCode], and human-readable
// message.
//
// # Address Types
//
// [Mailbox], [ReversePath], and [ForwardPath] represent RFC 5321 email
// addresses with full parsing and validation, including support for
// internationalized domain names (RFC 6531) via IDNA label validation.
//
// # Authentication
//
// The [SASLMechanism] interface and its implementations ([PlainAuth],
// [LoginAuth], [CramMD5Auth]) adapt github.com/emersion/go-sasl client
// mechanisms for the AUTH command's challenge/response loop (RFC 4954).
//
// # Extensions
//
// The [Extension] type and [Extensions] map track EHLO-advertised
// capabilities. Use [ParseEHLOResponse] to parse a server's EHLO reply.
//
// # Error Taxonomy
//
// Sentinel errors such as [ErrConnectError], [ErrTimeout], and
// [ErrNotSupported] classify connection- and protocol-level failures that
// carry no server reply. Structured error types ([SenderRefusedError],
// [AuthenticationError], [MessageTooLargeError]) wrap an [SMTPError] or
// sentinel with operation-specific context; [RecipientsRefusedError]
// carries a per-recipient map of replies instead. Compare with errors.Is
// and errors.As.
package smtp
