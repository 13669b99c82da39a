package smtp

import "errors"

// Sentinel error kinds for failures that carry no server reply. Compare
// with errors.Is; client-layer errors returned by smtpclient wrap one of
// these alongside operation-specific context.
var (
	// ErrConnectError means the implicit-TLS connection made by
	// smtpclient's Config could not be dialed or its TLS handshake failed.
	// smtpclient.Dial and NewClient do not wrap it: their dial errors,
	// greeting read errors and non-220 greetings are returned unwrapped.
	ErrConnectError = errors.New("smtp: cannot establish connection")

	// ErrServerDisconnected means the peer closed the connection
	// unexpectedly, or the client closed it locally after a fatal error.
	ErrServerDisconnected = errors.New("smtp: server disconnected")

	// ErrTimeout means a command exceeded its effective deadline.
	ErrTimeout = errors.New("smtp: command timed out")

	// ErrMalformedResponse means a reply could not be parsed.
	ErrMalformedResponse = errors.New("smtp: malformed response")

	// ErrLineTooLong means a line exceeded the configured maximum before a
	// terminating CRLF was seen.
	ErrLineTooLong = errors.New("smtp: line too long")

	// ErrNotSupported means a requested extension is not advertised by the
	// server.
	ErrNotSupported = errors.New("smtp: extension not supported")

	// ErrIllegalArgument means the caller supplied an invalid configuration
	// or argument (mutually exclusive options, CRLF injection, a missing
	// sender or recipient list).
	ErrIllegalArgument = errors.New("smtp: illegal argument")
)

// ResponseError wraps a non-2xx SMTPError returned where a success code was
// required. The smtpclient command methods with no more specific taxonomy
// entry (VRFY, EXPN, HELP, NOOP, RSET, RCPT) return the *SMTPError itself
// and do not construct a ResponseError.
type ResponseError struct {
	*SMTPError
}

func (e *ResponseError) Unwrap() error { return e.SMTPError }

// AuthenticationError means an AUTH reply was neither 235 nor a 334
// challenge. Client.Auth uses the mechanism the caller passes and does not
// check it against the server's advertised AUTH list.
type AuthenticationError struct {
	*SMTPError
}

func (e *AuthenticationError) Unwrap() error { return e.SMTPError }

// SenderRefusedError means MAIL FROM did not receive a 250.
type SenderRefusedError struct {
	*SMTPError
	Sender string
}

func (e *SenderRefusedError) Unwrap() error { return e.SMTPError }

// DataError means the end-of-DATA reply was not 2xx.
type DataError struct {
	*SMTPError
}

func (e *DataError) Unwrap() error { return e.SMTPError }

// RecipientsRefusedError means every RCPT TO in the envelope was rejected,
// so the send failed outright rather than returning a partial result.
type RecipientsRefusedError struct {
	Rejected map[string]*SMTPError
}

func (e *RecipientsRefusedError) Error() string {
	return "smtp: all recipients refused"
}

// MessageTooLargeError means the message body exceeds the server's
// advertised SIZE limit.
type MessageTooLargeError struct {
	Size    int64
	MaxSize int64
}

func (e *MessageTooLargeError) Error() string {
	return Errorf(ReplyExceededStorage, EnhancedCodeMsgTooLarge,
		"message size %d exceeds server maximum %d", e.Size, e.MaxSize).Error()
}

func (e *MessageTooLargeError) Unwrap() error { return ErrIllegalArgument }
