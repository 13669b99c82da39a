package textproto

import "errors"

// Sentinel errors returned by the wire layer. Callers compare with
// errors.Is; the smtpclient package maps these onto its own taxonomy.
var (
	// ErrLineTooLong is returned when a line exceeds the configured maximum
	// before a terminating CRLF is seen.
	ErrLineTooLong = errors.New("textproto: line too long")

	// ErrConnectionLost is returned when EOF arrives mid-line or between
	// lines while a read is in progress.
	ErrConnectionLost = errors.New("textproto: connection lost")

	// ErrMalformedResponse is returned when a reply line doesn't match
	// "\d{3}[ -].*" or a continuation line's code disagrees with the
	// terminator's code.
	ErrMalformedResponse = errors.New("textproto: malformed response")

	// ErrCRLFInjection is returned by WriteLine/WriteLines when a command
	// argument contains a CR or LF, which would let the caller inject
	// additional protocol lines.
	ErrCRLFInjection = errors.New("textproto: illegal CR or LF in command line")
)
