package smtp

import (
	"fmt"

	"github.com/emersion/go-sasl"
	"golang.org/x/text/secure/precis"
)

// SASLMechanism defines a client-side SASL authentication mechanism, driven
// by the AUTH command's challenge/response loop (RFC 4954).
type SASLMechanism interface {
	// Name returns the IANA-registered mechanism name (e.g., "PLAIN").
	Name() string
	// Start begins authentication and returns the initial response.
	// If no initial response is needed, return nil, nil.
	Start() ([]byte, error)
	// Next processes a server challenge and returns the response.
	Next(challenge []byte) ([]byte, error)
}

// saslAdapter turns a github.com/emersion/go-sasl Client into a
// SASLMechanism, fixing the mechanism name from the first Start() call
// (go-sasl clients report it there rather than via a separate method).
type saslAdapter struct {
	client sasl.Client
	name   string
	ir     []byte
}

func (a *saslAdapter) Name() string { return a.name }

// Start returns the initial response captured when the adapter was
// constructed. go-sasl's own Start() is called eagerly at construction time
// (see newAdapter); a setup error found there is reported by the returned
// errMechanism's Start(), before any AUTH line is written.
func (a *saslAdapter) Start() ([]byte, error) {
	return a.ir, nil
}

func (a *saslAdapter) Next(challenge []byte) ([]byte, error) {
	return a.client.Next(challenge)
}

// saslprep normalizes a username with the PRECIS UsernameCaseMapped profile
// (RFC 8265) so usernames containing non-ASCII characters compare the way
// the server expects. Passwords and secrets are passed through unchanged.
// Falls back to the original string if it isn't a valid profile input.
func saslprep(s string) string {
	out, err := precis.UsernameCaseMapped.String(s)
	if err != nil {
		return s
	}
	return out
}

func newAdapter(name string, client sasl.Client) (*saslAdapter, error) {
	mech, ir, err := client.Start()
	if err != nil {
		return nil, fmt.Errorf("smtp: %s: start: %w", name, err)
	}
	if mech != "" {
		name = mech
	}
	return &saslAdapter{client: client, name: name, ir: ir}, nil
}

// PlainAuth returns a SASLMechanism implementing SASL PLAIN (RFC 4616).
// The identity is typically empty (server derives it from username).
func PlainAuth(identity, username, password string) SASLMechanism {
	a, err := newAdapter("PLAIN", sasl.NewPlainClient(identity, saslprep(username), password))
	if err != nil {
		return errMechanism{name: "PLAIN", err: err}
	}
	return a
}

// LoginAuth returns a SASLMechanism implementing SASL LOGIN (widely deployed,
// not formally registered with IANA).
func LoginAuth(username, password string) SASLMechanism {
	a, err := newAdapter("LOGIN", sasl.NewLoginClient(saslprep(username), password))
	if err != nil {
		return errMechanism{name: "LOGIN", err: err}
	}
	return a
}

// CramMD5Auth returns a SASLMechanism implementing SASL CRAM-MD5 (RFC 2195).
func CramMD5Auth(username, secret string) SASLMechanism {
	a, err := newAdapter("CRAM-MD5", sasl.NewCramMD5Client(saslprep(username), secret))
	if err != nil {
		return errMechanism{name: "CRAM-MD5", err: err}
	}
	return a
}

// errMechanism is returned when constructing the underlying go-sasl client
// fails; it surfaces the error on the first Start() call instead of at
// construction time, since PlainAuth/LoginAuth/CramMD5Auth return a bare
// SASLMechanism rather than (SASLMechanism, error).
type errMechanism struct {
	name string
	err  error
}

func (e errMechanism) Name() string                 { return e.name }
func (e errMechanism) Start() ([]byte, error)        { return nil, e.err }
func (e errMechanism) Next(_ []byte) ([]byte, error) { return nil, e.err }
