package smtpclient

import "github.com/go-smtp-client/smtpc"

// SessionState is an immutable snapshot of the negotiated state of a
// connection at a point in time: the extensions last advertised by EHLO,
// whether the transport is running over TLS, and whether AUTH has
// succeeded. Client.State takes this snapshot without mutating the
// connection, so callers can make pipelining and retry decisions without
// racing the command executor.
type SessionState struct {
	Hostname      string // Server hostname from the greeting line.
	LocalName     string // Client identity sent in EHLO/HELO.
	Extensions    smtp.Extensions
	MaxSize       int64 // SIZE extension argument, 0 if not advertised.
	TLS           bool
	Authenticated bool
	Disconnected  bool // True once a fatal error or Close has torn down the transport.
}

// State returns a snapshot of the client's current session state. Per the
// STARTTLS invariant, Extensions is empty immediately after a successful
// upgrade and is only repopulated once the mandatory post-upgrade EHLO
// completes.
func (c *Client) State() SessionState {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return SessionState{
		Hostname:      c.hostname,
		LocalName:     c.localName,
		Extensions:    c.exts,
		MaxSize:       c.ServerMaxSize(),
		TLS:           c.tls,
		Authenticated: c.authenticated,
		Disconnected:  c.isClosed(),
	}
}

// SupportsPipelining reports whether the server advertised the PIPELINING
// extension (RFC 2920) in its last EHLO response.
func (c *Client) SupportsPipelining() bool {
	return c.exts.Has(smtp.ExtPIPELINING)
}
