package smtpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/go-smtp-client/smtpc"
)

// Config describes everything needed to establish and secure a connection
// for a one-shot Send/SendRaw call. It plays the role Dial's functional
// options play for Client, but as a single validated value instead of a
// variadic option list, since Send needs to decide up front whether to
// dial plain or pre-negotiate TLS before the first command goes out.
type Config struct {
	Hostname      string // Required.
	Port          int    // Defaults to 25 (587 for submission, 465 for implicit TLS).
	LocalHostname string // EHLO/HELO identity; defaults to "localhost".
	Timeout       time.Duration

	UseTLS   bool // Implicit TLS from the first byte (port 465 style).
	StartTLS bool // STARTTLS after EHLO; dial fails with ErrNotSupported if not advertised.

	ValidateCerts  bool // Defaults to true; set false only for test fixtures.
	ClientCertPath string
	ClientKeyPath  string
	CertBundlePath string
	TLSConfig      *tls.Config // Mutually exclusive with the cert/key/bundle trio.

	SourceAddress string // Local address to bind the dialer to.

	Auth smtp.SASLMechanism // Optional; performed after STARTTLS if both are set.

	Logger *slog.Logger
}

func (c Config) validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("%w: Config.Hostname is required", smtp.ErrIllegalArgument)
	}
	if c.TLSConfig != nil && (c.ClientCertPath != "" || c.ClientKeyPath != "" || c.CertBundlePath != "") {
		return fmt.Errorf("%w: Config.TLSConfig is mutually exclusive with ClientCertPath/ClientKeyPath/CertBundlePath", smtp.ErrIllegalArgument)
	}
	if (c.ClientCertPath == "") != (c.ClientKeyPath == "") {
		return fmt.Errorf("%w: ClientCertPath and ClientKeyPath must be set together", smtp.ErrIllegalArgument)
	}
	if c.UseTLS && c.StartTLS {
		return fmt.Errorf("%w: UseTLS and StartTLS are mutually exclusive", smtp.ErrIllegalArgument)
	}
	return nil
}

func (c Config) port() int {
	if c.Port != 0 {
		return c.Port
	}
	switch {
	case c.UseTLS:
		return 465
	case c.StartTLS:
		return 587
	default:
		return 25
	}
}

func (c Config) localHostname() string {
	if c.LocalHostname != "" {
		return c.LocalHostname
	}
	return "localhost"
}

func (c Config) timeout() time.Duration {
	if c.Timeout != 0 {
		return c.Timeout
	}
	return 30 * time.Second
}

// tlsConfig builds the effective *tls.Config for this Config, loading the
// client certificate and CA bundle from disk when paths are given instead
// of a pre-built TLSConfig.
func (c Config) tlsConfig(serverName string) (*tls.Config, error) {
	if c.TLSConfig != nil {
		cfg := c.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = serverName
		}
		return cfg, nil
	}

	cfg := &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: !c.ValidateCerts,
	}

	if c.ClientCertPath != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("smtp: loading client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if c.CertBundlePath != "" {
		pem, err := os.ReadFile(c.CertBundlePath)
		if err != nil {
			return nil, fmt.Errorf("smtp: reading certificate bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("smtp: no certificates found in %s", c.CertBundlePath)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// dial establishes a Client per this Config: plain dial, or implicit TLS
// dial, followed by STARTTLS and AUTH if configured. With StartTLS set, a
// server that does not advertise STARTTLS is an ErrNotSupported failure.
func (c Config) dial(ctx context.Context) (*Client, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(c.Hostname, fmt.Sprintf("%d", c.port()))
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	dialer := &net.Dialer{}
	if c.SourceAddress != "" {
		local, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(c.SourceAddress, "0"))
		if err != nil {
			return nil, fmt.Errorf("smtp: resolving source address: %w", err)
		}
		dialer.LocalAddr = local
	}

	opts := []Option{WithDialer(dialer), WithTimeout(c.timeout()), WithLocalName(c.localHostname())}
	if c.Logger != nil {
		opts = append(opts, WithLogger(c.Logger))
	}

	var client *Client
	var err error

	if c.UseTLS {
		tlsCfg, terr := c.tlsConfig(c.Hostname)
		if terr != nil {
			return nil, terr
		}
		nc, derr := dialer.DialContext(ctx, "tcp", addr)
		if derr != nil {
			return nil, fmt.Errorf("%w: %v", smtp.ErrConnectError, derr)
		}
		tlsConn := tls.Client(nc, tlsCfg)
		if herr := tlsConn.HandshakeContext(ctx); herr != nil {
			nc.Close()
			return nil, fmt.Errorf("%w: TLS handshake: %v", smtp.ErrConnectError, herr)
		}
		client, err = NewClient(tlsConn, c.localHostname())
		if err == nil {
			client.tls = true
			if c.Logger != nil {
				client.logger = c.Logger
			}
		}
	} else {
		client, err = Dial(ctx, addr, opts...)
	}
	if err != nil {
		return nil, err
	}

	if c.StartTLS {
		if !client.Extensions().Has(smtp.ExtSTARTTLS) {
			client.Close()
			return nil, fmt.Errorf("%w: server did not advertise STARTTLS", smtp.ErrNotSupported)
		}
		tlsCfg, terr := c.tlsConfig(c.Hostname)
		if terr != nil {
			client.Close()
			return nil, terr
		}
		if serr := client.StartTLS(ctx, tlsCfg); serr != nil {
			client.Close()
			return nil, serr
		}
	}

	if c.Auth != nil {
		if aerr := client.Auth(ctx, c.Auth); aerr != nil {
			client.Close()
			return nil, aerr
		}
	}

	return client, nil
}
