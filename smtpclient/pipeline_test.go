package smtpclient

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/go-smtp-client/smtpc"
	"github.com/go-smtp-client/smtpc/internal/smtptest"
)

func TestSendMailPipelined(t *testing.T) {
	handler := &testDataHandler{}
	addr, cleanup := startTestServer(t, smtptest.WithDataHandler(handler))
	defer cleanup()

	ctx := context.Background()
	c, err := Dial(ctx, addr, WithLocalName("test.local"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if !c.SupportsPipelining() {
		t.Fatal("expected test server to advertise PIPELINING")
	}

	body := "Subject: pipelined\r\n\r\nhello\r\n"
	rejected, err := c.SendMailPipelined(ctx, "sender@example.com", []string{"rcpt@example.com"}, []byte(body))
	if err != nil {
		t.Fatalf("SendMailPipelined: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, want none", rejected)
	}

	msg := handler.lastMessage()
	if !strings.Contains(msg.Body, "hello") {
		t.Errorf("delivered body = %q, want to contain %q", msg.Body, "hello")
	}
}

func TestSendMailPipelined_PartialRejection(t *testing.T) {
	handler := &testDataHandler{}
	rcptHandler := &rejectRcptHandler{reject: "bad@example.com"}
	addr, cleanup := startTestServer(t, smtptest.WithDataHandler(handler), smtptest.WithRcptHandler(rcptHandler))
	defer cleanup()

	ctx := context.Background()
	c, err := Dial(ctx, addr, WithLocalName("test.local"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	rejected, err := c.SendMailPipelined(ctx, "sender@example.com", []string{"good@example.com", "bad@example.com"}, []byte("Subject: x\r\n\r\nbody\r\n"))
	if err != nil {
		t.Fatalf("SendMailPipelined: %v", err)
	}
	if len(rejected) != 1 {
		t.Fatalf("rejected = %v, want exactly 1", rejected)
	}
	if _, ok := rejected["bad@example.com"]; !ok {
		t.Errorf("rejected = %v, want to contain bad@example.com", rejected)
	}
}

func TestSendMailPipelined_UserNotLocalAccepted(t *testing.T) {
	// A pipelined RCPT reply of 251 "User not local; will forward" must be
	// accepted, not reported in rejected (RFC 5321 §4.5.3.1.10).
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		buf := make([]byte, 4096)
		serverConn.Write([]byte("220 relay.example.com Ready\r\n"))

		n, _ := serverConn.Read(buf) // EHLO
		if strings.HasPrefix(string(buf[:n]), "EHLO") {
			serverConn.Write([]byte("250-relay.example.com\r\n250 PIPELINING\r\n"))
		}

		n, _ = serverConn.Read(buf) // MAIL FROM + RCPT TO + DATA, pipelined
		cmds := string(buf[:n])
		if strings.Contains(cmds, "MAIL FROM") && strings.Contains(cmds, "RCPT TO") && strings.Contains(cmds, "DATA") {
			serverConn.Write([]byte("250 2.1.0 Sender ok\r\n"))
			serverConn.Write([]byte("251 2.1.5 User not local; will forward\r\n"))
			serverConn.Write([]byte("354 Start mail input\r\n"))
		}

		n, _ = serverConn.Read(buf) // body + "."
		if strings.HasSuffix(string(buf[:n]), "\r\n.\r\n") {
			serverConn.Write([]byte("250 2.0.0 Message accepted\r\n"))
		}

		n, _ = serverConn.Read(buf) // QUIT
		if strings.HasPrefix(string(buf[:n]), "QUIT") {
			serverConn.Write([]byte("221 Bye\r\n"))
		}
		serverConn.Close()
	}()

	c, err := NewClient(clientConn, "test.local")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	rejected, err := c.SendMailPipelined(ctx, "sender@example.com", []string{"forwarded@example.com"}, []byte("Subject: x\r\n\r\nbody\r\n"))
	if err != nil {
		t.Fatalf("SendMailPipelined: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, want none (251 is an acceptance)", rejected)
	}
}

func TestSendMailPipelined_AllRejected(t *testing.T) {
	rcptHandler := &rejectRcptHandler{reject: "bad@example.com"}
	addr, cleanup := startTestServer(t, smtptest.WithRcptHandler(rcptHandler))
	defer cleanup()

	ctx := context.Background()
	c, err := Dial(ctx, addr, WithLocalName("test.local"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	_, err = c.SendMailPipelined(ctx, "sender@example.com", []string{"bad@example.com"}, []byte("x"))
	var refused *smtp.RecipientsRefusedError
	if !errors.As(err, &refused) {
		t.Fatalf("err = %v, want *smtp.RecipientsRefusedError", err)
	}
}
