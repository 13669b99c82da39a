package smtpclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-smtp-client/smtpc"
	"github.com/go-smtp-client/smtpc/internal/smtptest"
)

// TestSerializedCommands checks that two goroutines issuing commands on the
// same Client are serialized rather than corrupting the wire protocol by
// interleaving command bytes.
func TestSerializedCommands(t *testing.T) {
	handler := &testDataHandler{}
	addr, cleanup := startTestServer(t, smtptest.WithDataHandler(handler))
	defer cleanup()

	ctx := context.Background()
	c, err := Dial(ctx, addr, WithLocalName("test.local"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	const n = 20
	var wg sync.WaitGroup
	var failures int32
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if err := c.Noop(ctx); err != nil {
				atomic.AddInt32(&failures, 1)
			}
		}(i)
	}
	wg.Wait()

	if failures != 0 {
		t.Errorf("%d/%d NOOP commands failed under concurrent access", failures, n)
	}
}

// TestCancelDuringCommand checks that canceling the context passed to a
// command closes the transport and transitions the client to Disconnected,
// and that a command issued afterward fails with ErrServerDisconnected
// instead of hanging forever.
func TestCancelDuringCommand(t *testing.T) {
	handler := &slowDataHandler{delay: 500 * time.Millisecond}
	addr, cleanup := startTestServer(t, smtptest.WithDataHandler(handler))
	defer cleanup()

	dialCtx := context.Background()
	c, err := Dial(dialCtx, addr, WithLocalName("test.local"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	cmdCtx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- c.SendMail(cmdCtx, "sender@example.com", []string{"rcpt@example.com"}, strings.NewReader("body\r\n"))
	}()

	// Give SendMail time to reach the DATA round-trip, then cancel mid-flight.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error after cancellation, got nil")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SendMail did not return after context cancellation")
	}

	if !c.State().Disconnected {
		t.Error("expected client to be Disconnected after cancellation")
	}

	// A command issued after the connection was torn down must fail fast
	// with ErrServerDisconnected rather than attempting to write to a
	// closed socket.
	if err := c.Noop(context.Background()); !errors.Is(err, smtp.ErrServerDisconnected) {
		t.Errorf("Noop after cancellation = %v, want ErrServerDisconnected", err)
	}
}

// TestTimeoutClosesConnection checks that a command whose deadline expires
// closes the transport and is reported as ErrTimeout.
func TestTimeoutClosesConnection(t *testing.T) {
	handler := &slowDataHandler{delay: 2 * time.Second}
	addr, cleanup := startTestServer(t, smtptest.WithDataHandler(handler))
	defer cleanup()

	c, err := Dial(context.Background(), addr, WithLocalName("test.local"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = c.SendMail(ctx, "sender@example.com", []string{"rcpt@example.com"}, strings.NewReader("body\r\n"))
	if !errors.Is(err, smtp.ErrTimeout) && !errors.Is(err, smtp.ErrServerDisconnected) {
		t.Errorf("SendMail with expired deadline = %v, want ErrTimeout or ErrServerDisconnected", err)
	}
	if !c.State().Disconnected {
		t.Error("expected client to be Disconnected after a timed-out command")
	}
}

// slowDataHandler sleeps before acknowledging DATA, giving tests a window
// to cancel or time out mid-command.
type slowDataHandler struct {
	delay time.Duration
}

func (h *slowDataHandler) OnData(ctx context.Context, _ smtp.ReversePath, _ []smtp.ForwardPath, r io.Reader) error {
	select {
	case <-time.After(h.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := io.Copy(io.Discard, r)
	return err
}
