package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillpost/quillpost/internal/config"
	"github.com/quillpost/quillpost/internal/logging"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, message)
	return r.err
}

func TestDispatcherDeliversInBackground(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(rec, time.Second, logging.Discard())

	d.Dispatch(Welcome("a@x.com", "alice"))
	d.Dispatch(Login("a@x.com", "alice"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.sent, 2)
	kinds := []string{rec.sent[0].Kind, rec.sent[1].Kind}
	require.ElementsMatch(t, []string{KindWelcome, KindLogin}, kinds)
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("smtp down")}
	d := NewDispatcher(rec, time.Second, logging.Discard())

	d.Dispatch(Login("a@x.com", "alice"))
	require.NoError(t, d.Wait(context.Background()))
}

func TestWelcomeMessage(t *testing.T) {
	msg := Welcome("a@x.com", "alice")
	require.Equal(t, "a@x.com", msg.Destination)
	require.Contains(t, msg.Body, "Hello alice")
}

func TestSMTPCompose(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	raw := string(n.compose(Login("a@x.com", "alice")))

	require.True(t, strings.HasPrefix(raw, "From: noreply@example.com\r\n"))
	require.Contains(t, raw, "To: a@x.com\r\n")
	require.Contains(t, raw, "Subject: Logging In\r\n")
	require.Contains(t, raw, "Date: Fri, 02 Jan 2026 03:04:05 +0000\r\n")
	require.Contains(t, raw, "\r\n\r\nHello alice,")
	require.Equal(t, "smtp.example.com:587", n.addr)
	require.Nil(t, n.auth)
}
