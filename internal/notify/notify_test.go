package notify

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/logger"
)

type fakeSender struct {
	failures int
	calls    int
	subject  string
	body     string
	to       []string
}

func (f *fakeSender) Send(ctx context.Context, to []string, subject, body string) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("451 temporary failure")
	}
	f.to, f.subject, f.body = to, subject, body
	return nil
}

func smtpConfig() config.SMTPConfig {
	return config.SMTPConfig{Server: "smtp.example.com", From: "bot@example.com", To: "a@example.com, b@example.com", Retries: 3}
}

func TestNotifier_RetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2}
	n := New(smtpConfig(), sender, logger.NewNop())

	require.NoError(t, n.Notify(context.Background(), "subject", "body"))
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.to)
}

func TestNotifier_Exhausted(t *testing.T) {
	sender := &fakeSender{failures: 10}
	n := New(smtpConfig(), sender, logger.NewNop())

	err := n.Notify(context.Background(), "subject", "body")
	require.Error(t, err)
	assert.True(t, contracts.IsKind(err, contracts.KindNotificationFailure))
	assert.Equal(t, 3, sender.calls)
}

func TestNotifier_Disabled(t *testing.T) {
	n := New(config.SMTPConfig{}, nil, nil)
	assert.False(t, n.Enabled())
	assert.ErrorIs(t, n.Notify(context.Background(), "s", "b"), ErrDisabled)

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())

	// configured relay builds an SMTP sender
	n = New(smtpConfig(), nil, nil)
	assert.True(t, n.Enabled())
	assert.IsType(t, &SMTPSender{}, n.sender)
}

func TestParseRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, ParseRecipients(" a@x.com,, b@x.com "))
	assert.Empty(t, ParseRecipients(""))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("bot@example.com", []string{"a@example.com"}, "Stock analysis result - now", "line1\nline2"))
	assert.Contains(t, msg, "From: bot@example.com\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))
}

func TestBuyMessage(t *testing.T) {
	at := time.Date(2024, 3, 8, 15, 30, 5, 0, time.UTC)
	snap := contracts.Snapshot{Symbol: "sh600519", Name: "贵州茅台"}

	subject, body := BuyMessage(at, snap, 82.456, 12)
	assert.Equal(t, "Stock analysis result - 2024-03-08 15:30:05", subject)
	assert.Contains(t, body, "Candidate: sh600519 score: 82.46 name: (贵州茅台)")
	assert.Contains(t, body, "Failed symbols: 12")
}

func TestValidationMessage(t *testing.T) {
	report := &contracts.ValidationReport{NotDue: 1}
	report.Add(contracts.ValidationResult{
		Symbol: "sz000001", Name: "平安银行", PredictionDate: "2024-03-08", InitialPrice: 10,
		TargetDate: "2024-03-15", FinalPrice: 10.3, ChangePct: 3, Predicted: contracts.TrendUp, Accurate: true,
	})

	subject, body := ValidationMessage(time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), report)
	assert.Equal(t, "Prediction validation result - 2024-03-15 18:00:00", subject)
	assert.Contains(t, body, "Symbol: sz000001 (平安银行)")
	assert.Contains(t, body, "Change: 3.00%")
	assert.Contains(t, body, "Predicted: up -> ACCURATE")
	assert.Contains(t, body, "Accuracy: 100.00%")
	assert.Contains(t, body, "Skipped: 1 not due, 0 without price")
}

// plainRelay is a loopback SMTP server without STARTTLS
type plainRelay struct {
	ln       net.Listener
	mu       sync.Mutex
	commands []string
}

func newPlainRelay(t *testing.T) *plainRelay {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &plainRelay{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go r.serve(conn)
		}
	}()
	return r
}

func (r *plainRelay) serve(conn net.Conn) {
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	reply := func(line string) {
		_, _ = rw.WriteString(line + "\r\n")
		_ = rw.Flush()
	}

	reply("220 localhost ESMTP")
	inData := false
	for {
		line, err := rw.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if inData {
			if line == "." {
				inData = false
				reply("250 queued")
			}
			continue
		}

		r.mu.Lock()
		r.commands = append(r.commands, line)
		r.mu.Unlock()

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			reply("250-localhost")
			reply("250 AUTH PLAIN")
		case "DATA":
			inData = true
			reply("354 end with .")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func (r *plainRelay) config() config.SMTPConfig {
	port := r.ln.Addr().(*net.TCPAddr).Port
	return config.SMTPConfig{Server: "127.0.0.1", Port: port, From: "bot@example.com", To: "a@example.com", Retries: 3}
}

func (r *plainRelay) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func TestSMTPSender_PlainRelayWithoutCredentials(t *testing.T) {
	relay := newPlainRelay(t)
	sender := NewSMTPSender(relay.config())

	require.NoError(t, sender.Send(context.Background(), []string{"a@example.com"}, "subject", "body"))
	assert.Contains(t, relay.seen(), "MAIL FROM:<bot@example.com>")
}

func TestSMTPSender_RefusesCredentialsWithoutStartTLS(t *testing.T) {
	relay := newPlainRelay(t)
	cfg := relay.config()
	cfg.User, cfg.Password = "bot", "secret"

	err := NewSMTPSender(cfg).Send(context.Background(), []string{"a@example.com"}, "subject", "body")
	require.ErrorIs(t, err, ErrInsecureTransport)
	for _, cmd := range relay.seen() {
		assert.False(t, strings.HasPrefix(strings.ToUpper(cmd), "AUTH"), "credentials sent: %s", cmd)
	}

	// misconfiguration is not retried
	n := New(cfg, nil, logger.NewNop())
	err = n.Notify(context.Background(), "subject", "body")
	assert.True(t, contracts.IsKind(err, contracts.KindNotificationFailure))
	assert.ErrorIs(t, err, ErrInsecureTransport)

	ehlo := 0
	for _, cmd := range relay.seen() {
		if strings.HasPrefix(cmd, "EHLO") {
			ehlo++
		}
	}
	assert.Equal(t, 2, ehlo)
}
