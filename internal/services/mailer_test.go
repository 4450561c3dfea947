package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_DeliversEnqueuedMessage(t *testing.T) {
	sender := &MockEmailSender{}
	mailer := NewMailer(sender, testLogger())
	mailer.Start(context.Background())

	ok := mailer.Enqueue(EmailMessage{To: "a@campus.edu", Subject: "hello", TextBody: "hi"})
	assert.True(t, ok)

	mailer.Stop()
	require.Equal(t, 1, sender.SentCount())
	assert.Equal(t, "a@campus.edu", sender.Sent[0].To)
}

func TestMailer_RetriesThenSucceeds(t *testing.T) {
	// deliver backs off between attempts; use a direct call so the test does
	// not wait on wall-clock backoff through the worker loop.
	sender := &MockEmailSender{
		FailTimes: mailerMaxAttempts - 1,
		SendErr:   errors.New("transient smtp failure"),
	}
	mailer := NewMailer(sender, testLogger())

	done := make(chan struct{})
	go func() {
		mailer.deliver(context.Background(), EmailMessage{To: "a@campus.edu"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Equal(t, 1, sender.SentCount())
}

func TestMailer_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &MockEmailSender{
		FailTimes: mailerMaxAttempts,
		SendErr:   errors.New("permanent failure"),
	}
	mailer := NewMailer(sender, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mailer.deliver(ctx, EmailMessage{To: "a@campus.edu"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("delivery did not finish")
	}
	cancel()
	assert.Equal(t, 0, sender.SentCount())
}

func TestMailer_EnqueueDropsWhenFull(t *testing.T) {
	// Never started: the queue fills and further messages are dropped
	// without blocking the caller.
	mailer := NewMailer(&MockEmailSender{}, testLogger())

	for i := 0; i < mailerQueueSize; i++ {
		require.True(t, mailer.Enqueue(EmailMessage{To: "a@campus.edu"}))
	}
	assert.False(t, mailer.Enqueue(EmailMessage{To: "overflow@campus.edu"}))
}

func TestMailer_StopIsIdempotent(t *testing.T) {
	mailer := NewMailer(&MockEmailSender{}, testLogger())
	mailer.Start(context.Background())

	mailer.Stop()
	assert.NotPanics(t, func() { mailer.Stop() })
}
