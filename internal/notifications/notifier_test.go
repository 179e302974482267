package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	configured bool
	err        error
	sent       []Email
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(ctx context.Context, email Email) error {
	f.sent = append(f.sent, email)
	return f.err
}

type fakePublisher struct {
	err   error
	calls int
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, n OrderNotification) error {
	f.calls++
	return f.err
}

type countingRecorder struct {
	mu     sync.Mutex
	emails map[string]int
	events map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{emails: map[string]int{}, events: map[string]int{}}
}

func (r *countingRecorder) EmailResult(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails[outcome]++
}

func (r *countingRecorder) EventResult(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[outcome]++
}

func TestNotifierSendsEmail(t *testing.T) {
	sender := &fakeSender{configured: true}
	rec := newCountingRecorder()
	n, err := NewNotifier(Options{Sender: sender, From: "from@x", To: "to@x", Logger: logger.Nop(), Recorder: rec})
	require.NoError(t, err)

	assert.True(t, n.Notify(context.Background(), sampleNotification()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "to@x", sender.sent[0].To)
	assert.Equal(t, 1, rec.emails[OutcomeSent])
}

func TestNotifierSwallowsSendFailure(t *testing.T) {
	sender := &fakeSender{configured: true, err: errors.New("smtp down")}
	rec := newCountingRecorder()
	n, err := NewNotifier(Options{Sender: sender, Logger: logger.Nop(), Recorder: rec})
	require.NoError(t, err)

	assert.False(t, n.Notify(context.Background(), sampleNotification()))
	assert.Equal(t, 1, rec.emails[OutcomeFailed])
}

func TestNotifierSkipsWhenMailNotConfigured(t *testing.T) {
	sender := &fakeSender{configured: false}
	n, err := NewNotifier(Options{Sender: sender, Logger: logger.Nop()})
	require.NoError(t, err)

	assert.False(t, n.MailConfigured())
	assert.False(t, n.Notify(context.Background(), sampleNotification()))
	assert.Empty(t, sender.sent)
}

func TestNotifierPublishFailureDoesNotAffectEmail(t *testing.T) {
	sender := &fakeSender{configured: true}
	pub := &fakePublisher{err: errors.New("topic gone")}
	rec := newCountingRecorder()
	n, err := NewNotifier(Options{Sender: sender, Publisher: pub, Logger: logger.Nop(), Recorder: rec})
	require.NoError(t, err)

	assert.True(t, n.Notify(context.Background(), sampleNotification()))
	n.Wait()
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, 1, rec.events[OutcomeFailed])
}

type slowPublisher struct {
	delay  time.Duration
	ctxErr error
	done   chan struct{}
}

func (s *slowPublisher) PublishOrderCreated(ctx context.Context, n OrderNotification) error {
	defer close(s.done)
	time.Sleep(s.delay)
	s.ctxErr = ctx.Err()
	return nil
}

func TestNotifierDoesNotWaitForEventPublish(t *testing.T) {
	pub := &slowPublisher{delay: 300 * time.Millisecond, done: make(chan struct{})}
	rec := newCountingRecorder()
	n, err := NewNotifier(Options{Publisher: pub, Logger: logger.Nop(), Recorder: rec})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	assert.False(t, n.Notify(ctx, sampleNotification()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	cancel()

	n.Wait()
	select {
	case <-pub.done:
	default:
		t.Fatal("publish did not run")
	}
	assert.NoError(t, pub.ctxErr, "publish must outlive the request context")
	assert.Equal(t, 1, rec.events[OutcomeSent])
}

func TestNotifierIgnoresTypedNilPublisher(t *testing.T) {
	var pub *PubSubPublisher
	n, err := NewNotifier(Options{Publisher: pub, Logger: logger.Nop()})
	require.NoError(t, err)
	assert.Nil(t, n.publisher)
	assert.False(t, n.Notify(context.Background(), sampleNotification()))
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Notify(context.Background(), sampleNotification()))
	assert.False(t, n.MailConfigured())
}

type fakeDialer struct {
	mu    sync.Mutex
	delay time.Duration
	err   error
	sent  int
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent += len(m)
	return f.err
}

func mailConfig() config.MailConfig {
	return config.MailConfig{Host: "smtp.example.com", Port: 587, User: "u", Password: "p", SendTimeout: time.Second}
}

func TestMailerBuildsDialerOnce(t *testing.T) {
	fd := &fakeDialer{}
	builds := 0
	m := NewMailer(mailConfig())
	m.newDial = func(cfg config.MailConfig) dialer {
		builds++
		return fd
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Send(context.Background(), Email{From: "a@x", To: "b@x", Subject: "s", Text: "t", HTML: "<p>t</p>"}))
	}
	assert.Equal(t, 1, builds)
	assert.Equal(t, 3, fd.sent)
}

func TestMailerNotConfigured(t *testing.T) {
	m := NewMailer(config.MailConfig{Host: "smtp.example.com"})
	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.Send(context.Background(), Email{}), ErrMailNotConfigured)
}

func TestMailerTimesOut(t *testing.T) {
	cfg := mailConfig()
	cfg.SendTimeout = 20 * time.Millisecond
	m := NewMailer(cfg)
	m.newDial = func(config.MailConfig) dialer { return &fakeDialer{delay: 500 * time.Millisecond} }

	start := time.Now()
	err := m.Send(context.Background(), Email{From: "a@x", To: "b@x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestMailerWrapsDialError(t *testing.T) {
	m := NewMailer(mailConfig())
	m.newDial = func(config.MailConfig) dialer { return &fakeDialer{err: errors.New("auth failed")} }
	err := m.Send(context.Background(), Email{From: "a@x", To: "b@x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth failed")
}

type stubResult struct {
	err error
}

func (r stubResult) Get(ctx context.Context) (string, error) { return "server-id", r.err }

type stubTopic struct {
	msgs []*gcppubsub.Message
	err  error
}

func (s *stubTopic) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	s.msgs = append(s.msgs, msg)
	return stubResult{err: s.err}
}

func TestPubSubPublisherEnvelope(t *testing.T) {
	topic := &stubTopic{}
	p := &PubSubPublisher{topic: topic, timeout: time.Second}
	n := sampleNotification()

	require.NoError(t, p.PublishOrderCreated(context.Background(), n))
	require.Len(t, topic.msgs, 1)

	msg := topic.msgs[0]
	assert.Equal(t, EventOrderCreated, msg.Attributes["event_type"])
	assert.Equal(t, n.OrderID.String(), msg.Attributes["aggregate_id"])

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, msg.Attributes["event_id"], env.EventID)

	var data OrderCreatedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, n.OrderID, data.OrderID)
	assert.Equal(t, "2598.00", data.Total)
}

func TestPubSubPublisherResultError(t *testing.T) {
	p := &PubSubPublisher{topic: &stubTopic{err: errors.New("unavailable")}, timeout: time.Second}
	err := p.PublishOrderCreated(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventOrderCreated)
}

func TestNewPubSubPublisherNil(t *testing.T) {
	assert.Nil(t, NewPubSubPublisher(nil))
}

type stoppableTopic struct {
	stubTopic
	stopped bool
}

func (s *stoppableTopic) Stop() { s.stopped = true }

func TestPubSubPublisherStop(t *testing.T) {
	topic := &stoppableTopic{}
	p := &PubSubPublisher{topic: topic, timeout: time.Second}
	p.Stop()
	assert.True(t, topic.stopped)

	var nilPub *PubSubPublisher
	assert.NotPanics(t, nilPub.Stop)
}
