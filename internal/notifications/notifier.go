package notifications

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/staffstore-backend/pkg/logger"
)

// Recorder counts notification outcomes. Implementations must accept concurrent calls.
type Recorder interface {
	EmailResult(outcome string)
	EventResult(outcome string)
}

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Notifier emails staff about fulfilled orders and optionally publishes an
// order event. It never returns an error; the caller only learns whether the
// email went out. Events are published in the background; Wait drains them.
type Notifier struct {
	sender    Sender
	publisher EventPublisher
	from      string
	to        string
	logg      *logger.Logger
	recorder  Recorder

	inflight sync.WaitGroup
}

type Options struct {
	Sender    Sender
	Publisher EventPublisher
	From      string
	To        string
	Logger    *logger.Logger
	Recorder  Recorder
}

func NewNotifier(opts Options) (*Notifier, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger required")
	}
	n := &Notifier{
		sender:   opts.Sender,
		from:     opts.From,
		to:       opts.To,
		logg:     opts.Logger,
		recorder: opts.Recorder,
	}
	// A typed nil *PubSubPublisher must not read as configured.
	if p, ok := opts.Publisher.(*PubSubPublisher); !ok || p != nil {
		n.publisher = opts.Publisher
	}
	return n, nil
}

// MailConfigured reports whether an SMTP transport is available.
func (n *Notifier) MailConfigured() bool {
	return n != nil && n.sender != nil && n.sender.Configured()
}

// Notify reports whether the order email was sent.
func (n *Notifier) Notify(ctx context.Context, order OrderNotification) bool {
	if n == nil {
		return false
	}
	ctx = n.logg.WithOrderID(ctx, order.OrderID.String())
	n.publishAsync(ctx, order)

	if !n.MailConfigured() {
		n.logg.Debug(ctx, "notifications.mail_skipped")
		n.emailResult(OutcomeSkipped)
		return false
	}

	email, err := RenderOrderEmail(order, n.from, n.to)
	if err != nil {
		n.logg.Error(ctx, "notifications.render_failed", err)
		n.emailResult(OutcomeFailed)
		return false
	}
	if err := n.sender.Send(ctx, email); err != nil {
		n.logg.Error(ctx, "notifications.mail_failed", err)
		n.emailResult(OutcomeFailed)
		return false
	}

	n.logg.Info(ctx, "notifications.mail_sent")
	n.emailResult(OutcomeSent)
	return true
}

// publishAsync hands the event to the publisher without holding up the
// caller. The publish outlives the request context; the publisher bounds it.
func (n *Notifier) publishAsync(ctx context.Context, order OrderNotification) {
	if n.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		if err := n.publisher.PublishOrderCreated(ctx, order); err != nil {
			n.logg.Error(ctx, "notifications.event_publish_failed", err)
			n.eventResult(OutcomeFailed)
			return
		}
		n.eventResult(OutcomeSent)
	}()
}

// Wait blocks until every background publish has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.inflight.Wait()
}

func (n *Notifier) emailResult(outcome string) {
	if n.recorder != nil {
		n.recorder.EmailResult(outcome)
	}
}

func (n *Notifier) eventResult(outcome string) {
	if n.recorder != nil {
		n.recorder.EventResult(outcome)
	}
}
