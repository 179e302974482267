package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrUnavailable marks failures to obtain a usable connection.
var ErrUnavailable = errors.New("store unavailable")

// Provider hands out the shared client, connecting on first use.
type Provider interface {
	Client(ctx context.Context) (*Client, error)
}

// OpenFunc establishes a new client.
type OpenFunc func(ctx context.Context) (*Client, error)

// Lazy is the process-wide store handle. At most one connection attempt is in
// flight; every caller arriving while it runs receives its outcome. A failed
// attempt is not cached, so the next call tries again.
type Lazy struct {
	open      OpenFunc
	onConnect []func(ctx context.Context, c *Client) error

	connecting singleflight.Group

	mu     sync.Mutex
	client *Client
}

const connectKey = "connect"

// NewLazy builds a Lazy handle around open. Hooks run in registration order
// after a successful connection; a hook error closes the connection so the
// next caller starts over.
func NewLazy(open OpenFunc, onConnect ...func(ctx context.Context, c *Client) error) *Lazy {
	return &Lazy{open: open, onConnect: onConnect}
}

// Client returns the shared client, joining or starting a connection attempt
// when there is none. The wait ends early when ctx is done; the attempt itself
// keeps running for the other callers.
func (l *Lazy) Client(ctx context.Context) (*Client, error) {
	if client := l.current(); client != nil {
		return client, nil
	}

	ch := l.connecting.DoChan(connectKey, func() (any, error) {
		if client := l.current(); client != nil {
			return client, nil
		}
		return l.connect(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Client), nil
	}
}

func (l *Lazy) connect(ctx context.Context) (*Client, error) {
	client, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	for _, hook := range l.onConnect {
		if err := hook(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	l.mu.Lock()
	l.client = client
	l.mu.Unlock()
	return client, nil
}

func (l *Lazy) current() *Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client
}

// WithTx resolves the client and runs fn in a transaction on it.
func (l *Lazy) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	client, err := l.Client(ctx)
	if err != nil {
		return err
	}
	return client.WithTx(ctx, fn)
}

// Connected reports whether a connection has been established, without dialing.
func (l *Lazy) Connected() bool {
	return l.current() != nil
}

// Close releases the connection if one was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil {
		return nil
	}
	err := l.client.Close()
	l.client = nil
	return err
}
