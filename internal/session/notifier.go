package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/metrics"
	"github.com/letsgobuy/storefront/internal/store"
)

// NATSSubject carries session change signals.
const NATSSubject = "evt.storefront.session.changed.v1"

// Signal announces that the session value changed in process Origin.
type Signal struct {
	Origin string    `json:"origin"`
	Scope  string    `json:"scope"`
	At     time.Time `json:"at"`
}

// Notifier carries change signals between processes sharing a Backend.
type Notifier interface {
	Notify(ctx context.Context, sig Signal) error
	// Listen delivers every received signal to fn until stop is called.
	Listen(ctx context.Context, fn func(Signal)) (stop func() error, err error)
}

// ─── Redis ────────────────────────────────────────────────────────────────────

// RedisNotifier publishes on storefront:session:<scope>:changed.
type RedisNotifier struct {
	store   store.Store
	channel string
	logger  *zap.Logger
}

func NewRedisNotifier(s store.Store, scope string, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{store: s, channel: fmt.Sprintf("storefront:session:%s:changed", scope), logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	if err := n.store.Publish(ctx, n.channel, data); err != nil {
		metrics.IncSessionNotification("redis", "error")
		return fmt.Errorf("publish session signal: %w", err)
	}
	metrics.IncSessionNotification("redis", "sent")
	return nil
}

func (n *RedisNotifier) Listen(ctx context.Context, fn func(Signal)) (func() error, error) {
	ch, stop, err := n.store.Subscribe(ctx, n.channel)
	if err != nil {
		return nil, err
	}
	go func() {
		for data := range ch {
			var sig Signal
			if err := json.Unmarshal(data, &sig); err != nil {
				n.logger.Warn("session.signal_decode_failed", zap.Error(err))
				continue
			}
			metrics.IncSessionNotification("redis", "received")
			fn(sig)
		}
	}()
	return stop, nil
}

// ─── NATS ─────────────────────────────────────────────────────────────────────

// NATSConn is the subset of *nats.Conn used by NATSNotifier.
type NATSConn interface {
	PublishMsg(m *nats.Msg) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// NATSNotifier publishes on NATSSubject. Signals for other scopes are ignored.
type NATSNotifier struct {
	nc      NATSConn
	scope   string
	service string
	logger  *zap.Logger
}

func NewNATSNotifier(nc NATSConn, scope, service string, logger *zap.Logger) *NATSNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSNotifier{nc: nc, scope: scope, service: service, logger: logger}
}

func (n *NATSNotifier) Notify(_ context.Context, sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: NATSSubject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{"session.changed"},
			"service":      []string{n.service},
			"content_type": []string{"application/json"},
			"scope":        []string{sig.Scope},
		},
	}
	if err := n.nc.PublishMsg(msg); err != nil {
		metrics.IncSessionNotification("nats", "error")
		return fmt.Errorf("publish session signal: %w", err)
	}
	metrics.IncSessionNotification("nats", "sent")
	return nil
}

func (n *NATSNotifier) Listen(_ context.Context, fn func(Signal)) (func() error, error) {
	sub, err := n.nc.Subscribe(NATSSubject, func(m *nats.Msg) {
		var sig Signal
		if err := json.Unmarshal(m.Data, &sig); err != nil {
			n.logger.Warn("session.signal_decode_failed", zap.Error(err))
			return
		}
		if sig.Scope != n.scope {
			return
		}
		metrics.IncSessionNotification("nats", "received")
		fn(sig)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", NATSSubject, err)
	}
	return func() error {
		if sub == nil {
			return nil
		}
		return sub.Unsubscribe()
	}, nil
}
