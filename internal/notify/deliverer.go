package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

const (
	queueSize       = 256
	deliveryWorkers = 2
	maxAttempts     = 3
	retryBackoff    = 2 * time.Second

	// SignatureHeader carries the hex HMAC-SHA256 of the request body,
	// keyed with the webhook's secret.
	SignatureHeader = "X-RTCC-Signature"
	// TopicHeader carries the event topic so receivers can route
	// without parsing the body.
	TopicHeader = "X-RTCC-Topic"
)

// payload is the JSON body posted to webhook endpoints.
type payload struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Deliverer fans bus events out to registered webhooks. Events are
// queued and delivered by a small worker pool so slow endpoints never
// block the event bus.
type Deliverer struct {
	store   *Store
	client  *http.Client
	logger  *zap.Logger
	queue   chan plugin.Event
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	backoff time.Duration
}

// NewDeliverer creates a Deliverer. timeout bounds each HTTP attempt.
func NewDeliverer(store *Store, timeout time.Duration, logger *zap.Logger) *Deliverer {
	return &Deliverer{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		queue:   make(chan plugin.Event, queueSize),
		backoff: retryBackoff,
	}
}

// Enqueue queues an event for delivery. Drops the event when the queue
// is full rather than blocking the caller.
func (d *Deliverer) Enqueue(event plugin.Event) {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("delivery queue full, dropping event",
			zap.String("topic", event.Topic))
	}
}

// Start launches the delivery workers.
func (d *Deliverer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	for i := 0; i < deliveryWorkers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop drains the workers. Queued events that have not started
// delivering are discarded.
func (d *Deliverer) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Deliverer) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue:
			d.dispatch(ctx, event)
		}
	}
}

func (d *Deliverer) dispatch(ctx context.Context, event plugin.Event) {
	hooks, err := d.store.ListForTopic(ctx, event.Topic)
	if err != nil {
		d.logger.Error("failed to list webhooks", zap.Error(err))
		return
	}

	body, err := json.Marshal(payload{
		Topic:     event.Topic,
		Source:    event.Source,
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	})
	if err != nil {
		d.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	for _, wh := range hooks {
		status := "delivered"
		if err := d.deliver(ctx, wh, event.Topic, body); err != nil {
			status = "failed: " + err.Error()
			d.logger.Warn("webhook delivery failed",
				zap.String("webhook", wh.ID),
				zap.String("topic", event.Topic),
				zap.Error(err))
		}
		if err := d.store.RecordAttempt(ctx, wh.ID, status); err != nil {
			d.logger.Error("failed to record delivery attempt", zap.Error(err))
		}
	}
}

func (d *Deliverer) deliver(ctx context.Context, wh Webhook, topic string, body []byte) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.backoff):
			}
		}
		lastErr = d.post(ctx, wh, topic, body)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (d *Deliverer) post(ctx context.Context, wh Webhook, topic string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TopicHeader, topic)
	if wh.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(wh.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of body with the given secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
