package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorstation/editorial/internal/metrics"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Payload is what the automation webhook receives for one published post.
type Payload struct {
	RequestID   string            `json:"request_id"`
	CandidateID string            `json:"candidate_id"`
	DraftID     string            `json:"draft_id"`
	PostID      string            `json:"post_id"`
	Slug        string            `json:"slug"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle"`
	ImageURL    string            `json:"image_url"`
	Channels    map[string]string `json:"channels"`
	Routes      []Route           `json:"routes"`
}

type DispatcherOptions struct {
	QueueSize int
	// MaxRetries defaults to 3; a negative value disables retries.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

func (o DispatcherOptions) withDefaults() DispatcherOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = 10 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

// Dispatcher delivers payloads to the automation webhook from a single
// background worker. Submit never blocks; outcomes are only logged.
type Dispatcher struct {
	client   *resty.Client
	url      string
	token    string
	executor failsafe.Executor[*resty.Response]
	timeout  time.Duration
	budget   time.Duration
	logger   *logrus.Logger

	mu     sync.Mutex
	closed bool
	queue  chan Payload
	done   chan struct{}

	// OnDelivered, when set, observes every finished delivery.
	OnDelivered func(p Payload, err error)
}

func NewDispatcher(client *resty.Client, url, token string, logger *logrus.Logger, opts DispatcherOptions) *Dispatcher {
	opts = opts.withDefaults()
	if client == nil {
		client = resty.New()
	}
	retry := retrypolicy.NewBuilder[*resty.Response]().
		WithBackoff(opts.BaseDelay, opts.MaxDelay).
		WithMaxRetries(opts.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && (resp.StatusCode() >= 500 || resp.StatusCode() == 429)
		}).
		Build()

	return &Dispatcher{
		client:   client,
		url:      url,
		token:    token,
		executor: failsafe.With[*resty.Response](retry),
		timeout:  opts.Timeout,
		budget:   opts.Timeout*time.Duration(opts.MaxRetries+1) + opts.MaxDelay*time.Duration(opts.MaxRetries),
		logger:   logger,
		queue:    make(chan Payload, opts.QueueSize),
		done:     make(chan struct{}),
	}
}

// Enabled reports whether a webhook is configured at all.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.url != ""
}

// Start runs the worker until Close drains the queue.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for p := range d.queue {
			d.deliver(p)
		}
	}()
}

// Submit enqueues p without blocking. It reports false when the payload was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(p Payload) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.WithField("post_id", p.PostID).Warn("dispatch dropped: dispatcher closed")
		metrics.Dispatches.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case d.queue <- p:
		return true
	default:
		d.logger.WithField("post_id", p.PostID).Warn("dispatch dropped: queue full")
		metrics.Dispatches.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close stops accepting payloads and waits for queued ones, bounded by ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(p Payload) {
	ctx, cancel := context.WithTimeout(context.Background(), d.budget)
	defer cancel()

	start := time.Now()
	resp, err := d.executor.WithContext(ctx).Get(func() (*resty.Response, error) {
		attemptCtx, cancelAttempt := context.WithTimeout(ctx, d.timeout)
		defer cancelAttempt()
		req := d.client.R().
			SetContext(attemptCtx).
			SetHeader("Content-Type", "application/json").
			SetHeader("Idempotency-Key", p.PostID).
			SetBody(p)
		if d.token != "" {
			req.SetAuthToken(d.token)
		}
		return req.Post(d.url)
	})
	if err == nil && resp != nil && resp.IsError() {
		err = fmt.Errorf("webhook returned %s", resp.Status())
	}

	entry := d.logger.WithFields(logrus.Fields{
		"request_id":  p.RequestID,
		"post_id":     p.PostID,
		"routes":      len(p.Routes),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("social dispatch failed")
		metrics.Dispatches.WithLabelValues("failed").Inc()
	} else {
		entry.Info("social dispatch delivered")
		metrics.Dispatches.WithLabelValues("delivered").Inc()
	}
	if d.OnDelivered != nil {
		d.OnDelivered(p, err)
	}
}
