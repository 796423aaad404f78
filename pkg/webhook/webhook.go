// Package webhook provides HTTP webhook notification support for fsnap events.
package webhook

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

	"github.com/google/uuid"

	"github.com/jvs-project/fsnap/pkg/config"
	"github.com/jvs-project/fsnap/pkg/logging"
)

// EventType represents the type of fsnap event that can trigger webhooks.
type EventType string

const (
	EventSnapshotRecorded EventType = "snapshot.recorded"
	EventChangesDetected  EventType = "changes.detected"
	EventCaptureFailed    EventType = "capture.failed"
)

// Event represents an fsnap event payload sent to webhooks.
type Event struct {
	Event      EventType      `json:"event"`
	Timestamp  string         `json:"timestamp"`
	Root       string         `json:"root,omitempty"`
	SnapshotID string         `json:"snapshot_id,omitempty"`
	Files      int            `json:"files,omitempty"`
	Added      int            `json:"added,omitempty"`
	Removed    int            `json:"removed,omitempty"`
	Modified   int            `json:"modified,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// HookConfig represents a single webhook configuration.
type HookConfig struct {
	URL     string
	Secret  string
	Events  []EventType
	Timeout time.Duration
	Enabled bool
}

// Config represents the webhook configuration.
type Config struct {
	Hooks          []HookConfig
	Enabled        bool
	MaxRetries     int
	RetryDelay     time.Duration
	AsyncQueueSize int
}

// DefaultConfig returns the default webhook configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxRetries:     3,
		RetryDelay:     5 * time.Second,
		AsyncQueueSize: 100,
	}
}

// FromConfig converts the webhooks section of a config file.
func FromConfig(wc config.WebhooksConfig) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = wc.Enabled
	cfg.MaxRetries = wc.MaxRetries
	cfg.RetryDelay = wc.RetryDelayDuration()
	for _, h := range wc.Hooks {
		events := make([]EventType, 0, len(h.Events))
		for _, e := range h.Events {
			events = append(events, EventType(e))
		}
		cfg.Hooks = append(cfg.Hooks, HookConfig{
			URL:     h.URL,
			Secret:  h.Secret,
			Events:  events,
			Timeout: h.TimeoutDuration(),
			Enabled: h.Enabled,
		})
	}
	return cfg
}

// Client handles sending webhook notifications.
type Client struct {
	config *Config
	http   *http.Client
	queue  chan *job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	mu     sync.RWMutex
	closed bool
	log    *logging.Logger
}

type job struct {
	event Event
	hook  HookConfig
}

// NewClient creates a new webhook client.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncQueueSize <= 0 {
		cfg.AsyncQueueSize = DefaultConfig().AsyncQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		queue:  make(chan *job, cfg.AsyncQueueSize),
		ctx:    ctx,
		cancel: cancel,
		log:    logging.WithFields(map[string]any{"component": "webhook"}),
	}

	if cfg.Enabled {
		c.start()
	}

	return c
}

func (c *Client) start() {
	c.once.Do(func() {
		c.wg.Add(1)
		go c.worker()
	})
}

// worker processes queued deliveries until Close, then drains the queue.
func (c *Client) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			for {
				select {
				case j := <-c.queue:
					c.send(j)
				default:
					return
				}
			}
		case j := <-c.queue:
			c.send(j)
		}
	}
}

// Send sends an event to all matching webhooks.
// If async is true, the event is queued for background sending and Send
// never blocks; a full queue drops the delivery with a warning.
func (c *Client) Send(event Event, async bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.config.Enabled || c.closed {
		return nil
	}

	hooks := c.matchingHooks(event.Event)
	if len(hooks) == 0 {
		return nil
	}

	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if async {
		for _, hook := range hooks {
			select {
			case c.queue <- &job{event: event, hook: hook}:
			default:
				c.log.Warn("webhook queue full, dropping event", map[string]any{
					"event": string(event.Event),
					"url":   hook.URL,
				})
			}
		}
		return nil
	}

	var lastErr error
	for _, hook := range hooks {
		if err := c.sendSync(&job{event: event, hook: hook}); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) matchingHooks(event EventType) []HookConfig {
	var hooks []HookConfig
	for _, hook := range c.config.Hooks {
		if hook.Enabled && matchesEvent(hook, event) {
			hooks = append(hooks, hook)
		}
	}
	return hooks
}

func (c *Client) send(j *job) {
	if err := c.sendSync(j); err != nil {
		c.log.Error("webhook delivery failed", map[string]any{
			"event": string(j.event.Event),
			"url":   j.hook.URL,
			"error": err.Error(),
		})
	}
}

// sendSync delivers one job, retrying up to MaxRetries times. Every attempt
// carries the same delivery ID so receivers can deduplicate.
func (c *Client) sendSync(j *job) error {
	payload, err := json.Marshal(j.event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	deliveryID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-c.ctx.Done():
				return fmt.Errorf("webhook %s: %w (last error: %v)", j.hook.URL, c.ctx.Err(), lastErr)
			case <-time.After(c.config.RetryDelay):
			}
		}

		lastErr = c.attempt(j, payload, deliveryID)
		if lastErr == nil {
			return nil
		}
		c.log.Debug("webhook attempt failed", map[string]any{
			"url":      j.hook.URL,
			"attempt":  attempt + 1,
			"delivery": deliveryID,
			"error":    lastErr.Error(),
		})
	}

	return lastErr
}

func (c *Client) attempt(j *job, payload []byte, deliveryID string) error {
	ctx := context.Background()
	if j.hook.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.hook.Timeout)
		defer cancel()
	}

	req, err := c.createRequest(ctx, j.hook, j.event.Event, payload, deliveryID)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
}

func (c *Client) createRequest(ctx context.Context, hook HookConfig, event EventType, payload []byte, deliveryID string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "fsnap-webhook/1.0")
	req.Header.Set("X-Fsnap-Event", string(event))
	req.Header.Set("X-Fsnap-Delivery", deliveryID)

	if hook.Secret != "" {
		req.Header.Set("X-Fsnap-Signature", Sign(payload, hook.Secret))
	}

	return req, nil
}

// Sign returns the "sha256=<hex>" HMAC-SHA256 signature of payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func matchesEvent(hook HookConfig, event EventType) bool {
	for _, e := range hook.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// Close stops accepting events and waits for queued deliveries to finish.
// Retries still pending are abandoned.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed || !c.config.Enabled {
		c.closed = true
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

// SendSnapshotRecorded sends a snapshot.recorded event.
func (c *Client) SendSnapshotRecorded(root, snapshotID string, files int, async bool) error {
	return c.Send(Event{
		Event:      EventSnapshotRecorded,
		Root:       root,
		SnapshotID: snapshotID,
		Files:      files,
	}, async)
}

// SendChangesDetected sends a changes.detected event.
func (c *Client) SendChangesDetected(root, snapshotID string, added, removed, modified int, async bool) error {
	return c.Send(Event{
		Event:      EventChangesDetected,
		Root:       root,
		SnapshotID: snapshotID,
		Added:      added,
		Removed:    removed,
		Modified:   modified,
	}, async)
}

// SendCaptureFailed sends a capture.failed event.
func (c *Client) SendCaptureFailed(root, errMsg string, async bool) error {
	return c.Send(Event{
		Event: EventCaptureFailed,
		Root:  root,
		Error: errMsg,
	}, async)
}
