// Package webhook delivers job outcome notifications to the endpoints
// listed in the configuration.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/orrn/ptouch/internal/clock"
	"github.com/orrn/ptouch/internal/config"
)

type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventJobTimedOut  Event = "job_timed_out"
)

type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Signature string    `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID        string `json:"job_id"`
	IPPJobID     int    `json:"ipp_job_id,omitempty"`
	PrinterName  string `json:"printer_name,omitempty"`
	PrinterURI   string `json:"printer_uri"`
	State        string `json:"state"`
	Attempts     int    `json:"attempts,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
}

type task struct {
	endpoint config.WebhookEndpoint
	payload  *Payload
	attempt  int
}

type httpError struct {
	status int
}

func (e *httpError) Error() string { return fmt.Sprintf("http error: %d", e.status) }

type Sender struct {
	endpoints   []config.WebhookEndpoint
	httpClient  *http.Client
	clock       clock.Clock
	logger      *slog.Logger
	retryCount  int
	retryDelay  time.Duration
	workerCount int
	queue       chan *task
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

type Option func(*Sender)

func WithClock(c clock.Clock) Option {
	return func(s *Sender) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) { s.logger = l }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(s *Sender) { s.httpClient = hc }
}

func NewSender(cfg config.WebhooksConfig, opts ...Option) *Sender {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}

	s := &Sender{
		endpoints:   cfg.Endpoints,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		clock:       clock.Real(),
		retryCount:  cfg.RetryCount,
		retryDelay:  cfg.RetryDelay,
		workerCount: cfg.WorkerCount,
		queue:       make(chan *task, cfg.QueueSize),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

func (s *Sender) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop delivers what is already queued, then stops the workers.
func (s *Sender) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Send queues data for every endpoint subscribed to event. It never
// blocks; a full queue drops the notification.
func (s *Sender) Send(event Event, data *JobEventData) {
	for _, ep := range s.endpoints {
		if !subscribed(ep, event) {
			continue
		}
		t := &task{
			endpoint: ep,
			payload: &Payload{
				Event:     string(event),
				Timestamp: s.clock.Now().UTC(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			s.logger.Warn("webhook queue full, dropping event", "url", ep.URL, "event", event)
		}
	}
}

// subscribed treats an empty event list as all events.
func subscribed(ep config.WebhookEndpoint, event Event) bool {
	if len(ep.Events) == 0 {
		return true
	}
	for _, e := range ep.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case t := <-s.queue:
			s.deliver(id, t)
		case <-s.stopCh:
			for {
				select {
				case t := <-s.queue:
					s.deliver(id, t)
				default:
					return
				}
			}
		}
	}
}

func (s *Sender) deliver(worker int, t *task) {
	if err := s.sendWithRetry(t); err != nil {
		s.logger.Error("webhook delivery failed",
			"worker", worker,
			"url", t.endpoint.URL,
			"event", t.payload.Event,
			"attempts", t.attempt,
			"error", err)
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(t.endpoint, t.payload)
		if err == nil {
			return nil
		}
		lastErr = err

		var he *httpError
		if errors.As(err, &he) && he.status >= 400 && he.status < 500 {
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			s.logger.Debug("retrying webhook", "url", t.endpoint.URL, "attempt", t.attempt, "backoff", backoff, "error", err)
			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested: %w", lastErr)
			case <-s.clock.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(ep config.WebhookEndpoint, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	signature := ""
	if ep.Secret != "" {
		signature = Sign(dataBytes, ep.Secret)
	}
	body := *payload
	body.Signature = signature

	fullPayload, err := json.Marshal(&body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, ep.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", payload.Event)
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &httpError{status: resp.StatusCode}
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
