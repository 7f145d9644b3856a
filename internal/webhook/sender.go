// Package webhook delivers pool events to registered HTTP endpoints.
// Delivery is best-effort with bounded retry; a slow or dead endpoint
// never backs up the pool.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yiqunxu123/retail-pos-sub000/internal/config"
	"github.com/yiqunxu123/retail-pos-sub000/internal/db"
	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
)

type Payload struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	PrinterID string         `json:"printer_id,omitempty"`
	JobID     string         `json:"job_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Signature string         `json:"signature,omitempty"`
}

type task struct {
	hook    db.Webhook
	payload *Payload
	attempt int
}

type Sender struct {
	store      *db.Store
	httpClient *http.Client
	retryCount int
	retryDelay time.Duration
	queue      chan *task
	stopCh     chan struct{}
	workers    int
	wg         sync.WaitGroup
}

func NewSender(store *db.Store, cfg config.WebhooksConfig) *Sender {
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
		cfg.WorkerCount = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}

	return &Sender{
		store:      store,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
		queue:      make(chan *task, cfg.QueueSize),
		stopCh:     make(chan struct{}),
		workers:    cfg.WorkerCount,
	}
}

func (s *Sender) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// Attach subscribes the sender to the pool's event stream and returns
// the unsubscribe function.
func (s *Sender) Attach(p *pool.Pool) func() {
	return p.AddListener(s.handle)
}

func (s *Sender) handle(ev pool.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hooks, err := s.store.ListWebhooksForEvent(ctx, string(ev.Type))
	if err != nil {
		log.Warnf("Failed to load webhooks for event %s: %v", ev.Type, err)
		return
	}

	for _, hook := range hooks {
		t := &task{
			hook: hook,
			payload: &Payload{
				Event:     string(ev.Type),
				Timestamp: ev.Timestamp,
				PrinterID: ev.PrinterID,
				JobID:     ev.JobID,
				Data:      ev.Data,
			},
		}

		select {
		case s.queue <- t:
		default:
			log.WithFields(log.Fields{
				"webhook": hook.Name,
				"event":   ev.Type,
			}).Warn("Webhook queue full, dropping delivery")
		}
	}
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				log.WithFields(log.Fields{
					"worker":   id,
					"webhook":  t.hook.Name,
					"event":    t.payload.Event,
					"attempts": t.attempt,
				}).Warnf("Webhook delivery failed: %v", err)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(&t.hook, t.payload)
		if err == nil {
			return nil
		}
		lastErr = err

		// A 4xx means the endpoint rejected the payload; retrying the
		// same body will not help.
		if isClientError(err) {
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(hook *db.Webhook, payload *Payload) error {
	body, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if hook.Secret != "" {
		payload.Signature = sign(body, hook.Secret)
	}

	full, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(full))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}
	return nil
}

func sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "http error: 4")
}
