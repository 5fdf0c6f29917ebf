package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ChannelSender delivers notifications over one transport.
type ChannelSender interface {
	Send(ctx context.Context, n *Notification) error
	Name() string
}

// NotificationDispatcher routes notifications to registered channels.
type NotificationDispatcher struct {
	channels map[Channel]ChannelSender
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewNotificationDispatcher creates a dispatcher with no channels.
func NewNotificationDispatcher() *NotificationDispatcher {
	return &NotificationDispatcher{
		channels: make(map[Channel]ChannelSender),
		logger:   slog.Default(),
	}
}

// Register registers a channel sender.
func (d *NotificationDispatcher) Register(channel Channel, sender ChannelSender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[channel] = sender
	d.logger.Info("registered notification channel", "channel", channel, "sender", sender.Name())
}

// Channels returns the registered channel names.
func (d *NotificationDispatcher) Channels() []Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Channel, 0, len(d.channels))
	for c := range d.channels {
		out = append(out, c)
	}
	return out
}

// Send delivers n through channel.
func (d *NotificationDispatcher) Send(ctx context.Context, channel Channel, n *Notification) error {
	d.mu.RLock()
	sender, ok := d.channels[channel]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("channel not registered: %s", channel)
	}
	return sender.Send(ctx, n)
}

// LogSender writes notifications to the structured log.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log sender. A nil logger uses slog.Default.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, n *Notification) error {
	attrs := []any{
		"notification_id", n.ID,
		"kind", n.Kind,
		"target_id", n.TargetID,
		"title", n.Title,
		"trigger_at", n.TriggerAt,
	}
	if n.Phone != "" {
		attrs = append(attrs, "phone_number", n.Phone)
	}
	s.logger.Info("notification delivered", attrs...)
	return nil
}

// Name returns the sender name.
func (s *LogSender) Name() string {
	return "log"
}

// WebhookConfig holds webhook configuration.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
	Headers map[string]string
}

// WebhookSender posts notifications to an HTTP endpoint.
type WebhookSender struct {
	config     WebhookConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// WebhookPayload is the webhook request body.
type WebhookPayload struct {
	Event        string         `json:"event"`
	Notification *Notification  `json:"notification"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewWebhookSender creates a webhook sender.
func NewWebhookSender(config WebhookConfig) *WebhookSender {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &WebhookSender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: slog.Default(),
	}
}

// Send posts the notification.
func (s *WebhookSender) Send(ctx context.Context, n *Notification) error {
	payload := WebhookPayload{
		Event:        string(n.Kind) + ".triggered",
		Notification: n,
		Timestamp:    time.Now().UTC(),
		Metadata:     n.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.config.Secret != "" {
		req.Header.Set("X-Webhook-Secret", s.config.Secret)
	}
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("webhook request failed", "url", s.config.URL, "error", err)
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("webhook returned error",
			"url", s.config.URL,
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.Debug("webhook notification sent",
		"notification_id", n.ID,
		"url", s.config.URL,
		"status", resp.StatusCode,
	)
	return nil
}

// Name returns the sender name.
func (s *WebhookSender) Name() string {
	return "webhook"
}
