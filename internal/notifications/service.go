package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"inkflow/internal/config"
)

const userAgent = "inkflow/0.1.0"

// Event enumerates the notifications the pipeline emits.
type Event string

const (
	EventCoverageRejected  Event = "coverage_rejected"
	EventCoverageMalformed Event = "coverage_malformed"
	EventInternalError     Event = "internal_error"
	EventBatchCompleted    Event = "batch_completed"
	EventTest              Event = "test"
)

// Payload carries event fields. Keys are documented per event in format.go.
type Payload map[string]any

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when at least
// one distribution list is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil || len(cfg.Notifications.Lists) == 0 {
		return noopService{}
	}
	n := cfg.Notifications
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	topics := make(map[string]string, len(n.Lists))
	for name, topic := range n.Lists {
		topics[strings.ToLower(name)] = topic
	}
	return &ntfyService{
		server:        strings.TrimRight(n.Server, "/"),
		token:         n.Token,
		topics:        topics,
		failureList:   strings.ToLower(n.FailureList),
		errorList:     strings.ToLower(n.ErrorList),
		parseFailures: n.ParseFailures,
		client:        &http.Client{Timeout: timeout},
	}
}

type ntfyService struct {
	server        string
	token         string
	topics        map[string]string
	failureList   string
	errorList     string
	parseFailures bool
	client        *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if event == EventCoverageMalformed && !n.parseFailures {
		return nil
	}
	data, ok := format(event, payload)
	if !ok {
		return nil
	}
	var errs []string
	for _, topic := range n.route(event) {
		if err := n.send(ctx, topic, data); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("ntfy: %s", strings.Join(errs, "; "))
	}
	return nil
}

// route resolves an event to the topics of its distribution lists.
func (n *ntfyService) route(event Event) []string {
	var lists []string
	switch event {
	case EventCoverageRejected, EventCoverageMalformed:
		lists = []string{n.failureList}
	case EventInternalError, EventBatchCompleted:
		lists = []string{n.errorList}
	case EventTest:
		for name := range n.topics {
			lists = append(lists, name)
		}
		sort.Strings(lists)
	}
	topics := make([]string, 0, len(lists))
	seen := make(map[string]struct{}, len(lists))
	for _, list := range lists {
		topic, ok := n.topics[list]
		if !ok {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}

func (n *ntfyService) endpoint(topic string) string {
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return n.server + "/" + strings.TrimLeft(topic, "/")
}

func (n *ntfyService) send(ctx context.Context, topic string, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint(topic), strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
