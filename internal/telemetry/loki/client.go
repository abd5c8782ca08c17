// Package loki pushes telemetry log lines to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	pushPath   = "/loki/api/v1/push"
	defaultJob = "carelink"
)

// Loki label names must match [a-zA-Z_:][a-zA-Z0-9_:]*; values are sanitized
// to the same safe set.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// Client pushes log entries to a Loki instance.
type Client struct {
	baseURL string
	job     string
	http    *http.Client
}

// NewClient returns a Client for the Loki instance at baseURL
// (e.g. http://localhost:3100). Entries carry the stream label job=carelink.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		job:     defaultJob,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// pushRequest is the Loki push API v1 body.
type pushRequest struct {
	Streams []stream `json:"streams"`
}

// stream carries labels plus [timestamp_ns, line] pairs.
type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// eventFields is the subset of a telemetry event used for labels and the
// entry timestamp.
type eventFields struct {
	EventType string `json:"event_type"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// PushEventJSON pushes one telemetry event (a Kafka message value) to Loki,
// labeling the stream from the event's type and source. A line that fails to
// parse is still pushed raw, stamped with the current time.
func (c *Client) PushEventJSON(ctx context.Context, rawJSON []byte) error {
	ts := time.Now().UTC()
	labels := map[string]string{}

	var fields eventFields
	if err := json.Unmarshal(rawJSON, &fields); err == nil {
		if fields.EventType != "" {
			labels["event_type"] = fields.EventType
		}
		if fields.Source != "" {
			labels["source"] = fields.Source
		}
		if t, err := time.Parse(time.RFC3339Nano, fields.CreatedAt); err == nil {
			ts = t
		}
	}
	return c.Push(ctx, ts, string(rawJSON), labels)
}

// Push sends a single log line with the given stream labels. It returns an
// error when the request fails or Loki responds non-2xx.
func (c *Client) Push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	if c.baseURL == "" {
		return fmt.Errorf("loki: base URL is empty")
	}

	streamLabels := map[string]string{"job": c.job}
	for name, value := range labels {
		clean := labelSanitize.ReplaceAllString(strings.TrimSpace(value), "_")
		if clean != "" {
			streamLabels[name] = clean
		}
	}

	payload, err := json.Marshal(pushRequest{Streams: []stream{{
		Stream: streamLabels,
		Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
	}}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pushPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
