// Package notify pushes report summaries to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devpulse/devpulse/internal/pulseerr"
)

// Notifier delivers a rendered message to one channel.
type Notifier interface {
	Send(ctx context.Context, title, markdownBody string, atMentions []string) error
}

// WebhookNotifier posts Markdown messages to a JSON webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhook builds a webhook notifier. The URL must be set.
func NewWebhook(url string) (*WebhookNotifier, error) {
	if url == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "notify webhook URL is empty")
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type webhookPayload struct {
	MsgType  string          `json:"msgtype"`
	Markdown webhookMarkdown `json:"markdown"`
	At       *webhookAt      `json:"at,omitempty"`
}

type webhookMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type webhookAt struct {
	Mobiles []string `json:"atMobiles,omitempty"`
	All     bool     `json:"isAtAll,omitempty"`
}

// Send posts the message. Non-2xx responses are transport errors.
func (n *WebhookNotifier) Send(ctx context.Context, title, markdownBody string, atMentions []string) error {
	payload := webhookPayload{
		MsgType:  "markdown",
		Markdown: webhookMarkdown{Title: title, Text: markdownBody},
	}
	if len(atMentions) > 0 {
		payload.At = &webhookAt{Mobiles: atMentions}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pulseerr.WrapErr(pulseerr.ErrData, err, "encode webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return pulseerr.WrapErr(pulseerr.ErrTransport, err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return pulseerr.WrapErr(pulseerr.ErrTransport, err, "post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return pulseerr.Wrap(pulseerr.ErrTransport, "webhook returned %d: %s", resp.StatusCode, excerpt)
	}
	logrus.WithField("title", title).Info("notification sent")
	return nil
}

// Summary formats a key-metric digest suitable for a chat message.
func Summary(title string, metrics KeyMetrics) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "- Commits: %d\n", metrics.Commits)
	fmt.Fprintf(&b, "- Developers: %d\n", metrics.Developers)
	fmt.Fprintf(&b, "- Repositories: %d\n", metrics.Repositories)
	fmt.Fprintf(&b, "- Net lines: %+d\n", metrics.NetLines)
	if metrics.HealthScore > 0 {
		fmt.Fprintf(&b, "- Health score: %d\n", metrics.HealthScore)
	}
	if abnormal := metrics.Overtime + metrics.LateNight + metrics.Weekend; abnormal > 0 {
		fmt.Fprintf(&b, "- Abnormal-time commits: %d (overtime %d, late night %d, weekend %d)\n",
			abnormal, metrics.Overtime, metrics.LateNight, metrics.Weekend)
	}
	if len(metrics.TopDevelopers) > 0 {
		b.WriteString("- Top developers: ")
		for i, name := range metrics.TopDevelopers {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
		}
		b.WriteString("\n")
	}
	return b.String()
}
