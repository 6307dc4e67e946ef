package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/slack-go/slack"

	"github.com/lysyi3m/memo-comb/app/memo"
)

const webhookTimeout = 20 * time.Second

// Message is what a run hands to every notifier.
type Message struct {
	Text  string
	Files []string // artifact paths; only uploaded where supported
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// WebhookNotifier posts the summary to an incoming webhook as {"text": ...}.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

func (n *WebhookNotifier) Name() string {
	return "webhook"
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	err := slack.PostWebhookCustomHTTPContext(ctx, n.url, n.httpClient, &slack.WebhookMessage{Text: msg.Text})
	if err != nil {
		return fmt.Errorf("%w: webhook: %v", memo.ErrNotification, err)
	}
	return nil
}

// SlackNotifier posts through the Web API and can attach the export files.
type SlackNotifier struct {
	client      *slack.Client
	channel     string
	uploadFiles bool
}

func NewSlackNotifier(token, channel string, uploadFiles bool, options ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:      slack.New(token, options...),
		channel:     channel,
		uploadFiles: uploadFiles,
	}
}

func (n *SlackNotifier) Name() string {
	return "slack"
}

func (n *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("%w: slack message: %v", memo.ErrNotification, err)
	}

	if !n.uploadFiles {
		return nil
	}

	for _, path := range msg.Files {
		if err := n.upload(ctx, path); err != nil {
			return err
		}
	}

	return nil
}

func (n *SlackNotifier) upload(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Skipping missing upload file", "file", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: slack upload %s: %v", memo.ErrNotification, path, err)
	}

	name := filepath.Base(path)
	summary, err := n.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        n.channel,
		File:           path,
		Filename:       name,
		FileSize:       int(info.Size()),
		InitialComment: "OCC memos export: " + name,
	})
	if err != nil {
		return fmt.Errorf("%w: slack upload %s: %v", memo.ErrNotification, name, err)
	}

	slog.Debug("Slack file uploaded", "file", name, "id", summary.ID)
	return nil
}

// Broadcast sends msg to every notifier and returns the names of those that
// failed. A failure never stops the remaining notifiers.
func Broadcast(ctx context.Context, notifiers []Notifier, msg Message) []string {
	var failed []string
	for _, n := range notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			failed = append(failed, n.Name())
			slog.Warn("Notification failed", "notifier", n.Name(), "error", err)
			continue
		}
		slog.Info("Notification sent", "notifier", n.Name())
	}
	return failed
}
