package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taichungmao-blip/soybean-monitor/internal/httpclient"
)

// ErrNotification marks a delivery failure. The batch logs it and degrades;
// it never crashes the run.
var ErrNotification = errors.New("notification failed")

// DiscordNotifier posts report messages to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewDiscordNotifier validates the webhook URL and builds the notifier with
// optional proxy support.
func NewDiscordNotifier(webhookURL, proxyURL string) (*DiscordNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("discord webhook URL is required")
	}
	if !strings.HasPrefix(webhookURL, "https://discord.com/api/webhooks/") &&
		!strings.HasPrefix(webhookURL, "https://discordapp.com/api/webhooks/") {
		return nil, fmt.Errorf("invalid discord webhook URL format")
	}
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client:     httpclient.New(proxyURL),
	}, nil
}

// Send posts a message, attaching the PNG image when one is given. Success is
// any 2xx status; Discord normally answers 204.
func (d *DiscordNotifier) Send(ctx context.Context, text string, image []byte) error {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if len(image) == 0 {
		body, contentType, err = jsonBody(text)
	} else {
		body, contentType, err = multipartBody(text, image)
	}
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("discord send: %v: %w", err, ErrNotification)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord status %d, body: %s: %w", resp.StatusCode, string(respBody), ErrNotification)
	}

	log.Debug().Int("status", resp.StatusCode).Bool("image", len(image) > 0).Msg("discord message sent")
	return nil
}

func jsonBody(text string) (io.Reader, string, error) {
	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

// multipartBody builds the payload_json + file form Discord expects for
// message-with-attachment posts.
func multipartBody(text string, image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload: %w", err)
	}
	if err := w.WriteField("payload_json", string(payload)); err != nil {
		return nil, "", fmt.Errorf("write payload part: %w", err)
	}

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="chart.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// SendWithRetry sends with exponential backoff.
func (d *DiscordNotifier) SendWithRetry(ctx context.Context, text string, image []byte, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := d.Send(ctx, text, image); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries+1).
				Dur("backoff", backoff).Msg("discord send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
