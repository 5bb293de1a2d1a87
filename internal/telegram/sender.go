// Package telegram adapts the storefront core to the Telegram Bot API.
// It implements the outbound capabilities the core consumes (sending
// HTML messages and photos, downloading file payloads) on top of
// go-telegram-bot-api. Every call is throttled through a token-bucket
// limiter so bursts of notifications stay inside the platform's rate
// limits.
//
// Failures here are delivery errors, not ledger errors: callers must
// treat them as retryable and never let them roll back committed
// database state.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/observability"
)

// Sender is the outbound message capability the core consumes.
// The returned message is the provider's response payload.
type Sender interface {
	// SendText delivers an HTML-formatted text message.
	SendText(ctx context.Context, chatID int64, html string) (tgbotapi.Message, error)
	// SendPhoto delivers a photo with an HTML-formatted caption.
	SendPhoto(ctx context.Context, chatID int64, photo []byte, captionHTML string) (tgbotapi.Message, error)
}

// Client implements Sender and the catalog's image fetcher over a
// tgbotapi.BotAPI connection.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	httpc   *http.Client
}

// NewClient wraps an authorized bot connection. rps and burst bound the
// outbound call rate; Telegram allows roughly 30 messages per second
// bot-wide.
func NewClient(bot *tgbotapi.BotAPI, rps float64, burst int) *Client {
	return &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		httpc:   http.DefaultClient,
	}
}

// SendText delivers an HTML message to chatID. Blocks until the rate
// limiter admits the call or ctx is done.
func (c *Client) SendText(ctx context.Context, chatID int64, html string) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := c.bot.Send(msg)
	if err != nil {
		observability.TelegramSendFailures.WithLabelValues("send_text").Inc()
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("send text failed")
		return tgbotapi.Message{}, fmt.Errorf("send message: %w", err)
	}
	return sent, nil
}

// SendPhoto delivers a photo with an HTML caption to chatID.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, captionHTML string) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "product", Bytes: photo})
	msg.Caption = captionHTML
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := c.bot.Send(msg)
	if err != nil {
		observability.TelegramSendFailures.WithLabelValues("send_photo").Inc()
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("send photo failed")
		return tgbotapi.Message{}, fmt.Errorf("send photo: %w", err)
	}
	return sent, nil
}

// SendProduct delivers a rendered product to chatID: as a photo with
// caption when the product carries an image, as a plain message
// otherwise.
func (c *Client) SendProduct(ctx context.Context, chatID int64, p *domain.Product, html string) (tgbotapi.Message, error) {
	if len(p.Image) > 0 {
		return c.SendPhoto(ctx, chatID, p.Image, html)
	}
	return c.SendText(ctx, chatID, html)
}

// FetchFile resolves a Telegram file id to its download URL and returns
// the raw bytes. Implements the catalog's ImageFetcher capability.
func (c *Client) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		observability.TelegramSendFailures.WithLabelValues("fetch_image").Inc()
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.bot.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		observability.TelegramSendFailures.WithLabelValues("fetch_image").Inc()
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		observability.TelegramSendFailures.WithLabelValues("fetch_image").Inc()
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	return buf.Bytes(), nil
}
