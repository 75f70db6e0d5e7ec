package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/brojonat/burnwatch/service/burn"
	"resty.dev/v3"
)

// DefaultTelegramAPIURL is the public Bot API endpoint.
const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramSink sends chat messages through the Bot API.
type TelegramSink struct {
	apiURL   string
	token    string
	chatID   string
	renderer Renderer
	http     *resty.Client
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramSink creates a sink posting to chatID. renderer selects between
// TextRenderer and PhotoCaptionRenderer.
func NewTelegramSink(apiURL, token, chatID string, renderer Renderer, httpClient *http.Client) *TelegramSink {
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	if renderer == nil {
		renderer = TextRenderer{}
	}
	return &TelegramSink{
		apiURL:   strings.TrimRight(apiURL, "/"),
		token:    token,
		chatID:   chatID,
		renderer: renderer,
		http:     newRestyClient(httpClient),
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, ev *burn.Event) error {
	msg := s.renderer.Render(ev)

	method := "sendMessage"
	body := map[string]any{
		"chat_id":                  s.chatID,
		"text":                     msg.Text,
		"parse_mode":               msg.ParseMode,
		"disable_web_page_preview": true,
	}
	if msg.PhotoURL != "" {
		method = "sendPhoto"
		body = map[string]any{
			"chat_id":    s.chatID,
			"photo":      msg.PhotoURL,
			"caption":    msg.Text,
			"parse_mode": msg.ParseMode,
		}
	}

	var out telegramResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("%s/bot%s/%s", s.apiURL, s.token, method))
	if err := checkDelivery(s.Name(), resp, err); err != nil {
		return s.redact(err)
	}
	if !out.OK {
		return fmt.Errorf("telegram: %s rejected: %s", method, out.Description)
	}
	return nil
}

// redact keeps the bot token out of logged errors; transport errors embed the URL.
func (s *TelegramSink) redact(err error) error {
	if s.token == "" || !strings.Contains(err.Error(), s.token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), s.token, "<redacted>"))
}

func (s *TelegramSink) Close() error {
	return s.http.Close()
}
