package notify

import (
	"context"
	"errors"
	"net/http"

	"github.com/brojonat/burnwatch/service/burn"
	"resty.dev/v3"
)

// DiscordSink posts rich embeds to a Discord webhook.
type DiscordSink struct {
	url      string
	username string
	renderer Renderer
	http     *resty.Client
}

type discordPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// NewDiscordSink creates a sink for webhookURL. A nil httpClient uses the
// resty default transport.
func NewDiscordSink(webhookURL, username string, httpClient *http.Client) *DiscordSink {
	return &DiscordSink{
		url:      webhookURL,
		username: username,
		renderer: EmbedRenderer{},
		http:     newRestyClient(httpClient),
	}
}

func (s *DiscordSink) Name() string { return "discord" }

func (s *DiscordSink) Send(ctx context.Context, ev *burn.Event) error {
	msg := s.renderer.Render(ev)
	if msg.Embed == nil {
		return errors.New("discord: renderer produced no embed")
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(discordPayload{Username: s.username, Embeds: []Embed{*msg.Embed}}).
		Post(s.url)
	return checkDelivery(s.Name(), resp, err)
}

func (s *DiscordSink) Close() error {
	return s.http.Close()
}
