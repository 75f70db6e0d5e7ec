package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/brojonat/burnwatch/service/burn"
)

const (
	burnTitle       = "🔥 LP Burn Detected!"
	embedColor      = 0xff4500
	defaultFooter   = "LP Burn Monitor | Powered by Helius"
	noAmountsText   = "No specific amounts detected"
	amountPlaces    = 6
	maxEmbedFields  = 25
	maxCaptionRunes = 1024
)

// Message is a rendered notification. Sinks use the parts they understand.
type Message struct {
	Text      string
	ParseMode string
	PhotoURL  string
	Embed     *Embed
}

// Renderer turns a burn event into a Message.
type Renderer interface {
	Render(ev *burn.Event) Message
}

// Embed is a Discord rich embed.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedRenderer renders the rich embed: a time field followed by one field
// per burned token.
type EmbedRenderer struct {
	Footer string
}

func (r EmbedRenderer) Render(ev *burn.Event) Message {
	footer := r.Footer
	if footer == "" {
		footer = defaultFooter
	}

	embed := &Embed{
		Title:       burnTitle,
		Description: fmt.Sprintf("**Transaction:** [View on explorer](%s)", ev.ExplorerURL),
		URL:         ev.ExplorerURL,
		Color:       embedColor,
		Fields: []EmbedField{{
			Name:   "⏰ Time",
			Value:  formatTime(ev.Timestamp),
			Inline: true,
		}},
		Footer:    &EmbedFooter{Text: footer},
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
	}

	burned := ev.Burned()
	if len(burned) == 0 {
		embed.Fields = append(embed.Fields, EmbedField{Name: "📊 Burned Tokens", Value: noAmountsText})
	}
	for _, b := range burned {
		if len(embed.Fields) == maxEmbedFields {
			break
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  fmt.Sprintf("**%s (%s)**", b.Token.Name, b.Token.Symbol),
			Value: b.Amount.StringFixed(amountPlaces),
		})
		if embed.Thumbnail == nil && b.Token.LogoURI != "" {
			embed.Thumbnail = &EmbedImage{URL: b.Token.LogoURI}
		}
	}

	return Message{Embed: embed}
}

// TextRenderer renders an HTML chat message with an inline explorer link.
type TextRenderer struct{}

func (TextRenderer) Render(ev *burn.Event) Message {
	return Message{Text: renderHTML(ev), ParseMode: "HTML"}
}

// PhotoCaptionRenderer renders the HTML message as a caption under the
// logo of the first burned token that has one. Without a logo it degrades
// to a plain text message.
type PhotoCaptionRenderer struct{}

func (PhotoCaptionRenderer) Render(ev *burn.Event) Message {
	msg := Message{Text: renderHTML(ev), ParseMode: "HTML"}
	for _, b := range ev.Burned() {
		if b.Token.LogoURI != "" {
			msg.PhotoURL = b.Token.LogoURI
			break
		}
	}
	if msg.PhotoURL != "" && len([]rune(msg.Text)) > maxCaptionRunes {
		// Cutting HTML would leave unbalanced tags; send it as text instead.
		msg.PhotoURL = ""
	}
	return msg
}

func renderHTML(ev *burn.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(burnTitle))
	fmt.Fprintf(&b, "<b>Time:</b> %s\n", html.EscapeString(formatTime(ev.Timestamp)))
	fmt.Fprintf(&b, "<b>Signature:</b> <code>%s</code>\n\n", html.EscapeString(ev.Signature))

	burned := ev.Burned()
	if len(burned) == 0 {
		b.WriteString(noAmountsText + "\n")
	}
	for _, t := range burned {
		fmt.Fprintf(&b, "<b>%s (%s)</b>: %s\n",
			html.EscapeString(t.Token.Name),
			html.EscapeString(t.Token.Symbol),
			t.Amount.StringFixed(amountPlaces),
		)
		fmt.Fprintf(&b, "<code>%s</code>\n", html.EscapeString(t.Token.Mint))
	}

	fmt.Fprintf(&b, "\n<a href=\"%s\">View on explorer</a>", html.EscapeString(ev.ExplorerURL))
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
