package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedRenderer(t *testing.T) {
	msg := EmbedRenderer{}.Render(testEvent())
	require.NotNil(t, msg.Embed)

	e := msg.Embed
	assert.Equal(t, "🔥 LP Burn Detected!", e.Title)
	assert.Equal(t, 0xff4500, e.Color)
	assert.Equal(t, "2023-11-14T22:13:20Z", e.Timestamp)
	assert.Contains(t, e.Description, "https://solscan.io/tx/SIG1")
	require.NotNil(t, e.Footer)
	assert.NotEmpty(t, e.Footer.Text)

	require.Len(t, e.Fields, 2)
	assert.Equal(t, "2023-11-14 22:13:20 UTC", e.Fields[0].Value)
	assert.Equal(t, "**Liquidity <LP> (LP)**", e.Fields[1].Name)
	assert.Equal(t, "1000.000000", e.Fields[1].Value)
	require.NotNil(t, e.Thumbnail)
	assert.Equal(t, "https://example.com/lp.png", e.Thumbnail.URL)
}

func TestEmbedRenderer_NoAmounts(t *testing.T) {
	msg := EmbedRenderer{Footer: "custom"}.Render(emptyEvent())

	require.Len(t, msg.Embed.Fields, 2)
	assert.Equal(t, "No specific amounts detected", msg.Embed.Fields[1].Value)
	assert.Equal(t, "custom", msg.Embed.Footer.Text)
	assert.Nil(t, msg.Embed.Thumbnail)
}

func TestTextRenderer(t *testing.T) {
	msg := TextRenderer{}.Render(testEvent())

	assert.Equal(t, "HTML", msg.ParseMode)
	assert.Empty(t, msg.PhotoURL)
	assert.Contains(t, msg.Text, "SIG1")
	assert.Contains(t, msg.Text, "1000.000000")
	assert.Contains(t, msg.Text, "Liquidity &lt;LP&gt; (LP)")
	assert.Contains(t, msg.Text, `<a href="https://solscan.io/tx/SIG1">`)
	assert.NotContains(t, msg.Text, "Unknown Token", "tokens without a burn are not listed")
}

func TestTextRenderer_NoAmounts(t *testing.T) {
	msg := TextRenderer{}.Render(emptyEvent())
	assert.Contains(t, msg.Text, "No specific amounts detected")
}

func TestPhotoCaptionRenderer(t *testing.T) {
	msg := PhotoCaptionRenderer{}.Render(testEvent())
	assert.Equal(t, "https://example.com/lp.png", msg.PhotoURL)
	assert.Contains(t, msg.Text, "1000.000000")

	ev := testEvent()
	info := ev.Tokens["MINT1"]
	info.LogoURI = ""
	ev.Tokens["MINT1"] = info
	assert.Empty(t, PhotoCaptionRenderer{}.Render(ev).PhotoURL)
}

func TestPhotoCaptionRenderer_LongCaptionFallsBackToText(t *testing.T) {
	ev := testEvent()
	info := ev.Tokens["MINT1"]
	info.Name = strings.Repeat("x", maxCaptionRunes)
	ev.Tokens["MINT1"] = info

	msg := PhotoCaptionRenderer{}.Render(ev)
	assert.Empty(t, msg.PhotoURL)
	assert.NotEmpty(t, msg.Text)
}
