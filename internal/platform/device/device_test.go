package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Run("desktop chrome", func(t *testing.T) {
		ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		summary := Summarize(ua)
		assert.Contains(t, summary, "chrome 120")
		assert.True(t, strings.HasSuffix(summary, "/ desktop"))
	})

	t.Run("mobile safari", func(t *testing.T) {
		ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
		summary := Summarize(ua)
		assert.True(t, strings.HasSuffix(summary, "/ mobile"))
	})

	t.Run("bot", func(t *testing.T) {
		summary := Summarize("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
		assert.True(t, strings.HasSuffix(summary, "/ bot"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "unknown", Summarize(""))
	})

	t.Run("never echoes the raw string", func(t *testing.T) {
		ua := "SomeCustomAgent/1.2.3 (build 456; serial ABCDEF)"
		assert.NotContains(t, Summarize(ua), "ABCDEF")
	})
}
