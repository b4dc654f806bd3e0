package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURI(t *testing.T) {
	tests := map[string]string{
		"": "",
		"  https://video.udacity-data.com/a.png ": "https://video.udacity-data.com/a.png",
		"http://example.com/a.png":                "https://example.com/a.png",
		"//s3.amazonaws.com/x/y.gif":              "https://s3.amazonaws.com/x/y.gif",
		"ftp://host/file.mp4":                     "https://host/file.mp4",
		"HTTPS:///host/img.jpg":                   "https://host/img.jpg",
		"example.com/img.jpg":                     "https://example.com/img.jpg",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeURI(in), "input %q", in)
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "What's up.png", Sanitize("What's up.png"))
	assert.Equal(t, "ab.png", Sanitize(`a<>:"/\|?*b.png`))
	assert.Equal(t, "Intro - Part 1", Sanitize("Intro - Part 1"))
	assert.Equal(t, "", Sanitize(".."))
	assert.Equal(t, "_CON.txt", Sanitize("CON.txt"))
	assert.Equal(t, "tab", Sanitize("t\tab"))
}

func TestSanitizeTruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("é", 150) + ".mp4"
	got := Sanitize(long)

	assert.LessOrEqual(t, len(got), MaxLength)
	assert.True(t, strings.HasSuffix(got, ".mp4"))
}

func TestBaseNameAndExt(t *testing.T) {
	assert.Equal(t, "foo.png", FromURI("https://example.com/images/foo.png"))
	assert.Equal(t, "foo.png", FromURI("https://example.com/images/foo.png?w=200#top"))
	assert.Equal(t, "my image.png", FromURI("https://example.com/my%20image.png"))
	assert.Equal(t, ".png", Ext("https://example.com/foo.png?x=1"))
	assert.True(t, HasExt("https://example.com/foo.mp4"))
	assert.False(t, HasExt("https://lh3.googleusercontent.com/AbCdEf"))
	assert.Equal(t, "", BaseName("https://example.com/dir/"))
}

func TestSynthetic(t *testing.T) {
	assert.Equal(t, "unnamed-12345-0.gif", Synthetic("12345", 0, ".gif"))
	assert.Equal(t, "unnamed-12345-1.mp4", Synthetic("12345", 1, "mp4"))
	assert.NotEqual(t, Synthetic("a", 0, ".gif"), Synthetic("a", 1, ".gif"))
}

func TestVideoBase(t *testing.T) {
	assert.Equal(t, "01.02. What is ML-abc123", VideoBase("01.02", "What is ML?", "abc123"))
}

func TestRegistryClaim(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "x.png", r.Claim("/l/media", "x.png", "https://a/x.png"))
	assert.Equal(t, "x.png", r.Claim("/l/media", "x.png", "https://a/x.png"))
	assert.Equal(t, "x-1.png", r.Claim("/l/media", "x.png", "https://b/x.png"))
	assert.Equal(t, "x-2.png", r.Claim("/l/media", "x.png", "https://c/x.png"))
	assert.Equal(t, "x-1.png", r.Claim("/l/media", "x.png", "https://b/x.png"))
	assert.Equal(t, "x.png", r.Claim("/other/media", "x.png", "https://b/x.png"))

	var nilRegistry *Registry
	assert.Equal(t, "x.png", nilRegistry.Claim("/l", "x.png", "https://z/x.png"))
}
