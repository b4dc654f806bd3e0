// Package naming derives filesystem-safe file names for downloaded assets.
package naming

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest file name Sanitize produces, in bytes
const MaxLength = 200

var (
	schemePattern   = regexp.MustCompile(`(?i)^(?:f|ht)tps?:/+`)
	reservedPattern = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\x7F]`)
	windowsReserved = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com\d|lpt\d)(\..*)?$`)
)

// NormalizeURI strips whatever scheme the URI carries and forces https.
// Protocol-relative and scheme-less URIs are accepted. Empty input stays empty.
func NormalizeURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	uri = schemePattern.ReplaceAllString(uri, "")
	uri = strings.TrimLeft(uri, "/")
	return "https://" + uri
}

// Sanitize removes characters that are invalid in file names on common filesystems
func Sanitize(name string) string {
	name = reservedPattern.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if strings.Trim(name, ".") == "" {
		return ""
	}
	if windowsReserved.MatchString(name) {
		name = "_" + name
	}

	return truncate(name, MaxLength)
}

// truncate shortens name to at most max bytes, keeping the extension and valid UTF-8
func truncate(name string, max int) string {
	if len(name) <= max {
		return name
	}
	ext := path.Ext(name)
	if len(ext) >= max/2 {
		ext = ""
	}
	stem := name[:max-len(ext)]
	for !utf8.ValidString(stem) {
		stem = stem[:len(stem)-1]
	}
	return stem + ext
}

// uriPath returns the path component of uri, without query or fragment
func uriPath(uri string) string {
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		return u.Path
	}
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		return uri[:i]
	}
	return uri
}

// BaseName returns the last path segment of uri, URL-decoded
func BaseName(uri string) string {
	p := uriPath(uri)
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	base := path.Base(p)
	if decoded, err := url.PathUnescape(base); err == nil {
		base = decoded
	}
	return base
}

// Ext returns the extension of the URI path, including the dot
func Ext(uri string) string {
	return path.Ext(BaseName(uri))
}

// HasExt reports whether the URI path ends in a file extension
func HasExt(uri string) bool {
	return Ext(uri) != ""
}

// FromURI derives a sanitized file name from the basename of uri
func FromURI(uri string) string {
	return Sanitize(BaseName(uri))
}

// Synthetic builds the name used for references without an extension,
// e.g. unnamed-<label>-<index>.gif
func Synthetic(label string, index int, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return Sanitize(fmt.Sprintf("unnamed-%s-%d%s", label, index, ext))
}

// VideoBase builds "<prefix>. <title>-<id>", the base name shared by a video and its subtitles
func VideoBase(prefix, title, videoID string) string {
	return fmt.Sprintf("%s. %s-%s", prefix, Sanitize(title), videoID)
}
