package export

import (
	"bytes"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DefaultName is the artifact filename when the payload carries no usable
// title.
const DefaultName = "converted.html"

// ContentType is the MIME type of every exported artifact.
const ContentType = "text/html"

// Artifact wraps a final HTML payload as a downloadable file-like object.
// The content is never transformed; methods may be called repeatedly.
type Artifact struct {
	name string
	data []byte
}

// Asset wraps the final HTML payload. The name is derived from the
// document <title> when one is present, else DefaultName; the derivation
// is deterministic for a given payload.
func Asset(payload string) Artifact {
	return Artifact{
		name: filenameFor(payload),
		data: []byte(payload),
	}
}

// Name returns the artifact filename.
func (a Artifact) Name() string { return a.name }

// ContentType returns the artifact MIME type.
func (a Artifact) ContentType() string { return ContentType }

// Bytes returns the raw HTML content.
func (a Artifact) Bytes() []byte { return a.data }

// Reader returns a reader over the HTML content.
func (a Artifact) Reader() *bytes.Reader { return bytes.NewReader(a.data) }

// WriteTo writes the full content to w. It implements io.WriterTo.
func (a Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.data)
	return int64(n), err
}

// WriteFile writes the artifact content to the file at path, creating it
// if needed.
func (a Artifact) WriteFile(path string) error {
	return os.WriteFile(path, a.data, 0o644)
}

// filenameFor derives the artifact name from the payload's <title>.
func filenameFor(payload string) string {
	title := documentTitle(payload)
	slug := slugify(title)
	if slug == "" {
		return DefaultName
	}
	return slug + ".html"
}

// documentTitle returns the first <title> text in the payload, trimmed.
func documentTitle(payload string) string {
	node, err := html.Parse(strings.NewReader(payload))
	if err != nil || node == nil {
		return ""
	}
	var res string
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != "" {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, "title") {
			if cur.FirstChild != nil && cur.FirstChild.Type == html.TextNode {
				res = strings.TrimSpace(cur.FirstChild.Data)
			}
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != "" {
				return
			}
		}
	}
	dfs(node)
	return res
}

// slugify lowercases the title and maps non-alphanumeric runs to single
// hyphens so the name is safe on any filesystem.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
