package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/text/unicode/norm"
)

// DefaultScale is the linear render scale relative to the page's intrinsic
// 72 DPI viewport. 2.0 keeps small print legible for vision models without
// ballooning the upload size.
const DefaultScale = 2.0

// Kind discriminates the two extraction modalities.
type Kind int

const (
	KindText Kind = iota
	KindImages
)

// Extraction is the immutable product of one document pass: either a
// normalized plain-text transcript or one rasterized image per page.
type Extraction struct {
	Kind  Kind
	Text  string
	Pages []PageImage
}

// NewText wraps a transcript as a text-modality extraction.
func NewText(transcript string) Extraction {
	return Extraction{Kind: KindText, Text: transcript}
}

// NewImages wraps page rasters as an image-modality extraction.
func NewImages(pages []PageImage) Extraction {
	return Extraction{Kind: KindImages, Pages: pages}
}

// PageImage is one rendered page, PNG-encoded.
type PageImage struct {
	PNG    []byte
	Width  int
	Height int
}

// DataURL returns the image as a self-contained data URL suitable for a
// chat message image part.
func (p PageImage) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(p.PNG)
}

// Text extracts the full document transcript: pages in order 1..N joined
// by newlines, then normalized to a single-spaced line. Any page failure
// aborts the whole extraction; there is no partial-document fallback.
func Text(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", &ExtractionError{Err: err}
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			return "", &ExtractionError{Page: i + 1, Err: err}
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pageText)
	}
	return Normalize(b.String()), nil
}

// Rasterize renders every page at the given linear scale and PNG-encodes
// it. Results are in page order (index 0 = page 1). The first failing page
// aborts the whole job; no partial page set is returned.
func Rasterize(path string, scale float64) ([]PageImage, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &RasterizationError{Err: err}
	}
	defer doc.Close()

	pages := make([]PageImage, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		// go-fitz renders against the 72 DPI intrinsic viewport.
		img, err := doc.ImageDPI(i, 72*scale)
		if err != nil {
			return nil, &RasterizationError{Page: i + 1, Err: err}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, &RasterizationError{Page: i + 1, Err: fmt.Errorf("encode png: %w", err)}
		}
		bounds := img.Bounds()
		pages = append(pages, PageImage{
			PNG:    buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}
	return pages, nil
}

// Normalize collapses the raw per-page transcript into a single-spaced
// line: newline runs become one space, remaining whitespace runs become
// one space, and the result is NFC-normalized and trimmed.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(norm.NFC.String(b.String()))
}
