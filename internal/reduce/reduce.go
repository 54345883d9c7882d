package reduce

import (
	"regexp"
	"strings"
)

// Result holds the two views derived from a completion buffer: the HTML
// payload the user asked for and the reasoning excerpt some models emit
// alongside it.
type Result struct {
	HTML      string
	Reasoning string
}

// Reasoning delimiter vocabularies, in priority order. Some backends emit
// <thinking>...</thinking>, others <think>...</think>; within one pass only the
// first vocabulary with an opening tag present is consulted.
var vocabularies = []struct {
	span *regexp.Regexp // terminated span, non-greedy
	open *regexp.Regexp // opening tag alone
	tail *regexp.Regexp // unterminated open running to end of buffer
}{
	{
		span: regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`),
		open: regexp.MustCompile(`(?i)<thinking>`),
		tail: regexp.MustCompile(`(?is)<thinking>.*$`),
	},
	{
		span: regexp.MustCompile(`(?is)<think>(.*?)</think>`),
		open: regexp.MustCompile(`(?i)<think>`),
		tail: regexp.MustCompile(`(?is)<think>.*$`),
	},
}

// htmlFenceRe matches a fenced code block labeled as HTML. An unterminated
// fence does not match, so a partial stream falls back to the raw remainder
// until the closing fence arrives.
var htmlFenceRe = regexp.MustCompile("(?is)```html\\s*(.*?)```")

// Derive recomputes both views from the full buffer to date. It is a pure
// function of its input: calling it after every chunk and once more at
// stream end yields consistent results with no carried state.
func Derive(buffer string) Result {
	return Result{
		HTML:      payload(buffer),
		Reasoning: reasoning(buffer),
	}
}

// HasReasoning reports whether either vocabulary's opening tag appears
// anywhere in the buffer. Callers latch this one-way for the life of a job
// so a reasoning panel stays visible after the stream ends.
func HasReasoning(buffer string) bool {
	for _, v := range vocabularies {
		if v.open.MatchString(buffer) {
			return true
		}
	}
	return false
}

// reasoning extracts the side-channel excerpt. A terminated span wins; an
// opening tag with no close yet means the model is still thinking, so the
// excerpt speculatively runs to the end of the buffer.
func reasoning(buffer string) string {
	for _, v := range vocabularies {
		if m := v.span.FindStringSubmatch(buffer); m != nil {
			return strings.TrimSpace(m[1])
		}
		if loc := v.open.FindStringIndex(buffer); loc != nil {
			return strings.TrimSpace(buffer[loc[1]:])
		}
	}
	return ""
}

// payload strips every reasoning span of either vocabulary, then unwraps
// the ```html fence when one is complete, else returns the whole remainder
// trimmed. Terminated spans are removed before the unterminated-tail rule
// so a still-open reasoning block never leaks into the HTML view.
func payload(buffer string) string {
	remaining := buffer
	for _, v := range vocabularies {
		remaining = v.span.ReplaceAllString(remaining, "")
		remaining = v.tail.ReplaceAllString(remaining, "")
	}
	if m := htmlFenceRe.FindStringSubmatch(remaining); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(remaining)
}
