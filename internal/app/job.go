package app

import (
	"pdfmobile/internal/llm"
	"pdfmobile/internal/preview"

	"github.com/rs/zerolog/log"
)

// job carries the streaming state for one conversion: chunk count, the
// one-way reasoning latch, and the result-so-far. All of it lives on this
// struct and is updated through observe; nothing is reached through
// package-level variables.
type job struct {
	preview      *preview.Server
	chunks       int
	hasReasoning bool
	last         llm.Completion
}

func newJob(pv *preview.Server) *job {
	if pv != nil {
		pv.Clear()
	}
	return &job{preview: pv}
}

// observe is the chunk observer: it records the latest completion, latches
// the reasoning flag, and re-renders the live preview when the derived
// payload is non-empty.
func (j *job) observe(delta string, c llm.Completion) {
	j.chunks++
	j.last = c
	if c.HasReasoning && !j.hasReasoning {
		j.hasReasoning = true
		log.Debug().Msg("model is reasoning")
	}
	if j.preview != nil && c.HTML != "" {
		j.preview.Render(c.HTML)
	}
	if j.chunks%50 == 0 {
		log.Debug().
			Int("chunks", j.chunks).
			Int("htmlBytes", len(c.HTML)).
			Int("reasoningBytes", len(c.Reasoning)).
			Msg("stream progress")
	}
}
