package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"pdfmobile/internal/reduce"
)

// doneSentinel is the literal terminator frame; it ends the read loop
// without being parsed as JSON.
const doneSentinel = "[DONE]"

// consumeStream reads the response body as server-sent-event frames.
// Content deltas grow the cumulative buffer and the reducer re-derives the
// completion from scratch after each one. A frame that is not valid JSON
// is skipped; the stream continues. The first reported model id is
// retained; a usage record replaces any prior value (it may arrive
// mid-stream or only at the end).
func (c *Client) consumeStream(ctx context.Context, body io.Reader, observer ChunkObserver) (Completion, error) {
	var buf strings.Builder
	var out Completion

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == doneSentinel {
			break
		}
		var frame openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			// Best-effort degradation: a malformed frame never aborts
			// the stream.
			continue
		}
		if out.Model == "" && frame.Model != "" {
			out.Model = frame.Model
		}
		if frame.Usage != nil {
			u := *frame.Usage
			out.Usage = &u
		}
		if len(frame.Choices) == 0 {
			continue
		}
		delta := frame.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		buf.WriteString(delta)
		derived := reduce.Derive(buf.String())
		out.HTML = derived.HTML
		out.Reasoning = derived.Reasoning
		if !out.HasReasoning && reduce.HasReasoning(buf.String()) {
			out.HasReasoning = true
		}
		if observer != nil {
			observer(delta, out)
		}
	}
	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return out, &TransportError{Err: err}
	}
	if ctx.Err() != nil {
		return out, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	// Final pass over the complete buffer, same logic as per chunk.
	derived := reduce.Derive(buf.String())
	out.HTML = derived.HTML
	out.Reasoning = derived.Reasoning
	out.HasReasoning = out.HasReasoning || reduce.HasReasoning(buf.String())
	return out, nil
}
