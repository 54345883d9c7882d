// Command llm-stub is a tiny OpenAI-compatible chat-completions server for
// developing and testing pdfmobile without a real model. It answers every
// conversion request with a fixed mobile HTML page, wrapped the way real
// backends wrap it: a <thinking> preamble and a ```html code fence. In
// streaming mode the answer is chunked as SSE frames, one malformed frame
// is interleaved (clients must skip it), usage arrives in a trailing
// frame, and the stream ends with [DONE].
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role string `json:"role"`
	} `json:"messages"`
}

const answer = "<thinking>Reading the document and planning a single-column layout.</thinking>\n" +
	"```html\n" +
	"<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n" +
	"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n" +
	"<title>Stub Document</title>\n<style>body{font-family:sans-serif;max-width:40rem;margin:0 auto;padding:1rem}</style>\n" +
	"</head>\n<body>\n<h1>Stub Document</h1>\n<p>Converted by llm-stub.</p>\n</body>\n</html>\n" +
	"```"

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "stub-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		if req.Stream {
			streamAnswer(w, model)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": answer}},
			},
			"usage": map[string]int{"prompt_tokens": 42, "completion_tokens": 128, "total_tokens": 170},
		})
	})

	log.Printf("llm-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func streamAnswer(w http.ResponseWriter, model string) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")

	writeFrame := func(payload any) {
		b, _ := json.Marshal(payload)
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n\n"))
		fl.Flush()
	}

	for i, chunk := range chunked(answer, 24) {
		writeFrame(map[string]any{
			"model": model,
			"choices": []map[string]any{
				{"delta": map[string]string{"content": chunk}},
			},
		})
		if i == 2 {
			// Real local backends occasionally emit garbage frames.
			_, _ = w.Write([]byte("data: this is not json\n\n"))
			fl.Flush()
		}
		time.Sleep(25 * time.Millisecond)
	}
	writeFrame(map[string]any{
		"usage": map[string]int{"prompt_tokens": 42, "completion_tokens": 128, "total_tokens": 170},
	})
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	fl.Flush()
}

func chunked(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
