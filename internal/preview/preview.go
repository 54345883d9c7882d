package preview

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Server holds the latest HTML payload and pushes updates to any number of
// connected browser shells. Author content is hosted in an iframe srcdoc
// on the shell page, so its styles and scripts cannot leak into the host
// chrome.
//
// Only the active job writes the payload; a new job calls Clear first.
type Server struct {
	mu      sync.Mutex
	payload string
	subs    map[chan string]struct{}
}

func NewServer() *Server {
	return &Server{subs: make(map[chan string]struct{})}
}

// Render stores the payload and broadcasts it to subscribers. Empty
// payloads are ignored so a not-yet-derived view never blanks the preview
// mid-stream.
func (s *Server) Render(html string) {
	if html == "" {
		return
	}
	s.mu.Lock()
	s.payload = html
	for ch := range s.subs {
		// Drop-and-replace for slow subscribers; the job never blocks on
		// a stuck browser connection.
		select {
		case ch <- html:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- html:
			default:
			}
		}
	}
	s.mu.Unlock()
}

// Clear resets the payload at the start of a new job.
func (s *Server) Clear() {
	s.mu.Lock()
	s.payload = ""
	s.mu.Unlock()
}

// Payload returns the current payload.
func (s *Server) Payload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload
}

// Handler returns the preview HTTP surface:
//
//	GET /        shell page hosting the payload in an isolated subtree
//	GET /events  SSE feed of payload updates (current payload replayed)
//	GET /payload current payload verbatim as text/html
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleShell)
	r.Get("/events", s.handleEvents)
	r.Get("/payload", s.handlePayload)
	return r
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellTmpl.Execute(w, nil); err != nil {
		log.Debug().Err(err).Msg("preview shell write failed")
	}
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(s.Payload()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	current := s.payload
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	if current != "" {
		writeEvent(w, current)
		fl.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-ch:
			writeEvent(w, payload)
			fl.Flush()
		}
	}
}

// writeEvent frames one payload update. The payload is JSON-encoded so
// embedded newlines survive the single-line SSE data field.
func writeEvent(w http.ResponseWriter, payload string) {
	data, err := json.Marshal(map[string]string{"html": payload})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

var shellTmpl = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>pdfmobile preview</title>
<style>
  body { margin: 0; font-family: system-ui, sans-serif; background: #f4f4f5; }
  header { padding: .5rem 1rem; background: #18181b; color: #fafafa; font-size: .9rem; }
  iframe { display: block; width: 100%; height: calc(100vh - 2.4rem); border: 0; background: #fff; }
</style>
</head>
<body>
<header>pdfmobile &mdash; live preview</header>
<iframe id="doc" sandbox="allow-same-origin"></iframe>
<script>
  const frame = document.getElementById('doc');
  const events = new EventSource('/events');
  events.onmessage = (ev) => {
	const msg = JSON.parse(ev.data);
	if (msg.html) frame.srcdoc = msg.html;
  };
</script>
</body>
</html>
`))
