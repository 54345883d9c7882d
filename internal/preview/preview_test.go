package preview

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestShellPageIsolatesContent(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get shell: %v", err)
	}
	defer resp.Body.Close()
	var sb strings.Builder
	if _, err := bufio.NewReader(resp.Body).WriteTo(&sb); err != nil {
		t.Fatal(err)
	}
	body := sb.String()
	if !strings.Contains(body, "<iframe") {
		t.Fatalf("shell must host content in an iframe:\n%s", body)
	}
	if !strings.Contains(body, "srcdoc") {
		t.Fatalf("shell must render via srcdoc for isolation")
	}
}

func TestRenderUpdatesPayload(t *testing.T) {
	s := NewServer()
	s.Render("<p>v1</p>")
	if s.Payload() != "<p>v1</p>" {
		t.Fatalf("payload = %q", s.Payload())
	}
	s.Render("<p>v2</p>")
	if s.Payload() != "<p>v2</p>" {
		t.Fatalf("payload = %q", s.Payload())
	}
}

func TestRenderIgnoresEmpty(t *testing.T) {
	s := NewServer()
	s.Render("<p>kept</p>")
	s.Render("")
	if s.Payload() != "<p>kept</p>" {
		t.Fatalf("empty render must not blank the preview, got %q", s.Payload())
	}
}

func TestClearResetsPayload(t *testing.T) {
	s := NewServer()
	s.Render("<p>old job</p>")
	s.Clear()
	if s.Payload() != "" {
		t.Fatalf("payload after clear = %q", s.Payload())
	}
}

func TestPayloadEndpointServesVerbatim(t *testing.T) {
	s := NewServer()
	s.Render("<p>exact & raw</p>")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/payload")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var sb strings.Builder
	if _, err := bufio.NewReader(resp.Body).WriteTo(&sb); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "<p>exact & raw</p>" {
		t.Fatalf("payload endpoint transformed content: %q", sb.String())
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestEventsReplayCurrentPayload(t *testing.T) {
	s := NewServer()
	s.Render("<p>already here</p>")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read first event: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("expected SSE data line, got %q", line)
	}
	if !strings.Contains(line, "already here") {
		t.Fatalf("current payload must be replayed on connect: %q", line)
	}
}
