package app

import (
	"testing"

	"pdfmobile/internal/llm"
	"pdfmobile/internal/preview"
)

func TestJobLatchesReasoning(t *testing.T) {
	j := newJob(nil)
	j.observe("<think>", llm.Completion{HasReasoning: true})
	if !j.hasReasoning {
		t.Fatalf("latch should trip")
	}
	// Later chunks without the flag must not reset the latch.
	j.observe("more", llm.Completion{HasReasoning: true})
	if !j.hasReasoning || j.chunks != 2 {
		t.Fatalf("latch or chunk count wrong: %+v", j)
	}
}

func TestJobRendersNonEmptyPayloadsOnly(t *testing.T) {
	pv := preview.NewServer()
	pv.Render("<p>stale</p>")

	j := newJob(pv)
	if pv.Payload() != "" {
		t.Fatalf("new job must clear the preview, got %q", pv.Payload())
	}
	j.observe("a", llm.Completion{HTML: ""})
	if pv.Payload() != "" {
		t.Fatalf("empty payload must not render")
	}
	j.observe("b", llm.Completion{HTML: "<p>live</p>"})
	if pv.Payload() != "<p>live</p>" {
		t.Fatalf("payload = %q", pv.Payload())
	}
}
