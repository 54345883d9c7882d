package app

import "time"

// Conversion modalities.
const (
	ModeText   = "text"
	ModeVision = "vision"
)

// Config holds runtime configuration for one conversion run.
type Config struct {
	InputPath  string
	OutputPath string // empty derives the name from the payload title

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	MaxTokens  int
	Stream     bool

	// Extraction
	Mode  string // ModeText or ModeVision
	Scale float64

	// Preview
	PreviewAddr string // empty disables the live preview server

	// Cache
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool

	Verbose bool
}
