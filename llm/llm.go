package llm

import (
	"errors"
	"fmt"
)

// Client abstracts the multimodal LLM provider used by the analyzer.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeImage takes raw image bytes and the analysis prompt, and returns
	// the provider's free-text reply.
	AnalyzeImage(imageData []byte, prompt string) (string, error)
	// SourceName returns a short provider label to show to the user and
	// persist with analysis history (e.g., "Gemini", "ChatGPT").
	SourceName() string
}

// ErrBlocked indicates the provider refused to analyze the prompt or image.
var ErrBlocked = errors.New("provider blocked the analysis")

// ErrNoContent indicates the provider replied without any usable text.
var ErrNoContent = errors.New("provider returned no content")

// InterruptedError indicates the provider stopped generating before
// finishing. Partial carries whatever text was produced before the stop;
// callers may surface it the same way as a complete reply.
type InterruptedError struct {
	Reason  string
	Partial string
}

func (e *InterruptedError) Error() string {
	if e.Reason == "" {
		return "provider interrupted the generation"
	}
	return fmt.Sprintf("provider interrupted the generation: %s", e.Reason)
}
