package service

import (
	"encoding/json"
	"errors"
	"time"

	"ecoadvisor-service/config"
	"ecoadvisor-service/database"
	"ecoadvisor-service/gemini"
	"ecoadvisor-service/llm"
	"ecoadvisor-service/metrics"
	"ecoadvisor-service/openai"
	"ecoadvisor-service/parser"
	"ecoadvisor-service/rabbitmq"
	"ecoadvisor-service/stubllm"

	"github.com/apex/log"
)

// Service runs the packaging analysis: provider call, sectioning, optional
// history write and optional publish. Each Analyze call is independent; the
// service holds no per-request state.
type Service struct {
	cfg       *config.Config
	llmClient llm.Client
	specs     []parser.SectionSpec
	db        *database.Database
	publisher *rabbitmq.Publisher
}

// Result is one completed analysis ready for display.
type Result struct {
	Source   string                   `json:"source"`
	Sections []parser.RenderedSection `json:"sections"`
	Notice   string                   `json:"notice,omitempty"`
}

// AnalyzedEvent is the message published for each completed analysis.
type AnalyzedEvent struct {
	HistoryID int64                    `json:"history_id,omitempty"`
	Source    string                   `json:"source"`
	Sections  []parser.RenderedSection `json:"sections"`
	ImageSize int                      `json:"image_size"`
	MimeType  string                   `json:"mime_type"`
	Timestamp time.Time                `json:"timestamp"`
}

// NewService creates the analysis service, selecting the provider from
// configuration. A missing credential yields a disabled service (nil
// client), not a startup failure. db and publisher may be nil.
func NewService(cfg *config.Config, db *database.Database, publisher *rabbitmq.Publisher) *Service {
	var client llm.Client
	if cfg.CredentialConfigured() {
		switch cfg.LLMProvider {
		case "openai":
			client = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		case "stub":
			client = stubllm.NewClient()
		default:
			client = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		}
		log.Infof("Analyzer LLM provider=%s", client.SourceName())
	} else {
		log.Warn("No provider credential configured; analysis is disabled")
	}

	return &Service{
		cfg:       cfg,
		llmClient: client,
		specs:     parser.DefaultSpecs(),
		db:        db,
		publisher: publisher,
	}
}

// NewServiceWithClient creates the service around an explicit provider client.
func NewServiceWithClient(cfg *config.Config, client llm.Client, db *database.Database, publisher *rabbitmq.Publisher) *Service {
	return &Service{
		cfg:       cfg,
		llmClient: client,
		specs:     parser.DefaultSpecs(),
		db:        db,
		publisher: publisher,
	}
}

// Enabled reports whether a provider client is available.
func (s *Service) Enabled() bool {
	return s.llmClient != nil
}

// Source returns the active provider label, or empty when disabled.
func (s *Service) Source() string {
	if s.llmClient == nil {
		return ""
	}
	return s.llmClient.SourceName()
}

// HistoryEnabled reports whether analysis history is being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.db != nil
}

// History returns the history store, or nil when history is disabled.
func (s *Service) History() *database.Database {
	return s.db
}

// Analyze sends the image to the provider and sections the reply. All
// failures come back as *Error; none are fatal to the process. An
// interrupted generation with usable partial text is surfaced as a success
// with a notice.
func (s *Service) Analyze(imageData []byte, mimeType string) (*Result, error) {
	start := time.Now()

	result, aerr := s.analyze(imageData, mimeType)

	outcome := "ok"
	if aerr != nil {
		outcome = string(aerr.Code)
		switch aerr.Code {
		case CodeProviderBlocked, CodeProviderInterrupted, CodeProviderOther, CodeEmptyResult:
			metrics.ProviderErrorsTotal.WithLabelValues(string(aerr.Code)).Inc()
		}
	}
	metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	metrics.AnalysisDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if aerr != nil {
		log.WithFields(log.Fields{
			"code":       string(aerr.Code),
			"image_size": len(imageData),
		}).Errorf("analysis failed: %v", aerr)
		return nil, aerr
	}

	log.WithFields(log.Fields{
		"source":     result.Source,
		"sections":   len(result.Sections),
		"image_size": len(imageData),
		"duration":   time.Since(start).String(),
	}).Info("analysis completed")
	return result, nil
}

func (s *Service) analyze(imageData []byte, mimeType string) (*Result, *Error) {
	if len(imageData) == 0 {
		return nil, newError(CodeEmptyInput, "Please upload an image first.", nil)
	}
	if s.llmClient == nil {
		return nil, newError(CodeMissingCredential,
			"The analysis provider is not configured. Check the server's API credential.", nil)
	}

	metrics.UploadBytes.Observe(float64(len(imageData)))

	text, err := s.llmClient.AnalyzeImage(imageData, s.cfg.AnalysisPrompt)
	notice := ""
	if err != nil {
		var interrupted *llm.InterruptedError
		switch {
		case errors.Is(err, llm.ErrBlocked):
			return nil, newError(CodeProviderBlocked,
				"The provider blocked the analysis for this image.", err)
		case errors.As(err, &interrupted):
			// Keep whatever the provider produced before stopping.
			if len(interrupted.Partial) > 0 {
				text = interrupted.Partial
				notice = "The provider interrupted the generation; showing the partial analysis."
			} else {
				return nil, newError(CodeProviderInterrupted,
					"The provider interrupted the generation before producing any text.", err)
			}
		case errors.Is(err, llm.ErrNoContent):
			return nil, newError(CodeEmptyResult, "The analysis returned no content.", err)
		default:
			return nil, newError(CodeProviderOther,
				"The analysis provider returned an error. Please try again.", err)
		}
	}

	sections, perr := parser.Section(text, s.specs)
	if perr != nil {
		// Blank reply text: report "no content returned", not a provider error.
		return nil, newError(CodeEmptyResult, "The analysis returned no content.", perr)
	}

	result := &Result{
		Source:   s.llmClient.SourceName(),
		Sections: sections,
		Notice:   notice,
	}

	historyID := s.recordHistory(result, text, len(imageData), mimeType)
	s.publishAnalyzed(result, historyID, len(imageData), mimeType)

	return result, nil
}

// recordHistory persists the analysis when history is configured.
// Best-effort: a storage failure is logged, never surfaced to the user.
func (s *Service) recordHistory(result *Result, rawText string, imageSize int, mimeType string) int64 {
	if s.db == nil {
		return 0
	}

	sectionsJSON, err := json.Marshal(result.Sections)
	if err != nil {
		log.Errorf("Failed to marshal sections for history: %v", err)
		return 0
	}

	id, err := s.db.SaveAnalysis(&database.AnalysisRecord{
		Source:       result.Source,
		Prompt:       s.cfg.AnalysisPrompt,
		RawText:      rawText,
		SectionsJSON: string(sectionsJSON),
		ImageSize:    imageSize,
		MimeType:     mimeType,
	})
	if err != nil {
		log.Errorf("Failed to record analysis history: %v", err)
		return 0
	}
	return id
}

// publishAnalyzed emits the completed analysis when AMQP is configured.
// Best-effort, like the history write.
func (s *Service) publishAnalyzed(result *Result, historyID int64, imageSize int, mimeType string) {
	if s.publisher == nil {
		return
	}

	event := AnalyzedEvent{
		HistoryID: historyID,
		Source:    result.Source,
		Sections:  result.Sections,
		ImageSize: imageSize,
		MimeType:  mimeType,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(event); err != nil {
		log.Errorf("Failed to publish analyzed event: %v", err)
	}
}
