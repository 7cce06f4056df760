// Package extractor recovers the fixed job-posting field schema from saved
// LinkedIn HTML documents. The page markup offers no stable API, so each
// known template version gets its own extraction strategy built on
// positional and attribute-heuristic anchors.
package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobdex/pkg/models"
)

// Supported template versions
const (
	TemplatePositional = "positional"
	TemplateLabeled    = "labeled"
	TemplateAuto       = "auto"
)

// Extractor defines the interface for all template extraction strategies
type Extractor interface {
	// Extract produces a job record from a parsed posting document
	Extract(doc *goquery.Document) (*models.JobRecord, error)

	// Template returns the template version this extractor handles
	Template() string
}

// ExtractionError indicates a document whose structure does not match the
// expected template: a required anchor is missing or malformed. Extraction
// failures are never retried.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}

// Parse parses raw HTML into a document tree ready for extraction
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Reason: "unparseable document: " + err.Error()}
	}
	return doc, nil
}

// Factory creates extractors based on template version
type Factory struct{}

// NewFactory creates a new extractor factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateExtractor creates a new extractor instance for the given template.
// An empty template selects trial-and-fallback across all known templates.
func (f *Factory) CreateExtractor(template string) (Extractor, error) {
	switch template {
	case TemplatePositional:
		return &positionalExtractor{}, nil
	case TemplateLabeled:
		return &labeledExtractor{}, nil
	case TemplateAuto, "":
		// The labeled strategy is tried first. Inside the chain it runs
		// strict, rejecting documents that carry no labels at all, so the
		// positional strategy gets its turn; an explicit labeled hint
		// stays lenient and treats absent groups as null fields.
		return &autoExtractor{chain: []Extractor{&labeledExtractor{requireLabels: true}, &positionalExtractor{}}}, nil
	default:
		return nil, fmt.Errorf("unsupported extraction template: %s", template)
	}
}

// SupportedTemplates returns a list of supported template versions
func (f *Factory) SupportedTemplates() []string {
	return []string{TemplatePositional, TemplateLabeled, TemplateAuto}
}

// autoExtractor tries each known template in order and returns the first
// successful extraction
type autoExtractor struct {
	chain []Extractor
}

func (e *autoExtractor) Template() string {
	return TemplateAuto
}

func (e *autoExtractor) Extract(doc *goquery.Document) (*models.JobRecord, error) {
	var lastErr error
	for _, ex := range e.chain {
		record, err := ex.Extract(doc)
		if err == nil {
			return record, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
