package agent

import (
	"context"
	"log"
	"strings"

	"github.com/tidwall/gjson"
)

// Analyzer inspects a chat transcript for document-creation intent. The
// model gets the first word; keyword matching covers malformed output.
type Analyzer struct {
	llm LLMClient
}

func NewAnalyzer(llm LLMClient) *Analyzer {
	return &Analyzer{llm: llm}
}

func (a *Analyzer) Analyze(ctx context.Context, transcript string) Analysis {
	raw, err := a.llm.Complete(ctx, BuildAnalysisPrompt(transcript))
	if err != nil {
		log.Printf("[analyzer] model call failed, using keyword detection: %v", err)
		return analyzeByKeywords(transcript)
	}

	doc := ExtractJSON(raw)
	if doc == "" {
		return analyzeByKeywords(transcript)
	}

	an := Analysis{
		HasDocumentIntent: gjson.Get(doc, "has_document_intent").Bool(),
		DocumentType:      gjson.Get(doc, "document_type").String(),
		Confidence:        gjson.Get(doc, "confidence").Float(),
	}
	for _, p := range gjson.Get(doc, "parties").Array() {
		an.Parties = append(an.Parties, p.String())
	}
	for _, t := range gjson.Get(doc, "key_terms").Array() {
		an.KeyTerms = append(an.KeyTerms, t.String())
	}
	for _, mi := range gjson.Get(doc, "missing_info").Array() {
		an.MissingInfo = append(an.MissingInfo, mi.String())
	}
	if an.HasDocumentIntent && !knownDocumentType(an.DocumentType) {
		an.DocumentType = "custom_document"
	}
	return an
}

func knownDocumentType(dt string) bool {
	for _, t := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

func analyzeByKeywords(transcript string) Analysis {
	lower := strings.ToLower(transcript)
	if !containsAny(lower, []string{"draft", "write", "prepare", "create", "generate"}) {
		return Analysis{}
	}
	an := Analysis{HasDocumentIntent: true, DocumentType: "custom_document", Confidence: 0.5}
	for _, dt := range DocumentTypes {
		if dt == "custom_document" {
			continue
		}
		if strings.Contains(lower, strings.ReplaceAll(dt, "_", " ")) || strings.Contains(lower, dt) {
			an.DocumentType = dt
			an.Confidence = 0.7
			break
		}
	}
	return an
}
