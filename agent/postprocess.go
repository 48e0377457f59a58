package agent

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// PostProcessDraft validates model output and fills the derived fields.
func PostProcessDraft(raw string) (DraftResult, error) {
	md := strings.TrimSpace(raw)
	if md == "" {
		return DraftResult{}, errors.New("model returned empty document")
	}

	title := extractTitle(md)
	digest := extractDigest(md)
	if digest == "" {
		digest = defaultDigest(md, 160)
	}

	return DraftResult{
		Title:    title,
		Digest:   digest,
		Markdown: md,
	}, nil
}

var titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// The digest is the first non-heading paragraph line.
func extractDigest(md string) string {
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}

func defaultDigest(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	if len(joined) <= limit {
		return joined
	}
	return joined[:limit]
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON pulls the first JSON object out of model output, tolerating
// code fences and prose around it. Returns "" when nothing parseable exists.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if gjson.Valid(raw) && strings.HasPrefix(raw, "{") {
		return raw
	}
	if m := fenceRe.FindStringSubmatch(raw); len(m) >= 2 {
		candidate := strings.TrimSpace(m[1])
		if gjson.Valid(candidate) {
			return candidate
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		candidate := raw[start : end+1]
		if gjson.Valid(candidate) {
			return candidate
		}
	}
	return ""
}
