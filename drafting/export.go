package drafting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/yuin/goldmark"
)

// Export renders the latest approved version (falling back to the newest
// version) in the requested format. Supported: json, txt, md, html.
func (s *Service) Export(draftID, userID, format string) ([]byte, string, string, error) {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return nil, "", "", err
	}

	s.store.mu.Lock()
	v := d.LatestApproved()
	if v == nil {
		s.store.mu.Unlock()
		return nil, "", "", ErrNoVersions
	}
	body := gjson.Get(v.Content, "body").String()
	title := gjson.Get(v.Content, "title").String()
	envelope := map[string]any{
		"draft": map[string]any{
			"id":           d.ID,
			"title":        d.Title,
			"documentType": d.DocumentType,
			"status":       d.Status,
			"createdAt":    d.CreatedAt,
			"updatedAt":    d.UpdatedAt,
		},
		"version":    v.clone(),
		"exportedAt": time.Now(),
	}
	s.store.mu.Unlock()

	base := fmt.Sprintf("draft_%s", d.ID)
	switch format {
	case "json":
		data, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return nil, "", "", err
		}
		return data, "application/json", base + ".json", nil
	case "md":
		return []byte(body), "text/markdown; charset=utf-8", base + ".md", nil
	case "txt":
		return []byte(markdownToText(body, title)), "text/plain; charset=utf-8", base + ".txt", nil
	case "html":
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(body), &buf); err != nil {
			return nil, "", "", fmt.Errorf("render html: %w", err)
		}
		return buf.Bytes(), "text/html; charset=utf-8", base + ".html", nil
	default:
		return nil, "", "", ErrUnsupportedFormat
	}
}

// markdownToText strips the lightest markdown furniture for plain-text
// export. Heading markers go, everything else stays.
func markdownToText(md, title string) string {
	var buf bytes.Buffer
	if title != "" {
		buf.WriteString(title)
		buf.WriteString("\n\n")
	}
	for _, line := range bytes.Split([]byte(md), []byte("\n")) {
		trimmed := bytes.TrimLeft(line, "# ")
		if title != "" && string(trimmed) == title {
			continue
		}
		buf.Write(trimmed)
		buf.WriteByte('\n')
	}
	return buf.String()
}
