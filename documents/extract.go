package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wakili_legal_assistant/agent"
)

// ExtractorClient talks to the external extraction service that converts
// PDF/DOCX files to text. A nil client means no service is configured and
// only plain-text files can be read.
type ExtractorClient struct {
	baseURL string
	client  *http.Client
}

func NewExtractorClient(baseURL string, client *http.Client) *ExtractorClient {
	if baseURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &ExtractorClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type extractResp struct {
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// ExtractText uploads the file and returns the extracted plain text.
func (c *ExtractorClient) ExtractText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extractor request: %w", err)
	}
	defer resp.Body.Close()

	var er extractResp
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return "", fmt.Errorf("extractor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := er.Error
		if msg == "" {
			msg = er.Detail
		}
		return "", fmt.Errorf("extractor returned %d: %s", resp.StatusCode, msg)
	}
	if strings.TrimSpace(er.Text) == "" {
		return "", fmt.Errorf("extractor returned no text for %s", filepath.Base(path))
	}
	return er.Text, nil
}

// plainTextExts are read directly when no extractor service is configured.
var plainTextExts = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true, ".html": true,
}

// Extract pulls text out of a stored document and has the extraction agent
// structure it. Returns the structured JSON.
func (s *Service) Extract(ctx context.Context, filename, userID string, extractor *agent.ExtractionAgent) (string, error) {
	path, err := s.Path(filename)
	if err != nil {
		return "", err
	}

	var text string
	if s.extractor != nil {
		text, err = s.extractor.ExtractText(ctx, path)
	} else {
		text, err = readPlainText(path)
	}
	if err != nil {
		return "", err
	}

	doc, err := extractor.Extract(ctx, text)
	if err != nil {
		return "", err
	}
	s.logEvent("extract", filepath.Base(path), userID, "")
	return doc, nil
}

func readPlainText(path string) (string, error) {
	if !plainTextExts[strings.ToLower(filepath.Ext(path))] {
		return "", fmt.Errorf("no extractor configured for %s files", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}
