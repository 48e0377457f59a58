package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostProcessDraft(t *testing.T) {
	dr, err := PostProcessDraft("# Demand Letter\n\nThis letter demands payment of KES 50,000.\n\n## Background\n")
	require.NoError(t, err)
	assert.Equal(t, "Demand Letter", dr.Title)
	assert.Equal(t, "This letter demands payment of KES 50,000.", dr.Digest)
	assert.Contains(t, dr.Markdown, "## Background")
}

func TestPostProcessDraftNoHeading(t *testing.T) {
	dr, err := PostProcessDraft("Just a body line.\nSecond line.")
	require.NoError(t, err)
	assert.Empty(t, dr.Title)
	assert.Equal(t, "Just a body line.", dr.Digest)
}

func TestPostProcessDraftEmpty(t *testing.T) {
	_, err := PostProcessDraft("   \n ")
	require.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose wrapped", `Sure, here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"no json", "there is nothing structured here", ""},
		{"broken json", `{"a": `, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.raw))
		})
	}
}
