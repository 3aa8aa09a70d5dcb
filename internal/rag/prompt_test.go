package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gostrag/internal/domain"
)

func TestBuildPromptNumbersPassages(t *testing.T) {
	hits := []domain.SearchHit{
		{Record: domain.Record{Text: "C235 yield strength is 235 MPa.", Metadata: map[string]string{"source": "gost.txt"}}},
		{Record: domain.Record{Text: "C245 yield strength is 245 MPa."}},
	}
	prompt := buildPrompt("", "What about C235?", hits)

	assert.Contains(t, prompt, "[1] (source: gost.txt)\nC235 yield strength is 235 MPa.")
	assert.Contains(t, prompt, "[2]\nC245 yield strength is 245 MPa.")
	assert.Contains(t, prompt, "Question: What about C235?")
	assert.NotContains(t, prompt, "{context}")
	assert.NotContains(t, prompt, "{question}")
}

func TestBuildPromptCustomTemplate(t *testing.T) {
	prompt := buildPrompt("Q={question} CTX={context}", "why", nil)
	assert.Equal(t, "Q=why CTX=", prompt)
}

func TestExtractQuestion(t *testing.T) {
	q := extractQuestion("C235")
	assert.Contains(t, q, "steel strength class C235")
	assert.Contains(t, q, "mass fraction of elements in %")
	assert.Contains(t, q, "mentioned in the context of C235")
}
