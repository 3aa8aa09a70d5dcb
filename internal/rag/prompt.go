package rag

import (
	"fmt"
	"strings"

	"gostrag/internal/domain"
)

// defaultPromptTemplate is the grounded question-answering prompt. The
// retrieved passages are included verbatim and numbered so answers can
// be attributed back to their sources.
const defaultPromptTemplate = `You are an assistant for analyzing GOST standard documents.
Answer the question using only the context passages below. If the
context does not contain the answer, say so. Reference passages by
their number when helpful.

Context:
{context}

Question: {question}

Answer:`

// extractQuestionTemplate is the structured-extraction question for a
// steel strength class. It rides the regular query pipeline; only the
// question text differs.
const extractQuestionTemplate = `Extract all available information about steel strength class %s from the GOST 27772 document.

Find and structure the following:
1. Chemical composition (mass fraction of elements in %%)
2. Mechanical properties (yield strength, tensile strength, elongation, impact toughness)
3. Permissible deviations
4. Testing requirements
5. Product range and assortment information
6. References to other standards mentioned in the context of %s

Present the information in a structured form with concrete values and ranges.`

func buildPrompt(template, question string, hits []domain.SearchHit) string {
	if template == "" {
		template = defaultPromptTemplate
	}
	var ctx strings.Builder
	for i, h := range hits {
		if i > 0 {
			ctx.WriteString("\n\n")
		}
		fmt.Fprintf(&ctx, "[%d]", i+1)
		if src := h.Metadata["source"]; src != "" {
			fmt.Fprintf(&ctx, " (source: %s)", src)
		}
		ctx.WriteString("\n")
		ctx.WriteString(h.Text)
	}
	out := strings.ReplaceAll(template, "{context}", ctx.String())
	out = strings.ReplaceAll(out, "{question}", question)
	return out
}

func extractQuestion(className string) string {
	return fmt.Sprintf(extractQuestionTemplate, className, className)
}
