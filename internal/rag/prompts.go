package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

var classifierPrompt = prompts.NewPromptTemplate(`You are a strict classifier. Determine if the following content is related to
health, medicine, diseases, symptoms, treatments, or healthcare.
Reply only with YES or NO.

Content: "{{.text}}"`, []string{"text"})

var generatorPrompt = prompts.NewPromptTemplate(`You are an AI Doctor assistant.
Use the following context from the knowledge base to answer the user's health-related question.
If the question is not health related, still give a helpful and correct answer.

Context (from knowledge base):
{{.context}}

Question:
{{.query}}

Raw Answer:`, []string{"context", "query"})

var refinerPrompt = prompts.NewPromptTemplate(`You are a knowledgeable medical AI.
Refine and expand the raw answer using both:
1. The raw answer from another model (based on the medical knowledge base)
2. Additional verified context from web search

Requirements:
- Make the answer accurate and fact-checked
- Clear and concise
- Easy to understand for a patient
- Structured: use bullet points or steps if helpful
- Include a short summary at the end
- Professional but friendly tone

Question:
{{.query}}

Raw Answer:
{{.raw_answer}}

Extra Web Context:
{{.extra_context}}

Final Refined Answer:`, []string{"query", "raw_answer", "extra_context"})

func render(t prompts.PromptTemplate, values map[string]any) (string, error) {
	out, err := t.Format(values)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}
