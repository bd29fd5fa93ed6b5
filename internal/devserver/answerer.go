// ABOUTME: Answer composition from retrieved passages
// ABOUTME: Extractive by default; Gemini via google.golang.org/genai when a key is configured

package devserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"
)

// noAnswer is returned when nothing relevant is indexed.
const noAnswer = "I don't know. None of the uploaded documents cover that."

// Answerer turns a question and its retrieved passages into answer text.
type Answerer interface {
	Answer(ctx context.Context, question string, passages []Passage) (string, error)
}

// ExtractiveAnswerer answers with the sentences of the retrieved passages
// that best match the question.
type ExtractiveAnswerer struct{}

// maxExtractSentences bounds an extractive answer.
const maxExtractSentences = 2

// Answer implements Answerer.
func (ExtractiveAnswerer) Answer(_ context.Context, question string, passages []Passage) (string, error) {
	if len(passages) == 0 {
		return noAnswer, nil
	}

	want := terms(question)
	type candidate struct {
		text  string
		score int
		order int
	}
	var cands []candidate
	for _, p := range passages {
		for _, sentence := range splitSentences(p.Text) {
			have := terms(sentence)
			score := 0
			for t := range want {
				if have[t] {
					score++
				}
			}
			if score > 0 {
				cands = append(cands, candidate{text: sentence, score: score, order: len(cands)})
			}
		}
	}
	if len(cands) == 0 {
		return noAnswer, nil
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > maxExtractSentences {
		cands = cands[:maxExtractSentences]
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].order < cands[j].order })

	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = c.text
	}
	return strings.Join(parts, " "), nil
}

// splitSentences cuts text after '.', '!' or '?' followed by whitespace, and at newlines.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, strings.Join(strings.Fields(s), " "))
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n') {
			flush()
		}
	}
	flush()
	return out
}

const geminiSystemPrompt = `You are Genia, a helpful assistant.
Answer using only the numbered context passages.
If the context does not contain the answer, say you don't know.`

// GeminiAnswerer generates answers with a Gemini model.
type GeminiAnswerer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnswerer creates a Gemini-backed answerer.
func NewGeminiAnswerer(ctx context.Context, apiKey, model string) (*GeminiAnswerer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiAnswerer{client: client, model: model}, nil
}

// Answer implements Answerer.
func (g *GeminiAnswerer) Answer(ctx context.Context, question string, passages []Passage) (string, error) {
	if len(passages) == 0 {
		return noAnswer, nil
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(buildPrompt(question, passages)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(geminiSystemPrompt, genai.RoleUser),
		})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}

// buildPrompt numbers the passages with their sources ahead of the question.
func buildPrompt(question string, passages []Passage) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] (%s) %s\n\n", i+1, p.Source, p.Text)
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}
