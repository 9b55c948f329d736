package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// citationPattern matches the page markers the model is instructed to emit,
// e.g. "[page 12]".
var citationPattern = regexp.MustCompile(`(?i)\[page\s+(\d+)\]`)

// Synthesizer turns retrieved chunks plus conversation history into a
// grounded answer with page citations.
type Synthesizer struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(llm interfaces.LLM, log *logger.Logger) *Synthesizer {
	return &Synthesizer{llm: llm, log: log}
}

// Run generates an answer grounded in the retrieved chunks. The returned
// citations are the subset of retrieved pages the answer actually references,
// deduplicated in order of first mention. A transient generation failure is
// retried once; a second failure surfaces as ErrGenerationFailed.
func (s *Synthesizer) Run(ctx context.Context, question string, retrieved []models.Citation, history []models.ChatMessage) (string, []models.Citation, error) {
	prompt := s.buildPrompt(question, retrieved)

	answer, err := s.llm.Generate(ctx, history, prompt)
	if err != nil {
		s.log.WithError(err).Warn("answer generation failed, retrying once")
		answer, err = s.llm.Generate(ctx, history, prompt)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", learning.ErrGenerationFailed, err)
		}
	}

	return answer, extractCitations(answer, retrieved), nil
}

// buildPrompt assembles the grounded prompt: each retrieved chunk is labeled
// with its page marker so the model can cite it back verbatim.
func (s *Synthesizer) buildPrompt(question string, retrieved []models.Citation) string {
	var b strings.Builder

	b.WriteString("You are a study assistant answering questions about a textbook the student uploaded.\n")
	if len(retrieved) == 0 {
		b.WriteString("No relevant excerpts were found in the textbook for this question. ")
		b.WriteString("Say so, and answer only from the conversation so far if possible.\n")
	} else {
		b.WriteString("Answer using ONLY the textbook excerpts below. ")
		b.WriteString("When a statement comes from an excerpt, cite it inline with its page marker, e.g. [page 3]. ")
		b.WriteString("If the excerpts do not cover the question, say the material does not cover it.\n\n")
		b.WriteString("Textbook excerpts:\n")
		for _, c := range retrieved {
			b.WriteString(fmt.Sprintf("[page %d]\n%s\n\n", c.PageNumber, c.Content))
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// extractCitations collects the page markers present in the answer and maps
// them back to the retrieved chunks. Markers for pages that were never
// retrieved are dropped, so a hallucinated page number cannot become a
// citation.
func extractCitations(answer string, retrieved []models.Citation) []models.Citation {
	byPage := make(map[int]models.Citation, len(retrieved))
	for _, c := range retrieved {
		if _, ok := byPage[c.PageNumber]; !ok {
			byPage[c.PageNumber] = c
		}
	}

	var cited []models.Citation
	seen := make(map[int]bool)
	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		page, err := strconv.Atoi(match[1])
		if err != nil || seen[page] {
			continue
		}
		if c, ok := byPage[page]; ok {
			cited = append(cited, c)
			seen[page] = true
		}
	}
	return cited
}
