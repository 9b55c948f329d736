package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/learning/rag/pipeline"
	"smartlearn/internal/llm"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

const (
	// MinQuestions and MaxQuestions bound how many questions one quiz holds.
	MinQuestions = 3
	MaxQuestions = 15

	// fullTextLimit is the document size up to which the whole text goes
	// into the generation prompt. Larger documents are sampled through
	// retrieval instead.
	fullTextLimit = 15000

	conceptQuery = "key concepts, main ideas and important definitions"
	conceptTopK  = 8
)

// rawQuestion is the JSON shape the model is asked to produce.
type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Generator produces quizzes from a document's content using the LLM,
// sampling large documents through the retriever.
type Generator struct {
	llm       interfaces.LLM
	retriever *pipeline.Retriever
	log       *logger.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(llm interfaces.LLM, retriever *pipeline.Retriever, log *logger.Logger) *Generator {
	return &Generator{llm: llm, retriever: retriever, log: log}
}

// Generate builds a quiz of the given type over the document. The question
// count is clamped to [MinQuestions, MaxQuestions]. Model output that does
// not validate against the quiz type surfaces as ErrQuizValidationFailed.
func (g *Generator) Generate(ctx context.Context, doc *models.Document, quizType models.QuizType, n int) (*models.Quiz, error) {
	if !models.ValidQuizType(quizType) {
		return nil, fmt.Errorf("unknown quiz type %q", quizType)
	}
	if n < MinQuestions {
		n = MinQuestions
	}
	if n > MaxQuestions {
		n = MaxQuestions
	}

	source := g.sourceText(ctx, doc)
	prompt := buildQuizPrompt(quizType, n, source)

	reply, err := g.llm.Generate(ctx, nil, prompt)
	if err != nil {
		g.log.WithError(err).Warn("quiz generation failed, retrying once")
		reply, err = g.llm.Generate(ctx, nil, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", learning.ErrGenerationFailed, err)
		}
	}

	questions, err := parseQuestions(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", learning.ErrQuizValidationFailed, err)
	}
	if err := validateQuestions(quizType, n, questions); err != nil {
		return nil, fmt.Errorf("%w: %v", learning.ErrQuizValidationFailed, err)
	}

	quiz := &models.Quiz{
		ID:             uuid.NewString(),
		QuizType:       quizType,
		TotalQuestions: len(questions),
		Questions:      make([]models.QuizQuestion, 0, len(questions)),
		CreatedAt:      time.Now(),
	}
	for _, q := range questions {
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return quiz, nil
}

// sourceText picks the content the questions are generated from. Small
// documents go in whole; large ones are sampled by retrieving the chunks
// closest to a generic key-concept query. If sampling fails, the document
// is truncated instead of failing the generation.
func (g *Generator) sourceText(ctx context.Context, doc *models.Document) string {
	var full strings.Builder
	for _, page := range doc.Pages {
		if page.Text == "" {
			continue
		}
		full.WriteString(page.Text)
		full.WriteString("\n\n")
	}
	text := full.String()
	if len(text) <= fullTextLimit {
		return text
	}

	citations, err := g.retriever.Run(ctx, doc.IndexID, conceptQuery, conceptTopK)
	if err != nil || len(citations) == 0 {
		if err != nil {
			g.log.WithError(err).Warn(fmt.Sprintf("concept sampling failed for '%s', truncating full text", doc.IndexID))
		}
		return text[:fullTextLimit]
	}

	var sampled strings.Builder
	for _, c := range citations {
		sampled.WriteString(c.Content)
		sampled.WriteString("\n\n")
	}
	return sampled.String()
}

func buildQuizPrompt(quizType models.QuizType, n int, source string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Generate exactly %d quiz questions from the study material below.\n", n))

	switch quizType {
	case models.QuizTypeMCQ:
		b.WriteString("Each question is multiple choice with exactly 4 options, one of which is correct.\n")
		b.WriteString(`Respond with ONLY a JSON array, no other text, where each element is: {"question": string, "options": [4 strings], "correctAnswer": string (must equal one of the options), "explanation": string}.`)
	case models.QuizTypeSAQ:
		b.WriteString("Each question is a short answer question answerable in one or two sentences.\n")
		b.WriteString(`Respond with ONLY a JSON array, no other text, where each element is: {"question": string, "correctAnswer": string (the model answer), "explanation": string}.`)
	case models.QuizTypeLAQ:
		b.WriteString("Each question is a long answer question requiring a detailed paragraph-length answer.\n")
		b.WriteString(`Respond with ONLY a JSON array, no other text, where each element is: {"question": string, "correctAnswer": string (a thorough model answer), "explanation": string}.`)
	}

	b.WriteString("\n\nStudy material:\n")
	b.WriteString(source)
	return b.String()
}

// parseQuestions extracts the question array from the model reply.
func parseQuestions(reply string) ([]rawQuestion, error) {
	payload := llm.ExtractJSONArray(reply)
	if payload == "" {
		return nil, fmt.Errorf("no JSON array in model reply")
	}
	var questions []rawQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, fmt.Errorf("malformed question array: %v", err)
	}
	return questions, nil
}

func validateQuestions(quizType models.QuizType, want int, questions []rawQuestion) error {
	if len(questions) != want {
		return fmt.Errorf("model produced %d questions, want %d", len(questions), want)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %d has empty text", i+1)
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("question %d has no answer", i+1)
		}
		if quizType == models.QuizTypeMCQ {
			if len(q.Options) < 2 {
				return fmt.Errorf("question %d has %d options, want at least 2", i+1, len(q.Options))
			}
			found := false
			for _, opt := range q.Options {
				if opt == q.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("question %d answer is not among its options", i+1)
			}
		}
	}
	return nil
}
