package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/llm"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// evaluationFallback is recorded for a written answer the judge could not
// score. The question then counts as answered but incorrect.
const evaluationFallback = "Could not evaluate this answer."

// rawEvaluation is the JSON rubric the judge model fills per written answer.
type rawEvaluation struct {
	IsCorrect  bool     `json:"isCorrect"`
	Similarity float64  `json:"similarity"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Result is the outcome of grading one quiz attempt.
type Result struct {
	Score      float64
	Strengths  []string
	Weaknesses []string
}

// Evaluator grades quiz attempts. Choice questions are graded by index
// comparison; written answers are judged by the LLM against the model answer.
type Evaluator struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(llm interfaces.LLM, log *logger.Logger) *Evaluator {
	return &Evaluator{llm: llm, log: log}
}

// Evaluate grades the answers against the quiz in place: per-question answer,
// verdict, similarity and feedback are written onto quiz.Questions, and the
// quiz is marked attempted. A quiz that was already attempted surfaces as
// ErrQuizAlreadyAttempted and is left untouched.
//
// Multiple choice scores count every question; written scores count only the
// questions that were answered, and an entirely blank written attempt scores
// zero.
func (e *Evaluator) Evaluate(ctx context.Context, quiz *models.Quiz, answers []models.AnswerValue) (*Result, error) {
	if quiz.IsAttempted {
		return nil, learning.ErrQuizAlreadyAttempted
	}
	if len(answers) != len(quiz.Questions) {
		return nil, fmt.Errorf("got %d answers for %d questions", len(answers), len(quiz.Questions))
	}

	var result *Result
	if quiz.QuizType == models.QuizTypeMCQ {
		result = e.evaluateChoice(quiz, answers)
	} else {
		result = e.evaluateWritten(ctx, quiz, answers)
	}

	quiz.Score = result.Score
	quiz.IsAttempted = true
	now := time.Now()
	quiz.AttemptedAt = &now
	return result, nil
}

func (e *Evaluator) evaluateChoice(quiz *models.Quiz, answers []models.AnswerValue) *Result {
	result := &Result{}
	correct := 0
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		q.UserAnswer = answers[i]

		isCorrect := answers[i].Kind == models.AnswerKindChoice &&
			answers[i].Choice == optionIndex(q.Options, q.CorrectAnswer)
		q.IsCorrect = &isCorrect
		// The question text doubles as the topic label for the learner's
		// strength and weakness sets.
		if isCorrect {
			correct++
			q.Feedback = "Correct."
			result.Strengths = mergeDistinct(result.Strengths, []string{q.Question})
		} else {
			q.Feedback = fmt.Sprintf("The correct answer is: %s", q.CorrectAnswer)
			result.Weaknesses = mergeDistinct(result.Weaknesses, []string{q.Question})
		}
	}

	result.Score = roundScore(correct, len(quiz.Questions))
	return result
}

func (e *Evaluator) evaluateWritten(ctx context.Context, quiz *models.Quiz, answers []models.AnswerValue) *Result {
	result := &Result{}
	correct, answered := 0, 0

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		q.UserAnswer = answers[i]

		if answers[i].IsBlank() {
			q.Feedback = "No answer provided."
			continue
		}
		answered++

		eval := e.judge(ctx, quiz.QuizType, q, answers[i].Text)
		q.IsCorrect = &eval.IsCorrect
		q.Similarity = &eval.Similarity
		q.Feedback = eval.Feedback
		if eval.IsCorrect {
			correct++
		}
		result.Strengths = mergeDistinct(result.Strengths, eval.Strengths)
		result.Weaknesses = mergeDistinct(result.Weaknesses, eval.Weaknesses)
	}

	if answered > 0 {
		result.Score = roundScore(correct, answered)
	}
	return result
}

// judge asks the LLM to grade one written answer. Judging is degraded per
// question: if the model fails or returns garbage the answer is marked
// incorrect with a fallback feedback instead of failing the whole attempt.
func (e *Evaluator) judge(ctx context.Context, quizType models.QuizType, q *models.QuizQuestion, answer string) rawEvaluation {
	prompt := buildJudgePrompt(quizType, q, answer)

	reply, err := e.llm.Generate(ctx, nil, prompt)
	if err != nil {
		e.log.WithError(err).Warn("answer judging failed")
		return rawEvaluation{Feedback: evaluationFallback}
	}

	payload := llm.ExtractJSONObject(reply)
	if payload == "" {
		e.log.Warn("judge reply contained no JSON object")
		return rawEvaluation{Feedback: evaluationFallback}
	}
	var eval rawEvaluation
	if err := json.Unmarshal([]byte(payload), &eval); err != nil {
		e.log.WithError(err).Warn("judge reply did not parse")
		return rawEvaluation{Feedback: evaluationFallback}
	}
	if eval.Similarity < 0 {
		eval.Similarity = 0
	}
	if eval.Similarity > 100 {
		eval.Similarity = 100
	}
	if strings.TrimSpace(eval.Feedback) == "" {
		eval.Feedback = evaluationFallback
	}
	return eval
}

func buildJudgePrompt(quizType models.QuizType, q *models.QuizQuestion, answer string) string {
	var b strings.Builder
	b.WriteString("You are grading a student's answer against a model answer.\n")
	if quizType == models.QuizTypeLAQ {
		b.WriteString("This is a long answer question; judge coverage and depth, not wording.\n")
	} else {
		b.WriteString("This is a short answer question; judge whether the key point matches.\n")
	}
	b.WriteString(`Respond with ONLY a JSON object: {"isCorrect": bool, "similarity": number from 0 to 100, "feedback": string for the student, "strengths": [short topic strings the student understands], "weaknesses": [short topic strings the student should review]}.`)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(q.Question)
	b.WriteString("\nModel answer: ")
	b.WriteString(q.CorrectAnswer)
	b.WriteString("\nStudent answer: ")
	b.WriteString(answer)
	return b.String()
}

func optionIndex(options []string, answer string) int {
	for i, opt := range options {
		if opt == answer {
			return i
		}
	}
	return -1
}

// roundScore converts correct/total into a percentage rounded to the nearest
// whole percent.
func roundScore(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(100 * float64(correct) / float64(total))
}

// mergeDistinct appends the items not already present, preserving order.
func mergeDistinct(existing, incoming []string) []string {
	for _, item := range incoming {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		found := false
		for _, have := range existing {
			if strings.EqualFold(have, item) {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, item)
		}
	}
	return existing
}
