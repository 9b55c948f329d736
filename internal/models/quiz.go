package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuizType enumerates the supported question formats.
type QuizType string

const (
	QuizTypeMCQ QuizType = "mcq" // single-choice questions
	QuizTypeSAQ QuizType = "saq" // short free-text answers
	QuizTypeLAQ QuizType = "laq" // long free-text answers
)

// ValidQuizType reports whether t is one of the supported quiz types.
func ValidQuizType(t QuizType) bool {
	return t == QuizTypeMCQ || t == QuizTypeSAQ || t == QuizTypeLAQ
}

// AnswerKind tags the variant held by an AnswerValue.
type AnswerKind string

const (
	AnswerKindNone        AnswerKind = ""             // blank, question was skipped
	AnswerKindText        AnswerKind = "text"         // free-text answer
	AnswerKindChoice      AnswerKind = "choice"       // single option index
	AnswerKindMultiChoice AnswerKind = "multi_choice" // multiple option indices
)

// AnswerValue is a tagged variant for a learner's answer to one question.
// On the wire it is a plain JSON string, number, array of numbers, or null;
// the tag is recovered during unmarshalling so the evaluator can check the
// answer shape against the quiz type instead of guessing.
type AnswerValue struct {
	Kind   AnswerKind `bson:"kind"`
	Text   string     `bson:"text,omitempty"`
	Choice int        `bson:"choice,omitempty"`
	Multi  []int      `bson:"multi,omitempty"`
}

// TextAnswer builds a free-text answer value.
func TextAnswer(text string) AnswerValue {
	if text == "" {
		return AnswerValue{}
	}
	return AnswerValue{Kind: AnswerKindText, Text: text}
}

// ChoiceAnswer builds a single-choice answer value.
func ChoiceAnswer(index int) AnswerValue {
	return AnswerValue{Kind: AnswerKindChoice, Choice: index}
}

// IsBlank reports whether the question was left unanswered.
func (a AnswerValue) IsBlank() bool {
	return a.Kind == AnswerKindNone
}

// UnmarshalJSON discriminates the wire shape: string, number, array or null.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*a = AnswerValue{}
		return nil
	case string:
		*a = TextAnswer(v)
		return nil
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("answer index must be an integer, got %v", v)
		}
		*a = ChoiceAnswer(int(v))
		return nil
	case []interface{}:
		indices := make([]int, 0, len(v))
		for _, item := range v {
			n, ok := item.(float64)
			if !ok || n != float64(int(n)) {
				return fmt.Errorf("answer index list must contain integers, got %v", item)
			}
			indices = append(indices, int(n))
		}
		*a = AnswerValue{Kind: AnswerKindMultiChoice, Multi: indices}
		return nil
	default:
		return fmt.Errorf("unsupported answer value type %T", raw)
	}
}

// MarshalJSON writes the variant back in its wire shape.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerKindNone:
		return []byte("null"), nil
	case AnswerKindText:
		return json.Marshal(a.Text)
	case AnswerKindChoice:
		return json.Marshal(a.Choice)
	case AnswerKindMultiChoice:
		return json.Marshal(a.Multi)
	default:
		return nil, fmt.Errorf("unknown answer kind %q", a.Kind)
	}
}

// QuizQuestion is a single generated question together with the grading
// state filled in once the quiz is attempted.
type QuizQuestion struct {
	Question      string      `bson:"question" json:"question"`
	Options       []string    `bson:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer string      `bson:"correct_answer" json:"correctAnswer"`
	Explanation   string      `bson:"explanation,omitempty" json:"explanation,omitempty"`
	UserAnswer    AnswerValue `bson:"user_answer,omitempty" json:"userAnswer,omitempty"`
	IsCorrect     *bool       `bson:"is_correct,omitempty" json:"isCorrect,omitempty"`
	Similarity    *float64    `bson:"similarity,omitempty" json:"similarity,omitempty"`
	Feedback      string      `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Quiz is a generated set of questions for one document. A quiz starts in
// the created state and becomes attempted exactly once; a retake is a new
// quiz, so attempted quizzes are never reopened.
type Quiz struct {
	ID             string         `bson:"id" json:"id"`
	QuizType       QuizType       `bson:"quiz_type" json:"quizType"`
	TotalQuestions int            `bson:"total_questions" json:"totalQuestions"`
	Questions      []QuizQuestion `bson:"questions" json:"questions"`
	Score          float64        `bson:"score" json:"score"`
	IsAttempted    bool           `bson:"is_attempted" json:"isAttempted"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`
	AttemptedAt    *time.Time     `bson:"attempted_at,omitempty" json:"attemptedAt,omitempty"`
}
