package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartlearn/internal/learning"
	"smartlearn/internal/models"
)

func mcqQuiz() *models.Quiz {
	return &models.Quiz{
		ID:             "quiz1",
		QuizType:       models.QuizTypeMCQ,
		TotalQuestions: 4,
		Questions: []models.QuizQuestion{
			{Question: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "b"},
			{Question: "q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"},
			{Question: "q3", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "d"},
			{Question: "q4", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "c"},
		},
		CreatedAt: time.Now(),
	}
}

func saqQuiz() *models.Quiz {
	return &models.Quiz{
		ID:             "quiz2",
		QuizType:       models.QuizTypeSAQ,
		TotalQuestions: 3,
		Questions: []models.QuizQuestion{
			{Question: "q1", CorrectAnswer: "model answer 1"},
			{Question: "q2", CorrectAnswer: "model answer 2"},
			{Question: "q3", CorrectAnswer: "model answer 3"},
		},
		CreatedAt: time.Now(),
	}
}

func TestEvaluateMCQScoring(t *testing.T) {
	e := NewEvaluator(&fakeLLM{}, testLogger())
	quiz := mcqQuiz()

	// Correct, wrong, blank, correct: 2 of 4 count, blanks count against.
	answers := []models.AnswerValue{
		models.ChoiceAnswer(1),
		models.ChoiceAnswer(3),
		{},
		models.ChoiceAnswer(2),
	}
	result, err := e.Evaluate(context.Background(), quiz, answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 50 {
		t.Errorf("got score %v, want 50", result.Score)
	}
	if !quiz.IsAttempted || quiz.AttemptedAt == nil {
		t.Error("quiz not marked attempted")
	}
	if quiz.Score != 50 {
		t.Errorf("quiz score not recorded: %v", quiz.Score)
	}
	if quiz.Questions[0].IsCorrect == nil || !*quiz.Questions[0].IsCorrect {
		t.Error("first answer should be correct")
	}
	if quiz.Questions[2].IsCorrect == nil || *quiz.Questions[2].IsCorrect {
		t.Error("blank answer should be wrong")
	}
}

func TestEvaluateMCQCollectsTopics(t *testing.T) {
	e := NewEvaluator(&fakeLLM{}, testLogger())
	quiz := mcqQuiz()

	answers := []models.AnswerValue{
		models.ChoiceAnswer(1),
		models.ChoiceAnswer(3),
		{},
		models.ChoiceAnswer(2),
	}
	result, err := e.Evaluate(context.Background(), quiz, answers)
	if err != nil {
		t.Fatal(err)
	}
	// Correct questions land in strengths, wrong and blank ones in weaknesses.
	if len(result.Strengths) != 2 || result.Strengths[0] != "q1" || result.Strengths[1] != "q4" {
		t.Errorf("strengths = %v, want [q1 q4]", result.Strengths)
	}
	if len(result.Weaknesses) != 2 || result.Weaknesses[0] != "q2" || result.Weaknesses[1] != "q3" {
		t.Errorf("weaknesses = %v, want [q2 q3]", result.Weaknesses)
	}
}

func TestEvaluateScoreRoundsToWholePercent(t *testing.T) {
	e := NewEvaluator(&fakeLLM{}, testLogger())
	quiz := mcqQuiz()
	quiz.TotalQuestions = 3
	quiz.Questions = quiz.Questions[:3]

	// 2 of 3 correct rounds to 67, not 66.67.
	answers := []models.AnswerValue{
		models.ChoiceAnswer(1),
		models.ChoiceAnswer(0),
		models.ChoiceAnswer(0),
	}
	result, err := e.Evaluate(context.Background(), quiz, answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 67 {
		t.Errorf("got score %v, want 67", result.Score)
	}
}

func TestEvaluateRejectsSecondAttempt(t *testing.T) {
	e := NewEvaluator(&fakeLLM{}, testLogger())
	quiz := mcqQuiz()
	quiz.IsAttempted = true

	_, err := e.Evaluate(context.Background(), quiz, make([]models.AnswerValue, 4))
	if !errors.Is(err, learning.ErrQuizAlreadyAttempted) {
		t.Fatalf("got %v, want ErrQuizAlreadyAttempted", err)
	}
}

func TestEvaluateRejectsAnswerCountMismatch(t *testing.T) {
	e := NewEvaluator(&fakeLLM{}, testLogger())
	if _, err := e.Evaluate(context.Background(), mcqQuiz(), make([]models.AnswerValue, 2)); err == nil {
		t.Error("expected error for mismatched answer count")
	}
}

func TestEvaluateWrittenAnswers(t *testing.T) {
	llm := &fakeLLM{replies: []string{
		`{"isCorrect": true, "similarity": 90, "feedback": "Good.", "strengths": ["osmosis"], "weaknesses": []}`,
		`{"isCorrect": false, "similarity": 30, "feedback": "Missed the key point.", "strengths": [], "weaknesses": ["diffusion"]}`,
	}}
	e := NewEvaluator(llm, testLogger())
	quiz := saqQuiz()

	// Two answered, one blank: blanks are skipped, score is 1 of 2.
	answers := []models.AnswerValue{
		models.TextAnswer("water moves across the membrane"),
		models.TextAnswer("something vague"),
		{},
	}
	result, err := e.Evaluate(context.Background(), quiz, answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 50 {
		t.Errorf("got score %v, want 50", result.Score)
	}
	if llm.calls != 2 {
		t.Errorf("judge called %d times, want 2 (blank skipped)", llm.calls)
	}
	if len(result.Strengths) != 1 || result.Strengths[0] != "osmosis" {
		t.Errorf("strengths not collected: %v", result.Strengths)
	}
	if len(result.Weaknesses) != 1 || result.Weaknesses[0] != "diffusion" {
		t.Errorf("weaknesses not collected: %v", result.Weaknesses)
	}
	if quiz.Questions[0].Similarity == nil || *quiz.Questions[0].Similarity != 90 {
		t.Error("similarity not recorded")
	}
	if quiz.Questions[2].Feedback != "No answer provided." {
		t.Errorf("blank feedback: %q", quiz.Questions[2].Feedback)
	}
}

func TestEvaluateSimilarityUsesPercentScale(t *testing.T) {
	llm := &fakeLLM{replies: []string{
		`{"isCorrect": true, "similarity": 85, "feedback": "Close.", "strengths": [], "weaknesses": []}`,
		`{"isCorrect": true, "similarity": 150, "feedback": "Over.", "strengths": [], "weaknesses": []}`,
		`{"isCorrect": false, "similarity": -5, "feedback": "Under.", "strengths": [], "weaknesses": []}`,
	}}
	e := NewEvaluator(llm, testLogger())
	quiz := saqQuiz()

	answers := []models.AnswerValue{
		models.TextAnswer("first"),
		models.TextAnswer("second"),
		models.TextAnswer("third"),
	}
	if _, err := e.Evaluate(context.Background(), quiz, answers); err != nil {
		t.Fatal(err)
	}
	// Similarity is a 0-100 percentage; out-of-range values are clamped.
	if quiz.Questions[0].Similarity == nil || *quiz.Questions[0].Similarity != 85 {
		t.Errorf("similarity = %v, want 85", quiz.Questions[0].Similarity)
	}
	if quiz.Questions[1].Similarity == nil || *quiz.Questions[1].Similarity != 100 {
		t.Errorf("similarity = %v, want clamp to 100", quiz.Questions[1].Similarity)
	}
	if quiz.Questions[2].Similarity == nil || *quiz.Questions[2].Similarity != 0 {
		t.Errorf("similarity = %v, want clamp to 0", quiz.Questions[2].Similarity)
	}
}

func TestEvaluateAllBlankWrittenScoresZero(t *testing.T) {
	llm := &fakeLLM{}
	e := NewEvaluator(llm, testLogger())
	quiz := saqQuiz()

	result, err := e.Evaluate(context.Background(), quiz, make([]models.AnswerValue, 3))
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 0 {
		t.Errorf("got score %v, want 0", result.Score)
	}
	if llm.calls != 0 {
		t.Error("judge should not be called for blank answers")
	}
}

func TestEvaluateDegradesPerQuestionOnJudgeFailure(t *testing.T) {
	llm := &fakeLLM{
		errs: []error{errors.New("judge down"), nil},
		replies: []string{
			"",
			`{"isCorrect": true, "similarity": 100, "feedback": "Exact.", "strengths": [], "weaknesses": []}`,
		},
	}
	e := NewEvaluator(llm, testLogger())
	quiz := saqQuiz()

	answers := []models.AnswerValue{
		models.TextAnswer("first"),
		models.TextAnswer("second"),
		{},
	}
	result, err := e.Evaluate(context.Background(), quiz, answers)
	if err != nil {
		t.Fatal(err)
	}
	// The failed judgement counts as answered but wrong.
	if result.Score != 50 {
		t.Errorf("got score %v, want 50", result.Score)
	}
	if quiz.Questions[0].Feedback != "Could not evaluate this answer." {
		t.Errorf("fallback feedback missing: %q", quiz.Questions[0].Feedback)
	}
}

func TestEvaluateHandlesGarbageJudgeReply(t *testing.T) {
	llm := &fakeLLM{replies: []string{"not json at all"}}
	e := NewEvaluator(llm, testLogger())
	quiz := saqQuiz()

	answers := []models.AnswerValue{
		models.TextAnswer("something"),
		{},
		{},
	}
	result, err := e.Evaluate(context.Background(), quiz, answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 0 {
		t.Errorf("got score %v, want 0", result.Score)
	}
	if quiz.Questions[0].Feedback != "Could not evaluate this answer." {
		t.Errorf("fallback feedback missing: %q", quiz.Questions[0].Feedback)
	}
}
