package quiz

import (
	"testing"

	"smartlearn/internal/models"
)

func TestUpdateProgressFirstAttempt(t *testing.T) {
	progress := models.NewLearnerProgress("42")
	UpdateProgress(progress, &Result{Score: 80, Strengths: []string{"algebra"}})

	if progress.TotalQuizzes != 1 {
		t.Errorf("got %d quizzes, want 1", progress.TotalQuizzes)
	}
	if progress.AverageScore != 80 {
		t.Errorf("got average %v, want 80", progress.AverageScore)
	}
	if len(progress.Strengths) != 1 {
		t.Errorf("strengths not recorded: %v", progress.Strengths)
	}
	if progress.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestUpdateProgressIncrementalMean(t *testing.T) {
	progress := models.NewLearnerProgress("42")
	for _, score := range []float64{100, 50, 75} {
		UpdateProgress(progress, &Result{Score: score})
	}

	if progress.TotalQuizzes != 3 {
		t.Errorf("got %d quizzes, want 3", progress.TotalQuizzes)
	}
	if progress.AverageScore != 75 {
		t.Errorf("got average %v, want 75", progress.AverageScore)
	}
}

func TestUpdateProgressRoundsAverage(t *testing.T) {
	progress := models.NewLearnerProgress("42")
	UpdateProgress(progress, &Result{Score: 100})
	UpdateProgress(progress, &Result{Score: 100})
	UpdateProgress(progress, &Result{Score: 0})

	// 200/3 rounded to 2 decimals.
	if progress.AverageScore != 66.67 {
		t.Errorf("got average %v, want 66.67", progress.AverageScore)
	}
}

func TestUpdateProgressTopicSetsOnlyGrow(t *testing.T) {
	progress := models.NewLearnerProgress("42")
	UpdateProgress(progress, &Result{Score: 60, Strengths: []string{"algebra"}, Weaknesses: []string{"geometry"}})
	UpdateProgress(progress, &Result{Score: 90, Strengths: []string{"Algebra", "calculus"}, Weaknesses: []string{"geometry"}})

	if len(progress.Strengths) != 2 {
		t.Errorf("case-insensitive duplicate not merged: %v", progress.Strengths)
	}
	if len(progress.Weaknesses) != 1 {
		t.Errorf("duplicate weakness not merged: %v", progress.Weaknesses)
	}
}
