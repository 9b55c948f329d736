package quiz

import (
	"math"
	"time"

	"smartlearn/internal/models"
)

// UpdateProgress folds one graded attempt into the learner's running
// progress. The average is updated incrementally so past attempts never need
// to be reloaded, and strengths and weaknesses accumulate as a set union.
func UpdateProgress(progress *models.LearnerProgress, result *Result) {
	prevCount := progress.TotalQuizzes
	progress.TotalQuizzes = prevCount + 1
	progress.AverageScore = math.Round(
		(progress.AverageScore*float64(prevCount)+result.Score)/float64(prevCount+1)*100,
	) / 100

	progress.Strengths = mergeDistinct(progress.Strengths, result.Strengths)
	progress.Weaknesses = mergeDistinct(progress.Weaknesses, result.Weaknesses)
	progress.UpdatedAt = time.Now()
}
