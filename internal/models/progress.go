package models

import (
	"time"
)

// LearnerProgress is the running aggregate over every attempted quiz for
// one learner: an incremental mean of scores plus the accumulated strength
// and weakness topics. Topic sets only ever grow.
type LearnerProgress struct {
	LearnerID    string    `bson:"_id" json:"learnerId"`
	TotalQuizzes int       `bson:"total_quizzes" json:"totalQuizzes"`
	AverageScore float64   `bson:"average_score" json:"averageScore"`
	Strengths    []string  `bson:"strengths" json:"strengths"`
	Weaknesses   []string  `bson:"weaknesses" json:"weaknesses"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// NewLearnerProgress returns the zero-state aggregate for a learner.
func NewLearnerProgress(learnerID string) *LearnerProgress {
	return &LearnerProgress{
		LearnerID:  learnerID,
		Strengths:  []string{},
		Weaknesses: []string{},
	}
}
