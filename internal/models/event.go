package models

import (
	"time"
)

// ActivityEventType 标识一条学习活动事件的类型。
type ActivityEventType string

const (
	EventDocumentUploaded ActivityEventType = "document_uploaded"
	EventDocumentDeleted  ActivityEventType = "document_deleted"
	EventQuizAttempted    ActivityEventType = "quiz_attempted"
)

// ActivityEvent 是发布到 Kafka 的学习活动记录，仅用于旁路消费，不参与主流程。
type ActivityEvent struct {
	Type       ActivityEventType `json:"type"`
	LearnerID  string            `json:"learner_id"`
	DocumentID string            `json:"document_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Score      float64           `json:"score,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
