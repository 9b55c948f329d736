package models

import (
	"time"
)

// ChatRole distinguishes the two sides of a study chat.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in a chat session about a document.
// Assistant turns carry the citations their answer was grounded on.
type ChatMessage struct {
	Role      ChatRole   `bson:"role" json:"role"`
	Content   string     `bson:"content" json:"content"`
	Citations []Citation `bson:"citations,omitempty" json:"citations,omitempty"`
	Timestamp time.Time  `bson:"timestamp" json:"timestamp"`
}

// ChatSession is a persisted conversation about a single document.
type ChatSession struct {
	ID        string        `bson:"id" json:"id"`
	Title     string        `bson:"title,omitempty" json:"title,omitempty"`
	Messages  []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updatedAt"`
}
