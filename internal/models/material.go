package models

import (
	"time"
)

// Page is one page of an uploaded study material, identified by its
// 1-based page number. Text may be empty for pages the extractor could
// not read; page numbering is still preserved.
type Page struct {
	PageNumber int    `bson:"page_number" json:"pageNumber"`
	Text       string `bson:"text" json:"text"`
}

// Citation points a generated answer back to the page it was grounded on.
type Citation struct {
	PageNumber int    `bson:"page_number" json:"pageNumber"`
	Content    string `bson:"content" json:"content"`
}

// Document is a persisted study material: the extracted pages, the name of
// the vector index built for it, and the quizzes and chat sessions that
// accumulated against it.
type Document struct {
	ID           string        `bson:"_id" json:"id"`
	LearnerID    string        `bson:"learner_id" json:"learnerId"`
	Title        string        `bson:"title" json:"title"`
	Description  string        `bson:"description,omitempty" json:"description,omitempty"`
	FileName     string        `bson:"file_name" json:"fileName"`
	PDFURL       string        `bson:"pdf_url" json:"pdfUrl"`
	IndexID      string        `bson:"index_id" json:"indexId"`
	PageCount    int           `bson:"page_count" json:"pageCount"`
	ChunkCount   int           `bson:"chunk_count" json:"chunkCount"`
	Pages        []Page        `bson:"pages" json:"pages,omitempty"`
	Quizzes      []Quiz        `bson:"quizzes" json:"quizzes,omitempty"`
	ChatSessions []ChatSession `bson:"chat_sessions" json:"chatSessions,omitempty"`
	UploadedAt   time.Time     `bson:"uploaded_at" json:"uploadedAt"`
}

// PageByNumber returns the page with the given 1-based number, or nil.
func (d *Document) PageByNumber(n int) *Page {
	for i := range d.Pages {
		if d.Pages[i].PageNumber == n {
			return &d.Pages[i]
		}
	}
	return nil
}

// QuizByID returns the quiz with the given ID, or nil.
func (d *Document) QuizByID(id string) *Quiz {
	for i := range d.Quizzes {
		if d.Quizzes[i].ID == id {
			return &d.Quizzes[i]
		}
	}
	return nil
}
