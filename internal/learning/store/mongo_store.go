package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartlearn/internal/learning"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

const (
	documentsCollection = "documents"
	progressCollection  = "learner_progress"
)

// StudyStore persists documents, their embedded quizzes and chat sessions,
// and the per-learner progress aggregate in MongoDB. Every document access
// is scoped by learner ID so one learner can never read another's material.
type StudyStore struct {
	client    *mongo.Client
	documents *mongo.Collection
	progress  *mongo.Collection
	log       *logger.Logger
}

// NewStudyStore creates a new StudyStore on the given database.
func NewStudyStore(client *mongo.Client, dbName string, log *logger.Logger) *StudyStore {
	db := client.Database(dbName)
	return &StudyStore{
		client:    client,
		documents: db.Collection(documentsCollection),
		progress:  db.Collection(progressCollection),
		log:       log,
	}
}

// CreateDocument inserts a freshly ingested document.
func (s *StudyStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if _, err := s.documents.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument loads one of the learner's documents in full.
func (s *StudyStore) GetDocument(ctx context.Context, learnerID, docID string) (*models.Document, error) {
	var doc models.Document
	err := s.documents.FindOne(ctx, bson.M{"_id": docID, "learner_id": learnerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, learning.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document '%s': %w", docID, err)
	}
	return &doc, nil
}

// ListDocuments returns the learner's documents newest-first, without the
// page texts. Pages are only needed when working with a single document.
func (s *StudyStore) ListDocuments(ctx context.Context, learnerID string) ([]models.Document, error) {
	opts := options.Find().
		SetProjection(bson.M{"pages": 0}).
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	cursor, err := s.documents.Find(ctx, bson.M{"learner_id": learnerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []models.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes one of the learner's documents.
func (s *StudyStore) DeleteDocument(ctx context.Context, learnerID, docID string) error {
	res, err := s.documents.DeleteOne(ctx, bson.M{"_id": docID, "learner_id": learnerID})
	if err != nil {
		return fmt.Errorf("failed to delete document '%s': %w", docID, err)
	}
	if res.DeletedCount == 0 {
		return learning.ErrNotFound
	}
	return nil
}

// AppendQuiz attaches a newly generated quiz to the document.
func (s *StudyStore) AppendQuiz(ctx context.Context, learnerID, docID string, quiz *models.Quiz) error {
	res, err := s.documents.UpdateOne(ctx,
		bson.M{"_id": docID, "learner_id": learnerID},
		bson.M{"$push": bson.M{"quizzes": quiz}},
	)
	if err != nil {
		return fmt.Errorf("failed to append quiz to document '%s': %w", docID, err)
	}
	if res.MatchedCount == 0 {
		return learning.ErrNotFound
	}
	return nil
}

// ListQuizzes returns the document's quiz history in creation order.
func (s *StudyStore) ListQuizzes(ctx context.Context, learnerID, docID string) ([]models.Quiz, error) {
	doc, err := s.GetDocument(ctx, learnerID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Quizzes == nil {
		return []models.Quiz{}, nil
	}
	return doc.Quizzes, nil
}

// GetQuiz loads one quiz of one of the learner's documents.
func (s *StudyStore) GetQuiz(ctx context.Context, learnerID, docID, quizID string) (*models.Quiz, error) {
	doc, err := s.GetDocument(ctx, learnerID, docID)
	if err != nil {
		return nil, err
	}
	quiz := doc.QuizByID(quizID)
	if quiz == nil {
		return nil, learning.ErrNotFound
	}
	return quiz, nil
}

// AppendChatMessages appends turns to a chat session, creating the session
// inside the document on first use.
func (s *StudyStore) AppendChatMessages(ctx context.Context, learnerID, docID, sessionID, title string, msgs []models.ChatMessage) error {
	now := time.Now()

	res, err := s.documents.UpdateOne(ctx,
		bson.M{"_id": docID, "learner_id": learnerID, "chat_sessions.id": sessionID},
		bson.M{
			"$push": bson.M{"chat_sessions.$.messages": bson.M{"$each": msgs}},
			"$set":  bson.M{"chat_sessions.$.updated_at": now},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append chat messages: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Session does not exist yet, create it in place.
	session := models.ChatSession{
		ID:        sessionID,
		Title:     title,
		Messages:  msgs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err = s.documents.UpdateOne(ctx,
		bson.M{"_id": docID, "learner_id": learnerID},
		bson.M{"$push": bson.M{"chat_sessions": session}},
	)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	if res.MatchedCount == 0 {
		return learning.ErrNotFound
	}
	return nil
}

// GetProgress loads the learner's progress aggregate. A learner with no
// attempts yet gets the zero-state aggregate, not an error.
func (s *StudyStore) GetProgress(ctx context.Context, learnerID string) (*models.LearnerProgress, error) {
	var progress models.LearnerProgress
	err := s.progress.FindOne(ctx, bson.M{"_id": learnerID}).Decode(&progress)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewLearnerProgress(learnerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for learner '%s': %w", learnerID, err)
	}
	return &progress, nil
}

// SaveAttempt writes the graded quiz and the updated progress aggregate in
// one transaction, so a reader never sees an attempted quiz without its
// progress update or vice versa.
func (s *StudyStore) SaveAttempt(ctx context.Context, learnerID, docID string, quiz *models.Quiz, progress *models.LearnerProgress) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := s.documents.UpdateOne(sc,
			bson.M{"_id": docID, "learner_id": learnerID},
			bson.M{"$set": bson.M{"quizzes.$[q]": quiz}},
			options.Update().SetArrayFilters(options.ArrayFilters{
				Filters: []interface{}{bson.M{"q.id": quiz.ID}},
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save graded quiz: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, learning.ErrNotFound
		}

		_, err = s.progress.ReplaceOne(sc,
			bson.M{"_id": progress.LearnerID},
			progress,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save progress: %w", err)
		}
		return nil, nil
	})
	return err
}

// CountDocuments returns how many documents the learner has uploaded.
func (s *StudyStore) CountDocuments(ctx context.Context, learnerID string) (int64, error) {
	count, err := s.documents.CountDocuments(ctx, bson.M{"learner_id": learnerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
