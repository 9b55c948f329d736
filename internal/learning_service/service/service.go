package service

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"smartlearn/internal/database/kafka"
	"smartlearn/internal/learning"
	"smartlearn/internal/learning/quiz"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/learning/rag/pipeline"
	"smartlearn/internal/learning/store"
	"smartlearn/internal/models"
	"smartlearn/internal/recommend"
	"smartlearn/pkg/logger"
)

const (
	historyWindow      = 10
	recentActivityCap  = 6
	sessionTitleLength = 50
)

var indexIDPattern = regexp.MustCompile(`[^a-z0-9_]+`)

// Service implements the study workflows: document lifecycle, grounded Q&A,
// quiz generation and grading, progress tracking and video recommendations.
type Service struct {
	store       *store.StudyStore
	locker      *store.ProgressLocker
	objects     *minio.Client
	bucket      string
	loader      interfaces.Loader
	ingestor    *pipeline.IngestionPipeline
	retriever   *pipeline.Retriever
	synthesizer *pipeline.Synthesizer
	generator   *quiz.Generator
	evaluator   *quiz.Evaluator
	index       interfaces.VectorIndex
	publisher   kafka.Publisher
	recommender *recommend.Recommender
	log         *logger.Logger
}

// Deps bundles everything the Service needs.
type Deps struct {
	Store       *store.StudyStore
	Locker      *store.ProgressLocker
	Objects     *minio.Client
	Bucket      string
	Loader      interfaces.Loader
	Ingestor    *pipeline.IngestionPipeline
	Retriever   *pipeline.Retriever
	Synthesizer *pipeline.Synthesizer
	Generator   *quiz.Generator
	Evaluator   *quiz.Evaluator
	Index       interfaces.VectorIndex
	Publisher   kafka.Publisher
	Recommender *recommend.Recommender
	Log         *logger.Logger
}

// NewService creates a new Service.
func NewService(d Deps) *Service {
	return &Service{
		store:       d.Store,
		locker:      d.Locker,
		objects:     d.Objects,
		bucket:      d.Bucket,
		loader:      d.Loader,
		ingestor:    d.Ingestor,
		retriever:   d.Retriever,
		synthesizer: d.Synthesizer,
		generator:   d.Generator,
		evaluator:   d.Evaluator,
		index:       d.Index,
		publisher:   d.Publisher,
		recommender: d.Recommender,
		log:         d.Log,
	}
}

// UploadDocument ingests a PDF upload end to end: extract pages, store the
// original file, build the document's vector index and persist the document
// record. Anything that fails after the index was provisioned tears the
// index down again.
func (s *Service) UploadDocument(ctx context.Context, learnerID, title, description, fileName string, data []byte) (*models.Document, error) {
	if !mimetype.Detect(data).Is("application/pdf") {
		return nil, fmt.Errorf("%w: file is not a PDF", learning.ErrDocumentUnreadable)
	}

	pages, err := s.loader.LoadPages(ctx, data)
	if err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	indexID := buildIndexID(title, docID)
	objectName := fmt.Sprintf("%s/%s/%s", learnerID, docID, fileName)

	_, err = s.objects.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return nil, fmt.Errorf("failed to store pdf: %w", err)
	}

	chunkCount, err := s.ingestor.Run(ctx, indexID, pages)
	if err != nil {
		s.removeObject(objectName)
		return nil, err
	}

	doc := &models.Document{
		ID:           docID,
		LearnerID:    learnerID,
		Title:        title,
		Description:  description,
		FileName:     fileName,
		PDFURL:       objectName,
		IndexID:      indexID,
		PageCount:    len(pages),
		ChunkCount:   chunkCount,
		Pages:        pages,
		Quizzes:      []models.Quiz{},
		ChatSessions: []models.ChatSession{},
		UploadedAt:   time.Now(),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		s.dropIndex(indexID)
		s.removeObject(objectName)
		return nil, err
	}

	s.publish(models.ActivityEvent{
		Type:       models.EventDocumentUploaded,
		LearnerID:  learnerID,
		DocumentID: docID,
		Title:      title,
		OccurredAt: time.Now(),
	})
	return doc, nil
}

// GetDocument loads one of the learner's documents.
func (s *Service) GetDocument(ctx context.Context, learnerID, docID string) (*models.Document, error) {
	return s.store.GetDocument(ctx, learnerID, docID)
}

// ListDocuments lists the learner's documents without page texts.
func (s *Service) ListDocuments(ctx context.Context, learnerID string) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, learnerID)
}

// DeleteDocument removes the document, its vector index and the stored PDF.
// The record goes last so a failed index drop leaves the document visible
// and the delete retryable.
func (s *Service) DeleteDocument(ctx context.Context, learnerID, docID string) error {
	doc, err := s.store.GetDocument(ctx, learnerID, docID)
	if err != nil {
		return err
	}

	if err := s.index.Drop(ctx, doc.IndexID); err != nil {
		return err
	}
	s.removeObject(doc.PDFURL)

	if err := s.store.DeleteDocument(ctx, learnerID, docID); err != nil {
		return err
	}

	s.publish(models.ActivityEvent{
		Type:       models.EventDocumentDeleted,
		LearnerID:  learnerID,
		DocumentID: docID,
		Title:      doc.Title,
		OccurredAt: time.Now(),
	})
	return nil
}

// Ask answers a question about the document, grounded in retrieved chunks,
// and records both turns in the chat session. An empty sessionID starts a
// new session titled after the question.
func (s *Service) Ask(ctx context.Context, learnerID, docID, sessionID, question string) (*models.ChatMessage, string, error) {
	doc, err := s.store.GetDocument(ctx, learnerID, docID)
	if err != nil {
		return nil, "", err
	}

	var history []models.ChatMessage
	title := sessionTitle(question)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else {
		session := sessionByID(doc, sessionID)
		if session == nil {
			return nil, "", learning.ErrNotFound
		}
		title = session.Title
		history = session.Messages
		if len(history) > historyWindow {
			history = history[len(history)-historyWindow:]
		}
	}

	retrieved, err := s.retriever.Run(ctx, doc.IndexID, question, 0)
	if err != nil {
		return nil, "", err
	}

	answer, citations, err := s.synthesizer.Run(ctx, question, retrieved, history)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	turns := []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: question, Timestamp: now},
		{Role: models.ChatRoleAssistant, Content: answer, Citations: citations, Timestamp: now},
	}
	if err := s.store.AppendChatMessages(ctx, learnerID, docID, sessionID, title, turns); err != nil {
		return nil, "", err
	}

	return &turns[1], sessionID, nil
}

// GenerateQuiz creates a quiz over the document and attaches it.
func (s *Service) GenerateQuiz(ctx context.Context, learnerID, docID string, quizType models.QuizType, n int) (*models.Quiz, error) {
	doc, err := s.store.GetDocument(ctx, learnerID, docID)
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.Generate(ctx, doc, quizType, n)
	if err != nil {
		return nil, err
	}
	if err := s.store.AppendQuiz(ctx, learnerID, docID, generated); err != nil {
		return nil, err
	}
	return generated, nil
}

// GetQuiz loads one quiz of one of the learner's documents.
func (s *Service) GetQuiz(ctx context.Context, learnerID, docID, quizID string) (*models.Quiz, error) {
	return s.store.GetQuiz(ctx, learnerID, docID, quizID)
}

// ListQuizzes returns the document's quiz history in creation order.
func (s *Service) ListQuizzes(ctx context.Context, learnerID, docID string) ([]models.Quiz, error) {
	return s.store.ListQuizzes(ctx, learnerID, docID)
}

// LatestQuiz returns the most recently created quiz of the document, or
// ErrNotFound when none exists yet.
func (s *Service) LatestQuiz(ctx context.Context, learnerID, docID string) (*models.Quiz, error) {
	quizzes, err := s.store.ListQuizzes(ctx, learnerID, docID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, learning.ErrNotFound
	}
	return &quizzes[len(quizzes)-1], nil
}

// SubmitQuiz grades an attempt and folds the score into the learner's
// progress. The per-learner lock serializes concurrent submissions so the
// progress aggregate never loses an update.
func (s *Service) SubmitQuiz(ctx context.Context, learnerID, docID, quizID string, answers []models.AnswerValue) (*models.Quiz, error) {
	unlock, err := s.locker.Lock(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	graded, err := s.store.GetQuiz(ctx, learnerID, docID, quizID)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluator.Evaluate(ctx, graded, answers)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.GetProgress(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	quiz.UpdateProgress(progress, result)

	if err := s.store.SaveAttempt(ctx, learnerID, docID, graded, progress); err != nil {
		return nil, err
	}

	s.publish(models.ActivityEvent{
		Type:       models.EventQuizAttempted,
		LearnerID:  learnerID,
		DocumentID: docID,
		Score:      graded.Score,
		OccurredAt: time.Now(),
	})
	return graded, nil
}

// Activity is one entry of the dashboard's recent activity feed.
type Activity struct {
	Type       models.ActivityEventType `json:"type"`
	DocumentID string                   `json:"documentId"`
	Title      string                   `json:"title"`
	Score      *float64                 `json:"score,omitempty"`
	OccurredAt time.Time                `json:"occurredAt"`
}

// Dashboard aggregates the learner's study state.
type Dashboard struct {
	TotalDocuments int        `json:"totalDocuments"`
	TotalQuizzes   int        `json:"totalQuizzes"`
	AverageScore   float64    `json:"averageScore"`
	TotalChats     int        `json:"totalChats"`
	Strengths      []string   `json:"strengths"`
	Weaknesses     []string   `json:"weaknesses"`
	RecentActivity []Activity `json:"recentActivity"`
}

// GetDashboard assembles the learner's dashboard from the progress aggregate
// and their documents.
func (s *Service) GetDashboard(ctx context.Context, learnerID string) (*Dashboard, error) {
	progress, err := s.store.GetProgress(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		TotalDocuments: len(docs),
		TotalQuizzes:   progress.TotalQuizzes,
		AverageScore:   progress.AverageScore,
		Strengths:      progress.Strengths,
		Weaknesses:     progress.Weaknesses,
		RecentActivity: []Activity{},
	}

	for _, doc := range docs {
		dashboard.TotalChats += len(doc.ChatSessions)
		dashboard.RecentActivity = append(dashboard.RecentActivity, Activity{
			Type:       models.EventDocumentUploaded,
			DocumentID: doc.ID,
			Title:      doc.Title,
			OccurredAt: doc.UploadedAt,
		})
		for _, q := range doc.Quizzes {
			if !q.IsAttempted || q.AttemptedAt == nil {
				continue
			}
			score := q.Score
			dashboard.RecentActivity = append(dashboard.RecentActivity, Activity{
				Type:       models.EventQuizAttempted,
				DocumentID: doc.ID,
				Title:      doc.Title,
				Score:      &score,
				OccurredAt: *q.AttemptedAt,
			})
		}
	}

	sort.Slice(dashboard.RecentActivity, func(i, j int) bool {
		return dashboard.RecentActivity[i].OccurredAt.After(dashboard.RecentActivity[j].OccurredAt)
	})
	if len(dashboard.RecentActivity) > recentActivityCap {
		dashboard.RecentActivity = dashboard.RecentActivity[:recentActivityCap]
	}
	return dashboard, nil
}

// RecommendVideos suggests videos for one page of the document.
func (s *Service) RecommendVideos(ctx context.Context, learnerID, docID string, pageNumber int) ([]models.VideoRecommendation, *models.PageAnalysis, error) {
	doc, err := s.store.GetDocument(ctx, learnerID, docID)
	if err != nil {
		return nil, nil, err
	}
	page := doc.PageByNumber(pageNumber)
	if page == nil {
		return nil, nil, learning.ErrNotFound
	}
	if page.Text == "" {
		return []models.VideoRecommendation{}, nil, nil
	}
	return s.recommender.ForPage(ctx, *page)
}

// publish sends an activity event on a detached context so a slow broker
// never blocks or fails the learner-facing operation.
func (s *Service) publish(event models.ActivityEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.WithError(err).Warn(fmt.Sprintf("failed to publish %s event", event.Type))
		}
	}()
}

func (s *Service) dropIndex(indexID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.index.Drop(ctx, indexID); err != nil {
		s.log.WithError(err).Warn(fmt.Sprintf("failed to drop index '%s'", indexID))
	}
}

func (s *Service) removeObject(objectName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.objects.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		s.log.WithError(err).Warn(fmt.Sprintf("failed to remove object '%s'", objectName))
	}
}

// buildIndexID derives a Milvus-safe collection name from the title. The
// document ID suffix keeps names unique across same-titled uploads.
func buildIndexID(title, docID string) string {
	slug := indexIDPattern.ReplaceAllString(strings.ToLower(title), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 32 {
		slug = slug[:32]
	}
	if slug == "" {
		slug = "doc"
	}
	suffix := strings.ReplaceAll(docID, "-", "")[:12]
	return fmt.Sprintf("doc_%s_%s", slug, suffix)
}

func sessionByID(doc *models.Document, sessionID string) *models.ChatSession {
	for i := range doc.ChatSessions {
		if doc.ChatSessions[i].ID == sessionID {
			return &doc.ChatSessions[i]
		}
	}
	return nil
}

func sessionTitle(question string) string {
	title := strings.TrimSpace(question)
	if len(title) > sessionTitleLength {
		title = title[:sessionTitleLength]
	}
	return title
}
