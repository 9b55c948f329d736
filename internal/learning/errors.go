// Package learning holds the domain-level error taxonomy shared by the
// ingestion, retrieval, quiz and progress components.
package learning

import "errors"

var (
	// ErrDocumentUnreadable is returned when an uploaded file yields no
	// extractable text at all.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrEmbeddingUnavailable is returned when the embedding provider keeps
	// failing after bounded retries.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrIndexProvisioningTimeout is returned when a freshly created vector
	// index does not become ready within the configured window.
	ErrIndexProvisioningTimeout = errors.New("vector index provisioning timed out")

	// ErrGenerationFailed is returned when the LLM call fails or returns
	// unusable output after the retry budget is spent.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrQuizValidationFailed is returned when generated quiz content does
	// not satisfy the structural requirements for its quiz type.
	ErrQuizValidationFailed = errors.New("quiz validation failed")

	// ErrConcurrentUpdateConflict is returned when a progress update loses
	// the per-learner lock race and exhausts its retries.
	ErrConcurrentUpdateConflict = errors.New("concurrent progress update conflict")

	// ErrQuizAlreadyAttempted is returned when an attempt is submitted for a
	// quiz that has already been graded. A retake is a new quiz.
	ErrQuizAlreadyAttempted = errors.New("quiz already attempted")

	// ErrNotFound is returned when a document, quiz or session does not
	// exist or does not belong to the requesting learner.
	ErrNotFound = errors.New("not found")
)
