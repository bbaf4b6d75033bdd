package store

import (
	"context"
	"time"

	"github.com/abhisek/quizdoc/internal/quizdoc"
)

// Quiz sources.
const (
	SourceDocument  = "document"
	SourceGenerated = "generated"
)

// Quiz is a persisted set of questions attached to one piece of course content.
type Quiz struct {
	ID        string             `json:"id"`
	CourseID  string             `json:"course_id"`
	ContentID string             `json:"content_id"`
	Title     string             `json:"title"`
	Source    string             `json:"source"`
	Strategy  string             `json:"strategy,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	CreatedBy string             `json:"created_by,omitempty"`
	Questions []quizdoc.Question `json:"questions"`
}

// QuizSummary is a Quiz without its questions.
type QuizSummary struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"course_id"`
	ContentID     string    `json:"content_id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by,omitempty"`
}

// QuizRepo persists quizzes. Question and answer order is preserved.
type QuizRepo interface {
	// Exists reports whether a quiz is already stored for the content.
	Exists(ctx context.Context, courseID, contentID string) (bool, error)

	// Create stores q and its questions in one transaction, filling in
	// ID and CreatedAt when they are empty.
	Create(ctx context.Context, q *Quiz) error

	// Get returns the quiz with its questions, or ErrNotFound.
	Get(ctx context.Context, id string) (*Quiz, error)

	// ListByCourse returns summaries, newest first.
	ListByCourse(ctx context.Context, courseID string) ([]QuizSummary, error)

	// Delete removes the quiz and, by cascade, its questions and answers.
	// Returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int       // id > After
	Before  int       // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
