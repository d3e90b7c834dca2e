package topicmgr

// Topic represents a strongly-typed topic identifier.
type Topic interface {
	// Name returns the unique string identifier for this topic.
	Name() string

	// Module returns the module that owns this topic (empty for framework topics).
	Module() string

	// Description returns human-readable documentation.
	Description() string

	// Example returns a usage example.
	Example() string

	// Scope returns whether this is a framework or module topic.
	Scope() TopicScope
}

// TopicScope defines whether a topic belongs to framework or module level.
type TopicScope string

const (
	// ScopeFramework marks core infrastructure topics (websocket lifecycle, presence).
	ScopeFramework TopicScope = "framework"
	// ScopeModule marks feature-owned topics (chat message lifecycle).
	ScopeModule TopicScope = "module"
)

// TopicConfig holds configuration for creating a new topic.
type TopicConfig struct {
	Name        string     `json:"name"`
	Module      string     `json:"module"`
	Scope       TopicScope `json:"scope"`
	Description string     `json:"description"`
	Example     string     `json:"example"`
}

// TypedTopic is the standard Topic implementation.
type TypedTopic struct {
	name        string
	module      string
	description string
	example     string
	scope       TopicScope
}

var _ Topic = (*TypedTopic)(nil)

func (t *TypedTopic) Name() string        { return t.name }
func (t *TypedTopic) Module() string      { return t.module }
func (t *TypedTopic) Description() string { return t.description }
func (t *TypedTopic) Example() string     { return t.example }
func (t *TypedTopic) Scope() TopicScope   { return t.scope }

// String returns the topic name for easy debugging.
func (t *TypedTopic) String() string { return t.name }

// TopicError represents structured errors in the topic management system.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}
