package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Topic names follow a hierarchical dotted pattern: scope.subject.action.
// Examples: ws.client.ready, presence.user.status, chat.message.new.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)

// Manager is the central registry of topics used on the pub/sub bus. It
// exists so that every topic flowing through the system is declared once,
// documented, and discoverable from the CLI.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]Topic
}

// NewManager creates a new, empty topic manager.
func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]Topic),
	}
}

// DefineFramework creates a new typed topic for framework services.
func DefineFramework(config TopicConfig) Topic {
	return &TypedTopic{
		name:        config.Name,
		description: config.Description,
		example:     config.Example,
		scope:       ScopeFramework,
	}
}

// DefineModule creates a new typed topic for feature modules.
func DefineModule(config TopicConfig) Topic {
	module := config.Module
	if module == "" {
		// Derive the module from the topic prefix, e.g. "chat.message.new" -> "chat".
		if idx := strings.IndexByte(config.Name, '.'); idx > 0 {
			module = config.Name[:idx]
		}
	}
	return &TypedTopic{
		name:        config.Name,
		module:      module,
		description: config.Description,
		example:     config.Example,
		scope:       ScopeModule,
	}
}

// Register adds a topic to the registry. Registering the same name twice
// returns a TopicError with ErrorDuplicateRegistration.
func (m *Manager) Register(topic Topic) error {
	if topic == nil {
		return &TopicError{Type: ErrorValidationFailed, Message: "cannot register nil topic"}
	}
	if err := ValidateName(topic.Name()); err != nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: "topic validation failed",
			Cause:   err,
		}
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: "topic description cannot be empty",
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[topic.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", topic.Name()),
		}
	}

	m.entries[topic.Name()] = topic
	return nil
}

// MustRegister registers a topic and panics on error. Intended for
// package-level topic declarations where a failure is a programming error.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topic, exists := m.entries[name]
	return topic, exists
}

// List returns all registered topics.
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := make([]Topic, 0, len(m.entries))
	for _, topic := range m.entries {
		topics = append(topics, topic)
	}
	return topics
}

// ListByScope returns topics for a specific scope (framework or module).
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var topics []Topic
	for _, topic := range m.entries {
		if topic.Scope() == scope {
			topics = append(topics, topic)
		}
	}
	return topics
}

// ListByModule returns topics owned by a specific module.
func (m *Manager) ListByModule(module string) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var topics []Topic
	for _, topic := range m.entries {
		if topic.Module() == module {
			topics = append(topics, topic)
		}
	}
	return topics
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Reset removes all registered topics (primarily for testing).
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]Topic)
}

// ValidateName checks that a topic name matches the naming convention.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("topic name cannot be empty")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("topic name %q does not match pattern scope.subject.action", name)
	}
	return nil
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager used by package-level topic
// declarations.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Register registers a topic with the default manager.
func Register(topic Topic) error {
	return Default().Register(topic)
}

// Get retrieves a topic from the default manager.
func Get(name string) (Topic, bool) {
	return Default().Get(name)
}

// List returns all topics from the default manager.
func List() []Topic {
	return Default().List()
}
