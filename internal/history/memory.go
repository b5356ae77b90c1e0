package history

import (
	"context"
	"sync"
	"time"

	"github.com/comigor/ideavault/internal/session"
)

var _ Sink = (*MemoryStore)(nil)

// MemoryStore keeps submissions in process memory. It stands in when no
// database is configured or the configured one cannot be opened.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[string]time.Time
	rows   []Submission
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]time.Time)}
}

func (m *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (m *MemoryStore) Record(_ context.Context, sessionID string, role session.Role, content string) error {
	if err := checkRole(role); err != nil {
		return err
	}

	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[sessionID]; !ok {
		m.users[sessionID] = now
	}
	m.nextID++
	m.rows = append(m.rows, Submission{
		ID:        m.nextID,
		SessionID: sessionID,
		Timestamp: now,
		Role:      string(role),
		Content:   content,
	})
	return nil
}

func (m *MemoryStore) Submissions(_ context.Context, sessionID string) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Submission
	for _, row := range m.rows {
		if row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	return out, nil
}

// Users is the number of distinct sessions recorded so far.
func (m *MemoryStore) Users() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *MemoryStore) Close() error { return nil }
