package store

import (
	"context"

	"gorm.io/gorm"
)

// TokenIssuer signs identity tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uint, nickname string) (string, error)
}

// Manager opens one transactional session per operation.
type Manager struct {
	db     *gorm.DB
	tokens TokenIssuer
}

// NewManager creates a Manager over db. tokens may be nil when no operation
// run through the manager needs to authenticate users.
func NewManager(db *gorm.DB, tokens TokenIssuer) *Manager {
	return &Manager{db: db, tokens: tokens}
}

// Run executes fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error or panic; panics are re-raised after
// the rollback.
func (m *Manager) Run(ctx context.Context, fn func(*Session) error) error {
	var inner error
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner = fn(&Session{tx: tx, tokens: m.tokens})
		return inner
	})
	if inner != nil {
		return inner
	}
	return wrap("commit", err)
}

// Session is a unit of work. Stores obtained from it share its transaction
// and must not outlive the Run call that created it.
type Session struct {
	tx     *gorm.DB
	tokens TokenIssuer
}

func (s *Session) Users() *UserStore { return &UserStore{tx: s.tx, tokens: s.tokens} }

func (s *Session) Posts() *PostStore { return &PostStore{tx: s.tx} }

func (s *Session) Comments() *CommentStore { return &CommentStore{tx: s.tx} }
