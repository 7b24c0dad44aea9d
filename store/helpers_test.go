package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanni/community/config"
	"github.com/yanni/community/models"
)

type fakeIssuer struct{}

func (fakeIssuer) Issue(userID uint, nickname string) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, nickname), nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewManager(db, fakeIssuer{})
}

// run executes fn in its own session and fails the test on error.
func run(t *testing.T, m *Manager, fn func(*Session) error) {
	t.Helper()
	require.NoError(t, m.Run(context.Background(), fn))
}

func mustRegister(t *testing.T, m *Manager, email, nickname string) *models.User {
	t.Helper()
	var u *models.User
	run(t, m, func(s *Session) error {
		var err error
		u, err = s.Users().Register(Registration{
			Email:           email,
			Password:        "Aa1!aaaa",
			PasswordConfirm: "Aa1!aaaa",
			Nickname:        nickname,
		})
		return err
	})
	return u
}

func mustPost(t *testing.T, m *Manager, ownerID uint, title string) *models.Post {
	t.Helper()
	var p *models.Post
	run(t, m, func(s *Session) error {
		var err error
		p, err = s.Posts().Create(ownerID, title, "body of "+title, nil)
		return err
	})
	return p
}

func mustComment(t *testing.T, m *Manager, postID, ownerID uint, content string) *models.Comment {
	t.Helper()
	var c *models.Comment
	run(t, m, func(s *Session) error {
		var err error
		c, err = s.Comments().Create(postID, ownerID, content)
		return err
	})
	return c
}

func countRows(t *testing.T, m *Manager, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, m.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
