package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanni/community/models"
)

func TestOpenDatabase_SQLiteEnforcesForeignKeys(t *testing.T) {
	db, err := OpenDatabase(AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "fk.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(db))

	var on int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&on).Error)
	assert.Equal(t, 1, on)

	// A post pointing at a missing user must be refused by the schema.
	err = db.Omit("User").Create(&models.Post{UserID: 42, Title: "t", Content: "c"}).Error
	assert.Error(t, err)

	u := models.User{Email: "a@x.com", PasswordHash: "x", Nickname: "alice"}
	require.NoError(t, db.Create(&u).Error)
	p := models.Post{UserID: u.ID, Title: "t", Content: "c"}
	require.NoError(t, db.Omit("User").Create(&p).Error)
	require.NoError(t, db.Omit("User", "Post").Create(&models.Comment{PostID: p.ID, UserID: u.ID, Content: "hi"}).Error)

	// Deleting the user cascades through its posts to their comments.
	require.NoError(t, db.Delete(&models.User{}, u.ID).Error)
	var n int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
}
