// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socialnet/internal/db"
	"socialnet/internal/models"
)

// NewDB returns a fresh migrated in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// CreateUser inserts a user with an unusable password hash.
func CreateUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "!"}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// CreatePost inserts a post by author at createdAt.
func CreatePost(t *testing.T, conn *gorm.DB, author *models.User, content string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{UserID: author.ID, Content: content, CreatedAt: createdAt, UpdatedAt: createdAt}
	require.NoError(t, conn.Create(post).Error)
	return post
}

// Follow inserts follower -> following directly.
func Follow(t *testing.T, conn *gorm.DB, follower, following *models.User) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error)
}

// FileHeader builds a *multipart.FileHeader the way net/http would after
// parsing an upload.
func FileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

// PNG is the smallest valid PNG signature plus padding, enough for
// content sniffing.
var PNG = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
