package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanni/community/auth"
	"github.com/yanni/community/config"
	"github.com/yanni/community/store"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t *testing.T
	r *gin.Engine
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg := config.AppConfig{
		DBDriver:           "sqlite",
		DatabaseURI:        filepath.Join(t.TempDir(), "api.db"),
		LogLevel:           "silent",
		GinMode:            "test",
		RateLimitPerMinute: 10000,
		AllowedOrigins:     []string{"*"},
	}
	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	guard := auth.NewGuard("test-secret", time.Hour, auth.NewMemoryRevocations())
	r := SetupRouter(Deps{
		Config:  cfg,
		Manager: store.NewManager(db, guard),
		Guard:   guard,
	})
	return &client{t: t, r: r}
}

func (c *client) do(method, path, token string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

// signup registers and logs in, returning the user id and a bearer token.
func (c *client) signup(email, nickname string) (uint, string) {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": email, "password": "Aa1!aaaa", "password_confirm": "Aa1!aaaa", "nickname": nickname,
	})
	require.Equal(c.t, http.StatusCreated, status, env.Message)

	status, env = c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "Aa1!aaaa"})
	require.Equal(c.t, http.StatusOK, status, env.Message)
	var out struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		User      struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decode(c.t, env.Data, &out)
	require.Equal(c.t, "bearer", out.TokenType)
	return out.User.ID, out.Token
}

type postView struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	ImageURL     *string `json:"image_url"`
	Views        int64   `json:"views"`
	LikeCount    int64   `json:"like_count"`
	CommentCount int64   `json:"comment_count"`
	Author       struct {
		ID       uint   `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
}

func (c *client) createPost(token, title string) postView {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/v1/posts", token, gin.H{"title": title, "content": "body of " + title})
	require.Equal(c.t, http.StatusCreated, status, env.Message)
	var out struct {
		Post postView `json:"post"`
	}
	decode(c.t, env.Data, &out)
	return out.Post
}

func (c *client) getPost(id uint) (int, postView) {
	c.t.Helper()
	status, env := c.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", id), "", nil)
	var out struct {
		Post postView `json:"post"`
	}
	if status == http.StatusOK {
		decode(c.t, env.Data, &out)
	}
	return status, out.Post
}

func TestHealthAndNoRoute(t *testing.T) {
	c := newClient(t)
	status, _ := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := c.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40400, env.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	c := newClient(t)
	id, token := c.signup("Alice@X.com", "alice")
	assert.EqualValues(t, 1, id)
	assert.NotEmpty(t, token)

	status, env := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "alice@x.com", "password": "Aa1!aaaa", "password_confirm": "Aa1!aaaa", "nickname": "other",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@x.com", "password": "Wrong1!pw"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40106, env.Code)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = c.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), "password")
	assert.Contains(t, string(env.Data), `"email":"alice@x.com"`)
}

func TestLogoutRevokesToken(t *testing.T) {
	c := newClient(t)
	_, token := c.signup("a@x.com", "alice")

	status, _ := c.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := c.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40102, env.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	c := newClient(t)
	status, env := c.do(http.MethodPost, "/api/v1/posts", "", gin.H{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40101, env.Code)

	status, _ = c.do(http.MethodPost, "/api/v1/posts", "not-a-token", gin.H{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPostLifecycle(t *testing.T) {
	c := newClient(t)
	aliceID, alice := c.signup("a@x.com", "alice")
	_, bob := c.signup("b@x.com", "bob")

	p := c.createPost(alice, "Hello")
	assert.EqualValues(t, 1, p.ID)
	assert.Equal(t, aliceID, p.Author.ID)
	assert.Equal(t, "alice", p.Author.Nickname)
	assert.Zero(t, p.Views)

	status, got := c.getPost(p.ID)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, got.Views)

	// title-only patch keeps content
	status, env := c.do(http.MethodPatch, "/api/v1/posts/1", alice, gin.H{"title": "Renamed"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var patched struct {
		Post postView `json:"post"`
	}
	decode(t, env.Data, &patched)
	assert.Equal(t, "Renamed", patched.Post.Title)
	assert.Equal(t, "body of Hello", patched.Post.Content)

	status, env = c.do(http.MethodPatch, "/api/v1/posts/1", alice, gin.H{"title": "this title is far too long for a post"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40021, env.Code)

	status, env = c.do(http.MethodPatch, "/api/v1/posts/1", bob, gin.H{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 40329, env.Code)

	status, _ = c.do(http.MethodPut, "/api/v1/posts/1", alice, gin.H{"title": "Replaced", "content": "new body"})
	require.Equal(t, http.StatusOK, status)
	_, got = c.getPost(1)
	assert.Equal(t, "Replaced", got.Title)
	assert.Equal(t, "new body", got.Content)

	status, env = c.do(http.MethodGet, "/api/v1/posts?limit=5", "", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items      []postView `json:"items"`
		Pagination struct {
			Limit int `json:"limit"`
			Count int `json:"count"`
		} `json:"pagination"`
	}
	decode(t, env.Data, &page)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Pagination.Limit)

	status, _ = c.do(http.MethodDelete, "/api/v1/posts/1", bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.do(http.MethodDelete, "/api/v1/posts/1", alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.getPost(1)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBadPathID(t *testing.T) {
	c := newClient(t)
	status, env := c.do(http.MethodGet, "/api/v1/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40099, env.Code)
}

func TestLikesAndComments(t *testing.T) {
	c := newClient(t)
	_, alice := c.signup("a@x.com", "alice")
	_, bob := c.signup("b@x.com", "bob")
	p := c.createPost(alice, "Hello")
	path := fmt.Sprintf("/api/v1/posts/%d", p.ID)

	var state struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
	status, env := c.do(http.MethodPost, path+"/like", bob, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &state)
	assert.True(t, state.Liked)
	assert.EqualValues(t, 1, state.LikeCount)

	status, env = c.do(http.MethodGet, path+"/is-liked", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"liked": true}`, string(env.Data))

	status, env = c.do(http.MethodDelete, path+"/like", bob, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env.Data, &state)
	assert.False(t, state.Liked)
	assert.Zero(t, state.LikeCount)

	status, env = c.do(http.MethodPost, path+"/comments", bob, gin.H{"content": "nice post"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		Comment struct {
			ID uint `json:"id"`
		} `json:"comment"`
	}
	decode(t, env.Data, &created)

	_, got := c.getPost(p.ID)
	assert.EqualValues(t, 1, got.CommentCount)

	status, env = c.do(http.MethodGet, path+"/comments", "", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Items []struct {
			Content string `json:"content"`
			Author  struct {
				Nickname string `json:"nickname"`
			} `json:"author"`
		} `json:"items"`
	}
	decode(t, env.Data, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "bob", list.Items[0].Author.Nickname)

	commentPath := fmt.Sprintf("/api/v1/comments/%d", created.Comment.ID)
	status, _ = c.do(http.MethodPut, commentPath, alice, gin.H{"content": "edited"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.do(http.MethodPut, commentPath, bob, gin.H{"content": "edited"})
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodDelete, commentPath, bob, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, commentPath, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = c.do(http.MethodGet, "/api/v1/posts/99/comments", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40440, env.Code)
}

func TestWithdrawRemovesEverything(t *testing.T) {
	c := newClient(t)
	aliceID, alice := c.signup("a@x.com", "alice")
	_, bob := c.signup("b@x.com", "bob")
	p := c.createPost(alice, "Hello")
	path := fmt.Sprintf("/api/v1/posts/%d", p.ID)
	status, _ := c.do(http.MethodPost, path+"/comments", bob, gin.H{"content": "hi"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = c.do(http.MethodDelete, "/api/v1/auth/me", alice, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = c.getPost(p.ID)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", aliceID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = c.do(http.MethodGet, "/api/v1/auth/me", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := c.do(http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"users": 1, "posts": 0, "comments": 0, "likes": 0}`, string(env.Data))
}

func TestPublicProfile(t *testing.T) {
	c := newClient(t)
	id, token := c.signup("a@x.com", "alice")
	c.createPost(token, "one")

	status, env := c.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), "email")

	status, env = c.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/posts", id), "", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items []postView `json:"items"`
	}
	decode(t, env.Data, &page)
	assert.Len(t, page.Items, 1)
}

func (c *client) patchPost(token string, id uint, body string) (int, envelope, postView) {
	c.t.Helper()
	status, env := c.do(http.MethodPatch, fmt.Sprintf("/api/v1/posts/%d", id), token, body)
	var out struct {
		Post postView `json:"post"`
	}
	if status == http.StatusOK {
		decode(c.t, env.Data, &out)
	}
	return status, env, out.Post
}

func TestPostTitle_KeepsPlainTextAndCountsTypedRunes(t *testing.T) {
	c := newClient(t)
	_, token := c.signup("a@x.com", "alice")

	// exactly 26 runes as typed
	p := c.createPost(token, "Tom & Jerry & Co & Friends")
	assert.Equal(t, "Tom & Jerry & Co & Friends", p.Title)

	status, env := c.do(http.MethodPost, "/api/v1/posts", token, gin.H{"title": "Tom & Jerry & Co & Friends!", "content": "c"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40021, env.Code)

	status, env, got := c.patchPost(token, p.ID, `{"title": "Don't panic & carry on!!"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Don't panic & carry on!!", got.Title)

	// sending the stored title back changes nothing
	body, err := json.Marshal(gin.H{"title": got.Title})
	require.NoError(t, err)
	status, _, again := c.patchPost(token, p.ID, string(body))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Don't panic & carry on!!", again.Title)

	status, env, got = c.patchPost(token, p.ID, `{"title": "<b>Bold</b> move"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "Bold move", got.Title)

	status, env, _ = c.patchPost(token, p.ID, `{"title": "<script>x</script>"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40021, env.Code)
}

func TestPatchPost_NullImageDiffersFromOmitted(t *testing.T) {
	c := newClient(t)
	_, token := c.signup("a@x.com", "alice")

	status, env := c.do(http.MethodPost, "/api/v1/posts", token, gin.H{
		"title": "Hello", "content": "body", "image_url": "https://img.example.com/1.png",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		Post postView `json:"post"`
	}
	decode(t, env.Data, &created)
	require.NotNil(t, created.Post.ImageURL)

	status, _, got := c.patchPost(token, created.Post.ID, `{"title": "Renamed"}`)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, got.ImageURL, "omitted image_url must be kept")
	assert.Equal(t, "https://img.example.com/1.png", *got.ImageURL)
	assert.Equal(t, "body", got.Content)

	status, _, got = c.patchPost(token, created.Post.ID, `{"image_url": null}`)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, got.ImageURL, "null image_url clears the image")
	assert.Equal(t, "Renamed", got.Title)

	status, env, _ = c.patchPost(token, created.Post.ID, `{"image_url": 42}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40028, env.Code)
}
