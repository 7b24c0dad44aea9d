package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
	last openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.last = req
	return f.resp, f.err
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
	}}
}

func TestGenerate_ReturnsTrimmedCompletion(t *testing.T) {
	fake := &fakeCompleter{resp: reply("  좋은 글 감사합니다!  \n")}
	c := NewCommenterWithClient(fake, DefaultAIConfig())

	assert.Equal(t, "좋은 글 감사합니다!", c.Generate(context.Background(), "Hello", "world"))
	assert.Equal(t, defaultModelID, fake.last.Model)
	require.Len(t, fake.last.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.last.Messages[0].Role)
	assert.Contains(t, fake.last.Messages[1].Content, "Hello")
	assert.Contains(t, fake.last.Messages[1].Content, "world")
	assert.Equal(t, 150, fake.last.MaxTokens)
}

func TestGenerate_FallsBack(t *testing.T) {
	cfg := DefaultAIConfig()
	cases := map[string]*fakeCompleter{
		"error":      {err: errors.New("rate limited")},
		"no choices": {resp: openai.ChatCompletionResponse{}},
		"too short":  {resp: reply(" 네 ")},
		"blank":      {resp: reply("   ")},
	}
	for name, fake := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewCommenterWithClient(fake, cfg)
			assert.Equal(t, cfg.FallbackMessage, c.Generate(context.Background(), "t", "c"))
		})
	}
}

func TestGenerate_WithoutKeyUsesFallback(t *testing.T) {
	c := NewCommenter("", "", "", DefaultAIConfig())
	assert.Equal(t, c.Fallback(), c.Generate(context.Background(), "t", "c"))
}

func TestMessages_TruncatesContentByRunes(t *testing.T) {
	cfg := DefaultAIConfig()
	cfg.Prompt.UserMessageTemplate = "{title}|{content}"
	cfg.Prompt.ContentPreviewLength = 3
	c := NewCommenterWithClient(&fakeCompleter{}, cfg)

	msgs := c.messages("제목", "가나다라마")
	assert.Equal(t, "제목|가나다", msgs[1].Content)
}

func TestNewCommenter_SendsOpenRouterHeaders(t *testing.T) {
	var got http.Header
	var body openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply("원격 모델이 작성한 댓글입니다."))
	}))
	defer srv.Close()

	cfg := DefaultAIConfig()
	cfg.Request.Referer = "https://example.com"
	cfg.Request.Title = "Community"
	c := NewCommenter("sk-test", srv.URL, "custom/model", cfg)

	assert.Equal(t, "원격 모델이 작성한 댓글입니다.", c.Generate(context.Background(), "t", "c"))
	assert.Equal(t, "Bearer sk-test", got.Get("Authorization"))
	assert.Equal(t, "https://example.com", got.Get("HTTP-Referer"))
	assert.Equal(t, "Community", got.Get("X-Title"))
	assert.Equal(t, "custom/model", body.Model)
}

func TestLoadAIConfig(t *testing.T) {
	cfg, err := LoadAIConfig("../config/ai_service.yaml")
	require.NoError(t, err)
	assert.Equal(t, "meta-llama/llama-3.2-3b-instruct:free", cfg.CurrentModel())
	assert.Equal(t, 300, cfg.Prompt.ContentPreviewLength)
	assert.True(t, strings.Contains(cfg.Prompt.UserMessageTemplate, "{content}"))

	cfg, err = LoadAIConfig("does-not-exist.yaml")
	assert.Error(t, err)
	assert.Equal(t, DefaultAIConfig(), cfg)
}

func TestCurrentModel_FallsBackInNameOrder(t *testing.T) {
	var cfg AIConfig
	cfg.Models.Current = "missing"
	cfg.Models.Available = map[string]ModelConfig{
		"zeta":  {ID: "z/model"},
		"alpha": {ID: "a/model"},
	}
	assert.Equal(t, "a/model", cfg.CurrentModel())

	cfg.Models.Available = nil
	assert.Equal(t, defaultModelID, cfg.CurrentModel())
}
