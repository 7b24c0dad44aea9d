package services

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/yanni/community/utils"
)

// minCommentRunes is the shortest completion accepted as a real comment.
const minCommentRunes = 5

// ChatCompleter is the slice of the OpenAI client the commenter needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Commenter writes a short summary comment for a post. It never fails: any
// problem yields the configured fallback text.
type Commenter struct {
	client ChatCompleter
	model  string
	cfg    AIConfig
}

// NewCommenter builds a Commenter talking to an OpenAI-compatible endpoint.
// An empty apiKey disables remote calls. model overrides the YAML selection
// when non-empty.
func NewCommenter(apiKey, baseURL, model string, cfg AIConfig) *Commenter {
	if model == "" {
		model = cfg.CurrentModel()
	}
	c := &Commenter{model: model, cfg: cfg}
	if apiKey == "" {
		return c
	}
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	oc.HTTPClient = &http.Client{
		Timeout: cfg.Timeout(),
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Request.Referer,
				"X-Title":      cfg.Request.Title,
			},
		},
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// NewCommenterWithClient is used with a pre-built or fake client.
func NewCommenterWithClient(client ChatCompleter, cfg AIConfig) *Commenter {
	return &Commenter{client: client, model: cfg.CurrentModel(), cfg: cfg}
}

// Fallback returns the text used when generation fails.
func (c *Commenter) Fallback() string {
	return c.cfg.FallbackMessage
}

// Generate returns a comment for the post, or the fallback text.
func (c *Commenter) Generate(ctx context.Context, title, content string) string {
	if c.client == nil {
		utils.Logger.Warn("ai api key not configured, using fallback comment")
		utils.AIComments.WithLabelValues("disabled").Inc()
		return c.Fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    c.messages(title, content),
		Temperature: c.cfg.APIParameters.Temperature,
		MaxTokens:   c.cfg.APIParameters.MaxTokens,
		TopP:        c.cfg.APIParameters.TopP,
	})
	if err != nil {
		utils.Logger.Error("ai completion failed", zap.String("model", c.model), zap.Error(err))
		utils.AIComments.WithLabelValues("error").Inc()
		return c.Fallback()
	}
	if len(resp.Choices) == 0 {
		utils.Logger.Warn("ai completion returned no choices", zap.String("model", c.model))
		utils.AIComments.WithLabelValues("empty").Inc()
		return c.Fallback()
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if utf8.RuneCountInString(text) < minCommentRunes {
		utils.Logger.Warn("ai completion too short", zap.Int("runes", utf8.RuneCountInString(text)))
		utils.AIComments.WithLabelValues("short").Inc()
		return c.Fallback()
	}
	utils.AIComments.WithLabelValues("generated").Inc()
	return text
}

func (c *Commenter) messages(title, content string) []openai.ChatCompletionMessage {
	preview := content
	if n := c.cfg.Prompt.ContentPreviewLength; n > 0 && utf8.RuneCountInString(content) > n {
		preview = string([]rune(content)[:n])
	}
	user := strings.NewReplacer("{title}", title, "{content}", preview).Replace(c.cfg.Prompt.UserMessageTemplate)
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: c.cfg.Prompt.SystemMessage},
		{Role: openai.ChatMessageRoleUser, Content: user},
	}
}

// headerTransport adds fixed headers required by OpenRouter.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
