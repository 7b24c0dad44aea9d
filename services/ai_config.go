package services

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelConfig describes one selectable completion model.
type ModelConfig struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// APIParameters are the sampling parameters sent with every completion.
type APIParameters struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float32 `yaml:"top_p"`
}

// PromptConfig holds the chat prompt. The user template may reference
// {title} and {content}.
type PromptConfig struct {
	SystemMessage        string `yaml:"system_message"`
	UserMessageTemplate  string `yaml:"user_message_template"`
	ContentPreviewLength int    `yaml:"content_preview_length"`
}

// RequestConfig controls the outbound HTTP call.
type RequestConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Referer        string `yaml:"referer"`
	Title          string `yaml:"title"`
}

// AIConfig mirrors config/ai_service.yaml.
type AIConfig struct {
	Models struct {
		Current   string                 `yaml:"current"`
		Available map[string]ModelConfig `yaml:"available"`
	} `yaml:"models"`
	APIParameters   APIParameters `yaml:"api_parameters"`
	Request         RequestConfig `yaml:"request"`
	Prompt          PromptConfig  `yaml:"prompt"`
	FallbackMessage string        `yaml:"fallback_message"`
}

const defaultModelID = "meta-llama/llama-3.2-3b-instruct:free"

// DefaultAIConfig returns the settings used when no YAML file is available.
func DefaultAIConfig() AIConfig {
	var c AIConfig
	c.applyDefaults()
	return c
}

// LoadAIConfig reads the YAML file at path. Missing keys take defaults; a
// missing or malformed file is an error and the defaults are returned with it.
func LoadAIConfig(path string) (AIConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultAIConfig(), fmt.Errorf("read ai config: %w", err)
	}
	var c AIConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return DefaultAIConfig(), fmt.Errorf("parse ai config %s: %w", path, err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *AIConfig) applyDefaults() {
	if c.APIParameters.Temperature == 0 {
		c.APIParameters.Temperature = 0.7
	}
	if c.APIParameters.MaxTokens == 0 {
		c.APIParameters.MaxTokens = 150
	}
	if c.APIParameters.TopP == 0 {
		c.APIParameters.TopP = 0.9
	}
	if c.Request.TimeoutSeconds == 0 {
		c.Request.TimeoutSeconds = 30
	}
	if c.Prompt.SystemMessage == "" {
		c.Prompt.SystemMessage = "당신은 요약 전문가입니다."
	}
	if c.Prompt.UserMessageTemplate == "" {
		c.Prompt.UserMessageTemplate = "다음 게시글을 요약해주세요.\n\n{title}\n{content}"
	}
	if c.Prompt.ContentPreviewLength == 0 {
		c.Prompt.ContentPreviewLength = 300
	}
	if c.FallbackMessage == "" {
		c.FallbackMessage = "AI 댓글 생성에 실패했습니다. 나중에 다시 시도해주세요."
	}
}

// CurrentModel resolves the model id to use. An unknown current name falls
// back to the first available model by name, then to the built-in default.
func (c AIConfig) CurrentModel() string {
	if m, ok := c.Models.Available[c.Models.Current]; ok && m.ID != "" {
		return m.ID
	}
	names := make([]string, 0, len(c.Models.Available))
	for name := range c.Models.Available {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if id := c.Models.Available[name].ID; id != "" {
			return id
		}
	}
	return defaultModelID
}

// Timeout is the deadline for one completion request.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.Request.TimeoutSeconds) * time.Second
}
