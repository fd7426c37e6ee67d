package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bondly-app/backend/internal/infra/httpclient"
)

var ErrDisabled = errors.New("llm client is not configured")

type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Client renders text/template prompts and sends them as a single-turn chat completion.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int

	mu        sync.Mutex
	templates map[string]*template.Template
}

func New(cfg Config) *Client {
	c := &Client{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		templates: make(map[string]*template.Template),
	}
	if c.model == "" {
		c.model = openai.GPT4oMini
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 256
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = httpclient.New(httpclient.Options{Timeout: timeout})
	c.api = openai.NewClientWithConfig(oc)
	return c
}

func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

func (c *Client) Complete(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	prompt, err := c.Render(tmpl, vars)
	if err != nil {
		return "", err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("create chat completion: empty choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Render executes tmpl with vars. Parsed templates are cached by their source text.
func (c *Client) Render(tmpl string, vars map[string]any) (string, error) {
	t, err := c.parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (c *Client) parse(tmpl string) (*template.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.templates[tmpl]; ok {
		return t, nil
	}
	t, err := template.New("prompt").Option("missingkey=error").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	c.templates[tmpl] = t
	return t, nil
}
