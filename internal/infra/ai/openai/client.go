package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/contract-quitter/internal/domain/ai"
)

const (
	defaultModel      = openai.GPT4
	defaultImageModel = openai.CreateImageModelDallE2
	defaultImageSize  = openai.CreateImageSize256x256
	defaultMaxTokens  = 500
)

type Config struct {
	APIKey     string
	BaseURL    string // empty = api.openai.com
	Model      string
	ImageModel string
	ImageSize  string
	MaxTokens  int
	HTTPClient *http.Client
}

type Client struct {
	*openai.Client
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaultImageModel
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = defaultImageSize
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{Client: openai.NewClientWithConfig(oc), cfg: cfg}
}

// Complete sends a single chat completion and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	model := c.cfg.Model
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = c.cfg.MaxTokens
	} else {
		req.MaxTokens = c.cfg.MaxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", mapError(err))
	}
	if len(resp.Choices) == 0 {
		return "", domai.ErrEmptyReply
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domai.ErrEmptyReply
	}
	return content, nil
}

// GenerateImage requests exactly one image at the configured size.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (domai.GeneratedImage, error) {
	resp, err := c.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           c.cfg.ImageSize,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return domai.GeneratedImage{}, fmt.Errorf("failed to create image: %w", mapError(err))
	}
	if len(resp.Data) == 0 {
		return domai.GeneratedImage{}, domai.ErrEmptyReply
	}

	d := resp.Data[0]
	switch {
	case d.URL != "":
		return domai.GeneratedImage{URL: d.URL}, nil
	case d.B64JSON != "":
		raw, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return domai.GeneratedImage{}, fmt.Errorf("decode b64 image: %w", err)
		}
		return domai.GeneratedImage{Data: raw}, nil
	}
	return domai.GeneratedImage{}, domai.ErrEmptyReply
}

// mapError keeps the provider error in the chain and adds ErrQuotaExceeded on 429.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return errors.Join(domai.ErrQuotaExceeded, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return errors.Join(domai.ErrQuotaExceeded, err)
	}
	return err
}
