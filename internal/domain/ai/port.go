package ai

import "context"

// Client sends one chat-completion request and returns the reply text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// GeneratedImage is either a URL to fetch or inline PNG bytes.
type GeneratedImage struct {
	URL  string
	Data []byte
}

// ImageClient asks the image model for exactly one picture.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (GeneratedImage, error)
}
