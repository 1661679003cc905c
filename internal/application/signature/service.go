package signature

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/contract-quitter/internal/domain/ai"
	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
	"github.com/bryanwahyu/contract-quitter/internal/infra/ai/prompt"
	"github.com/bryanwahyu/contract-quitter/pkg/logger"
)

const maxDownload = 10 << 20

// ErrBlankName is returned when there is nobody to sign for.
var ErrBlankName = errors.New("signature name is empty")

// Service draws a handwritten-looking signature for a name.
type Service struct {
	client  ai.ImageClient
	http    *http.Client
	timeout time.Duration
}

// NewService uses hc for downloading the generated image; nil means a client bounded by timeout.
func NewService(client ai.ImageClient, hc *http.Client, timeout time.Duration) *Service {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Service{client: client, http: hc, timeout: timeout}
}

// Generate returns the signature re-encoded as PNG.
func (s *Service) Generate(ctx context.Context, name string) contract.Result[contract.SignatureImage] {
	log := logger.WithContext(ctx).With("stage", contract.KindGeneration)
	name = strings.TrimSpace(name)
	if name == "" {
		return contract.Fail[contract.SignatureImage](contract.KindGeneration, "signature generation failed", ErrBlankName)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	img, err := s.client.GenerateImage(ctx, prompt.GetSignaturePrompt(name))
	if err != nil {
		log.Error("image request failed", "error", err)
		return contract.Fail[contract.SignatureImage](contract.KindGeneration, "signature generation failed", err)
	}

	raw := img.Data
	if len(raw) == 0 {
		if raw, err = s.download(ctx, img.URL); err != nil {
			log.Error("image download failed", "error", err)
			return contract.Fail[contract.SignatureImage](contract.KindGeneration, "signature download failed", err)
		}
	}

	out, err := toPNG(raw)
	if err != nil {
		log.Error("image decode failed", "error", err, "bytes", len(raw))
		return contract.Fail[contract.SignatureImage](contract.KindGeneration, "signature image unreadable", err)
	}
	log.Info("signature generated", "bytes", len(out))
	return contract.OK(contract.SignatureImage(out))
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ai.ErrEmptyReply
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownload))
}

func toPNG(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
