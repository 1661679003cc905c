package acquire

import (
	"context"
	"time"

	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
	"github.com/bryanwahyu/contract-quitter/pkg/logger"
)

// Service turns an uploaded image, PDF or pasted text into contract text.
type Service struct {
	OCR     contract.ImageOCR
	PDF     contract.PDFTextExtractor
	Timeout time.Duration // 0 = no bound
}

// Acquire never hands back blank text as a success.
func (s *Service) Acquire(ctx context.Context, src contract.Source) contract.Result[contract.ContractText] {
	log := logger.WithContext(ctx).With("stage", contract.KindAcquisition, "mode", src.Mode)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var (
		raw string
		err error
	)
	switch src.Mode {
	case contract.ModeText:
		raw = src.Text
	case contract.ModeImage:
		raw, err = s.OCR.Recognize(ctx, src.Data)
	case contract.ModePDF:
		raw, err = s.PDF.ExtractText(ctx, src.Data)
	default:
		return contract.Fail[contract.ContractText](contract.KindAcquisition, "unsupported input mode", contract.ErrUnsupportedMode)
	}
	if err != nil {
		log.Error("text extraction failed", "filename", src.Filename, "error", err)
		return contract.Fail[contract.ContractText](contract.KindAcquisition, "no text produced", err)
	}

	text := contract.ContractText(raw)
	if text.Blank() {
		log.Warn("no text found in input", "filename", src.Filename)
		return contract.Fail[contract.ContractText](contract.KindAcquisition, "no text produced", contract.ErrEmptyText)
	}
	log.Info("text acquired", "chars", len(raw))
	return contract.OK(text)
}
