package ai

import (
	"context"
	"errors"
	"time"

	"github.com/bryanwahyu/contract-quitter/internal/domain/ai"
	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
	"github.com/bryanwahyu/contract-quitter/internal/infra/ai/prompt"
	"github.com/bryanwahyu/contract-quitter/pkg/logger"
)

// Extraction is the parsed record plus the reply it came from.
type Extraction struct {
	Reply  string                    `json:"reply"`
	Record contract.ExtractionRecord `json:"record"`
}

type Service struct {
	client  ai.Client
	timeout time.Duration
}

func NewService(client ai.Client, timeout time.Duration) *Service {
	return &Service{client: client, timeout: timeout}
}

// Extract asks the model for the contract fields. Blank text is refused
// before any request is made.
func (s *Service) Extract(ctx context.Context, text contract.ContractText, opts contract.AnalysisOptions) contract.Result[Extraction] {
	log := logger.WithContext(ctx).With("stage", contract.KindExtraction)
	if text.Blank() {
		return contract.Fail[Extraction](contract.KindExtraction, "nothing to analyse", contract.ErrEmptyText)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.client.Complete(ctx, prompt.GetSystemPrompt(), prompt.GetExtractionPrompt(text, opts))
	if err != nil {
		log.Error("analysis failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		msg := "analysis failed"
		if errors.Is(err, ai.ErrQuotaExceeded) {
			msg = "ai quota exceeded"
		}
		return contract.Fail[Extraction](contract.KindExtraction, msg, err)
	}

	rec := contract.ParseReply(reply)
	if rec.Empty() {
		log.Warn("model reply had no recognised labels", "reply_len", len(reply))
		return contract.Fail[Extraction](contract.KindExtraction, "analysis failed", contract.ErrNoFields)
	}

	log.Info("analysis ok",
		"company", len(rec.Company),
		"contract_number", len(rec.ContractNumber),
		"date_of_birth", len(rec.DateOfBirth),
		"quitting_party", len(rec.QuittingParty),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return contract.OK(Extraction{Reply: reply, Record: rec})
}
