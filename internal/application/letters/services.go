package letters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/contract-quitter/internal/application"
	appai "github.com/bryanwahyu/contract-quitter/internal/application/ai"
	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
	"github.com/bryanwahyu/contract-quitter/pkg/logger"
)

type Acquirer interface {
	Acquire(ctx context.Context, src contract.Source) contract.Result[contract.ContractText]
}

type Extractor interface {
	Extract(ctx context.Context, text contract.ContractText, opts contract.AnalysisOptions) contract.Result[appai.Extraction]
}

type Signer interface {
	Generate(ctx context.Context, name string) contract.Result[contract.SignatureImage]
}

// Service runs the contract pipeline one stage after another.
// Signer and Archive are optional.
type Service struct {
	Acquirer  Acquirer
	Extractor Extractor
	Signer    Signer
	Renderer  contract.LetterRenderer
	Archive   contract.ArtifactStore
	Clock     application.Clock
}

// SignatureStatus tells the caller what happened to the optional signature.
type SignatureStatus string

const (
	SignatureIncluded SignatureStatus = "included"
	SignatureSkipped  SignatureStatus = "skipped"
	SignatureFailed   SignatureStatus = "failed"
)

type Analysis struct {
	ID     string                    `json:"id"`
	Text   contract.ContractText     `json:"text"`
	Reply  string                    `json:"reply"`
	Record contract.ExtractionRecord `json:"record"`
}

type LetterRequest struct {
	Record        contract.ExtractionRecord
	Signature     bool
	SignatureName string // empty = first quitting party
}

type Letter struct {
	PDF             contract.TerminationLetter
	Filename        string
	SignatureStatus SignatureStatus
	SignatureError  string
	ArchiveURL      string
}

// Text runs acquisition only.
func (s *Service) Text(ctx context.Context, src contract.Source) contract.Result[contract.ContractText] {
	return s.Acquirer.Acquire(ctx, src)
}

// Analyze acquires the text and extracts the fields, halting at the first failure.
func (s *Service) Analyze(ctx context.Context, src contract.Source, opts contract.AnalysisOptions) contract.Result[Analysis] {
	text := s.Acquirer.Acquire(ctx, src)
	if text.Failed() {
		return contract.Result[Analysis]{Err: text.Err}
	}

	ext := s.Extractor.Extract(ctx, text.Value, opts)
	if ext.Failed() {
		return contract.Result[Analysis]{Err: ext.Err}
	}

	return contract.OK(Analysis{
		ID:     uuid.New().String(),
		Text:   text.Value,
		Reply:  ext.Value.Reply,
		Record: ext.Value.Record,
	})
}

// Signature draws a signature for name on its own.
func (s *Service) Signature(ctx context.Context, name string) contract.Result[contract.SignatureImage] {
	if s.Signer == nil {
		return contract.Fail[contract.SignatureImage](contract.KindGeneration, "signature generation disabled", nil)
	}
	return s.Signer.Generate(ctx, name)
}

// Letter renders the termination letter. A failed signature degrades to a
// letter without image; a failed archive upload only loses the URL.
func (s *Service) Letter(ctx context.Context, req LetterRequest) contract.Result[Letter] {
	log := logger.WithContext(ctx).With("stage", contract.KindRendering)
	rec := req.Record.Normalize()
	out := Letter{Filename: contract.LetterFilename, SignatureStatus: SignatureSkipped}

	var sig contract.SignatureImage
	if req.Signature {
		name := strings.TrimSpace(req.SignatureName)
		if name == "" {
			name = GetName(rec)
		}
		res := s.Signature(ctx, name)
		if res.Failed() {
			log.Warn("continuing without signature", "error", res.Err)
			out.SignatureStatus = SignatureFailed
			out.SignatureError = res.Err.Message
		} else {
			sig = res.Value
			out.SignatureStatus = SignatureIncluded
		}
	}

	pdf, err := s.Renderer.Render(contract.LetterInput{Record: rec, Signature: sig})
	if err != nil {
		log.Error("letter rendering failed", "error", err, "signature", out.SignatureStatus)
		return contract.Fail[Letter](contract.KindRendering, "letter rendering failed", err)
	}
	out.PDF = pdf

	if s.Archive != nil {
		key := s.archiveKey()
		url, err := s.Archive.Put(ctx, key, pdf, "application/pdf")
		if err != nil {
			log.Warn("letter archive failed", "key", key, "error", err)
		} else {
			out.ArchiveURL = url
		}
	}

	log.Info("letter rendered", "bytes", len(pdf), "signature", out.SignatureStatus, "archived", out.ArchiveURL != "")
	return contract.OK(out)
}

// GetName is who the letter is signed for.
func GetName(rec contract.ExtractionRecord) string {
	name, _ := rec.First(contract.FieldQuittingParty)
	return name
}

func (s *Service) archiveKey() string {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	return fmt.Sprintf("letters/%s/%s-%s", now.UTC().Format("2006/01/02"), uuid.New().String(), contract.LetterFilename)
}
