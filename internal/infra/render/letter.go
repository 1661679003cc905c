package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
)

const (
	lineHeight     = 10.0
	signatureX     = 10.0
	signatureWidth = 50.0
	signatureName  = "signature"
	dateLayout     = "02.01.2006"
)

// Clock supplies "today" for the letter date.
type Clock interface {
	Now() time.Time
}

type Options struct {
	Language string // "en" or "de"; default "en"
	Compress bool
}

// LetterRenderer draws the termination letter with go-pdf/fpdf.
type LetterRenderer struct {
	opts  Options
	text  letterText
	clock Clock
}

func NewLetterRenderer(opts Options, clock Clock) (*LetterRenderer, error) {
	if opts.Language == "" {
		opts.Language = "en"
	}
	text, ok := templates[opts.Language]
	if !ok {
		return nil, fmt.Errorf("unsupported letter language %q", opts.Language)
	}
	return &LetterRenderer{opts: opts, text: text, clock: clock}, nil
}

// Render lays the letter out on one page, flowing onto more pages if needed.
// Nothing is returned when any drawing step fails.
func (r *LetterRenderer) Render(in contract.LetterInput) (contract.TerminationLetter, error) {
	rec := in.Record
	company, _ := rec.First(contract.FieldCompany)
	number, _ := rec.First(contract.FieldContractNumber)
	party, _ := rec.First(contract.FieldQuittingParty)
	dob, hasDOB := rec.BirthDate()

	for _, f := range []struct{ label, value string }{
		{"company", company}, {"contract number", number}, {"quitting party", party},
	} {
		if err := checkRenderable(f.label, f.value); err != nil {
			return nil, err
		}
	}

	now := r.clock.Now()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.opts.Compress)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(now)
	doc.SetModificationDate(now)
	doc.SetCreator("contract-quitter", true)
	doc.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	doc.AddUTF8FontFromBytes(fontFamily, "B", boldFont)

	line := func(txt, align string) {
		doc.CellFormat(0, lineHeight, txt, "", 1, align, false, 0, "")
	}

	doc.AddPage()
	doc.SetFont(fontFamily, "", 12)

	line("", "")
	line(company, "")
	for i := 0; i < 4; i++ {
		line("", "")
	}

	line(fmt.Sprintf("%s: %s", r.text.contractNumber, number), "")
	if hasDOB {
		line(fmt.Sprintf("%s: %s", r.text.dateOfBirth, dob), "")
	}
	line("", "")

	doc.SetFont(fontFamily, "B", 14)
	line(r.text.headline, "")
	doc.SetFont(fontFamily, "", 12)
	line(now.Format(dateLayout), "R")
	line("", "")
	line("", "")

	doc.MultiCell(0, lineHeight, r.text.body, "", "", false)

	doc.SetFont(fontFamily, "B", 16)
	line(party, "")
	doc.SetFont(fontFamily, "", 12)
	line(party, "")

	if len(in.Signature) > 0 {
		opt := fpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader(signatureName, opt, bytes.NewReader(in.Signature))
		doc.Ln(10)
		doc.ImageOptions(signatureName, signatureX, 0, signatureWidth, 0, true, opt, 0, "")
	}

	if doc.Err() {
		return nil, fmt.Errorf("render letter: %w", doc.Error())
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write letter: %w", err)
	}
	return contract.TerminationLetter(buf.Bytes()), nil
}
