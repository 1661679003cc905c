package contract

import "context"

// ImageOCR reads text from a raster image.
type ImageOCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// PDFTextExtractor reads the text layer of a PDF.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// LetterInput is everything the letter layout needs.
type LetterInput struct {
	Record    ExtractionRecord
	Signature SignatureImage // optional
}

// LetterRenderer produces the PDF bytes.
type LetterRenderer interface {
	Render(in LetterInput) (TerminationLetter, error)
}

// ArtifactStore keeps produced letters when archiving is enabled.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
