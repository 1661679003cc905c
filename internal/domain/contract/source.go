package contract

import "fmt"

// InputMode is how the contract was supplied.
type InputMode string

const (
	ModeImage InputMode = "image"
	ModePDF   InputMode = "pdf"
	ModeText  InputMode = "text"
)

// ParseMode maps user input onto an InputMode.
func ParseMode(s string) (InputMode, error) {
	switch m := InputMode(s); m {
	case ModeImage, ModePDF, ModeText:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// Source is one uploaded contract. Data is used for image and pdf, Text for text.
type Source struct {
	Mode     InputMode
	Data     []byte
	Text     string
	Filename string
}

// Depth of the model analysis, chosen by the user.
type Depth string

const (
	DepthBasic        Depth = "basic"
	DepthIntermediate Depth = "intermediate"
	DepthAdvanced     Depth = "advanced"
)

// AnalysisOptions tune the extraction prompt.
type AnalysisOptions struct {
	Depth          Depth
	RiskAssessment bool
}

// ParseDepth falls back to basic for anything unknown.
func ParseDepth(s string) Depth {
	switch d := Depth(s); d {
	case DepthIntermediate, DepthAdvanced:
		return d
	}
	return DepthBasic
}
