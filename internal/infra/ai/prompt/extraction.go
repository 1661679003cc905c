package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
)

// GetSystemPrompt is the system message sent with every extraction request.
func GetSystemPrompt() string {
	return "You are a helpful assistant."
}

// GetExtractionPrompt builds the user message around the contract text.
// The labels must stay in sync with contract.ParseReply.
func GetExtractionPrompt(text contract.ContractText, opts contract.AnalysisOptions) string {
	var b strings.Builder
	b.WriteString("Analyze the following contract text and extract the company with whom the contract should be cancelled, ")
	b.WriteString("the contract number, the date of birth, and the name of the person who is the quitting party.\n")
	b.WriteString("Answer with one line per item, exactly in this form:\n")
	b.WriteString("Company: <company>\nContract Number: <contract number>\nDate of Birth: <DD.MM.YYYY>\nQuitting Party: <full name>\n")
	b.WriteString("Leave out a line if the item is not in the text.\n")

	switch opts.Depth {
	case contract.DepthIntermediate:
		b.WriteString("After these lines, summarise the notice period and termination clause in two or three sentences.\n")
	case contract.DepthAdvanced:
		b.WriteString("After these lines, summarise the notice period, termination clause, renewal terms and any penalties.\n")
	}
	if opts.RiskAssessment {
		b.WriteString("Finally, list risks the quitting party should be aware of when terminating.\n")
	}

	fmt.Fprintf(&b, "\n%s\n\n", string(text))
	return b.String()
}
