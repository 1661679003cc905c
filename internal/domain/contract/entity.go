package contract

import (
	"regexp"
	"strings"
)

// ContractText is the best-effort transcription of the source document.
type ContractText string

// Blank reports whether there is nothing worth sending to the model.
func (t ContractText) Blank() bool { return strings.TrimSpace(string(t)) == "" }

// Field names one slot of an ExtractionRecord.
type Field string

const (
	FieldCompany        Field = "company"
	FieldContractNumber Field = "contract_number"
	FieldDateOfBirth    Field = "date_of_birth"
	FieldQuittingParty  Field = "quitting_party"
)

// Fields lists every field in render order.
var Fields = []Field{FieldCompany, FieldContractNumber, FieldDateOfBirth, FieldQuittingParty}

// ExtractionRecord keeps every candidate the model returned per field.
// Callers use the first one; the slices are never nil.
type ExtractionRecord struct {
	Company        []string `json:"company"`
	ContractNumber []string `json:"contract_number"`
	DateOfBirth    []string `json:"date_of_birth"`
	QuittingParty  []string `json:"quitting_party"`
}

// NewRecord returns a record with all four keys present and empty.
func NewRecord() ExtractionRecord {
	return ExtractionRecord{
		Company:        []string{},
		ContractNumber: []string{},
		DateOfBirth:    []string{},
		QuittingParty:  []string{},
	}
}

// Normalize replaces nil slices, e.g. after decoding a partial JSON body.
func (r ExtractionRecord) Normalize() ExtractionRecord {
	for _, f := range Fields {
		if *r.values(f) == nil {
			*r.values(f) = []string{}
		}
	}
	return r
}

func (r *ExtractionRecord) values(f Field) *[]string {
	switch f {
	case FieldCompany:
		return &r.Company
	case FieldContractNumber:
		return &r.ContractNumber
	case FieldDateOfBirth:
		return &r.DateOfBirth
	case FieldQuittingParty:
		return &r.QuittingParty
	}
	return nil
}

// Values returns every candidate for f.
func (r ExtractionRecord) Values(f Field) []string {
	if v := r.values(f); v != nil {
		return *v
	}
	return nil
}

func (r *ExtractionRecord) add(f Field, v string) {
	if p := r.values(f); p != nil {
		*p = append(*p, v)
	}
}

// First returns the first candidate for f and whether one exists.
func (r ExtractionRecord) First(f Field) (string, bool) {
	vals := r.Values(f)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Empty reports whether no field has any candidate.
func (r ExtractionRecord) Empty() bool {
	for _, f := range Fields {
		if len(r.Values(f)) > 0 {
			return false
		}
	}
	return true
}

var dobPattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}\b`)

// ValidDateOfBirth checks the DD.MM.YYYY shape. No coercion is attempted.
func ValidDateOfBirth(s string) bool { return dobPattern.MatchString(s) }

// BirthDate returns the first date_of_birth candidate only if it is a valid DD.MM.YYYY date.
func (r ExtractionRecord) BirthDate() (string, bool) {
	v, ok := r.First(FieldDateOfBirth)
	if !ok || !ValidDateOfBirth(v) {
		return "", false
	}
	return v, true
}

// SignatureImage is PNG encoded.
type SignatureImage []byte

// TerminationLetter is the rendered PDF.
type TerminationLetter []byte

// LetterFilename is what the letter is offered for download as.
const LetterFilename = "termination_contract.pdf"
