package middleware

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
)

// Input validation and sanitization utilities

const (
	MaxNameLength = 100
	MaxTextLength = 200_000
)

var allowedExtensions = map[contract.InputMode]map[string]bool{
	contract.ModeImage: {".png": true, ".jpg": true, ".jpeg": true, ".gif": true},
	contract.ModePDF:   {".pdf": true},
}

// ValidateUpload checks the file name matches the chosen mode.
func ValidateUpload(mode contract.InputMode, filename string, size int) error {
	allowed, ok := allowedExtensions[mode]
	if !ok {
		return fmt.Errorf("mode %q does not take a file upload", mode)
	}
	if size == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed[ext] {
		return fmt.Errorf("invalid file type %q for mode %s", ext, mode)
	}
	return nil
}

// ValidateText bounds pasted contract text.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("text must be valid UTF-8")
	}
	if len(text) > MaxTextLength {
		return fmt.Errorf("text too long (max %d bytes)", MaxTextLength)
	}
	return nil
}

// ValidateName checks a signature name. Empty is allowed and means "use the record".
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return fmt.Errorf("name contains control characters")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// SanitizeRecord cleans every candidate and drops the ones left empty.
func SanitizeRecord(rec contract.ExtractionRecord) contract.ExtractionRecord {
	clean := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, v := range in {
			if v = SanitizeString(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return contract.ExtractionRecord{
		Company:        clean(rec.Company),
		ContractNumber: clean(rec.ContractNumber),
		DateOfBirth:    clean(rec.DateOfBirth),
		QuittingParty:  clean(rec.QuittingParty),
	}
}
