package contract

import "strings"

type label struct {
	prefix string
	field  Field
}

// labels maps the reply line labels the prompt asks for onto record fields.
// Matching is exact-case; the first label found in a line wins.
var labels = []label{
	{"Company:", FieldCompany},
	{"Contract Number:", FieldContractNumber},
	{"Date of Birth:", FieldDateOfBirth},
	{"Quitting Party:", FieldQuittingParty},
}

// ParseReply turns a free-form model reply into a record. Lines without a
// known label are ignored, so a reply in another wording yields an empty record.
func ParseReply(reply string) ExtractionRecord {
	rec := NewRecord()
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, l := range labels {
			i := strings.Index(line, l.prefix)
			if i < 0 {
				continue
			}
			if v := strings.TrimSpace(line[i+len(l.prefix):]); v != "" {
				rec.add(l.field, v)
			}
			break
		}
	}
	return rec
}
