package render

// letterText is the boilerplate of the letter in one language.
type letterText struct {
	contractNumber string
	dateOfBirth    string
	headline       string
	body           string
}

var templates = map[string]letterText{
	"en": {
		contractNumber: "Contract Number",
		dateOfBirth:    "Date of Birth",
		headline:       "Termination at the next possible date",
		body: "Dear Sir or Madam,\n\n" +
			"I hereby give notice of termination of my contract with effect from the next possible date.\n" +
			"Please send me a written confirmation of the termination stating the date of termination.\n\n" +
			"Kind regards,",
	},
	"de": {
		contractNumber: "Vertragsnummer",
		dateOfBirth:    "Geburtsdatum",
		headline:       "Kündigung zum nächstmöglichen Zeitpunkt",
		body: "Sehr geehrte Damen und Herren,\n\n" +
			"hiermit kündige ich meinen Vertrag fristgerecht zum nächstmöglichen Zeitpunkt.\n" +
			"Bitte senden Sie mir eine schriftliche Bestätigung der Kündigung unter Angabe des Beendigungszeitpunktes zu.\n\n" +
			"Mit freundlichen Grüßen",
	},
}

// Languages lists the supported letter languages.
func Languages() []string { return []string{"en", "de"} }
