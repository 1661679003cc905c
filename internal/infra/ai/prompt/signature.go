package prompt

import "fmt"

// GetSignaturePrompt describes the handwritten signature the image model should draw.
func GetSignaturePrompt(name string) string {
	return fmt.Sprintf("Generate a realistic handwritten signature for the name '%s'. "+
		"The signature should be elegant, clear, and written in a cursive style. "+
		"The background should be transparent or plain white, and the signature should be centered "+
		"with no additional text or decorations. Ensure that the handwriting appears "+
		"natural and fluid, resembling an authentic signature.", name)
}
