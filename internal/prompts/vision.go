package prompts

import (
	"fmt"
	"strings"
)

// ImageDescription is the default vision prompt.
func ImageDescription(lang string) string {
	return fmt.Sprintf("Describe this image in detail. Respond in %s.", LanguageName(lang))
}

// ImageAnalysis asks for what is visible plus the mood, which feeds the
// keyword-based mood detection.
func ImageAnalysis(lang string) string {
	return fmt.Sprintf("Describe in detail what you see in this image, and capture its mood and character. Respond in %s.", LanguageName(lang))
}

// ImagePost writes one post from one or more image descriptions.
func ImagePost(descriptions []string, extra, lang string) string {
	var b strings.Builder
	b.WriteString("Write a blog post based on the following image analysis.\n")
	for i, d := range descriptions {
		section(&b, fmt.Sprintf("IMAGE %d", i+1), d)
	}
	if extra != "" {
		b.WriteString("\nAdditional context from the author:\n" + extra + "\n")
	}
	b.WriteString("\nRequirements:\n1. Create an engaging title\n2. Start with a natural introduction\n3. Weave the image descriptions into the body\n4. Express emotions and impressions\n5. Make the reader relate\n\n")
	b.WriteString(jsonOnly)
	b.WriteString(`{"title": "title", "content": "post body in markdown"}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}
