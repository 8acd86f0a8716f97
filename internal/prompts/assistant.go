package prompts

import (
	"fmt"
	"strings"
)

// Polish is a system prompt; the text to polish is sent as the user message.
func Polish(style, lang string) string {
	var b strings.Builder
	b.WriteString("You are a professional editor. Make the given text read more naturally.\n")
	if style != "" {
		b.WriteString("\nThe author's writing style: " + style + "\n")
	}
	b.WriteString("\nRules:\n1. Do not change the meaning\n2. Prefer more natural expressions\n3. Remove needless repetition\n4. Improve sentence structure\n5. Improve readability\n\n")
	b.WriteString(jsonOnly)
	b.WriteString(`{"polishedText": "polished text", "changes": ["change 1", "change 2"]}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func SpellCheck(lang string) string {
	var b strings.Builder
	b.WriteString("You are a spelling and grammar checker. Find and fix spelling and grammar errors in the given text.\n\n")
	b.WriteString("Check for:\n1. Spelling errors\n2. Spacing errors\n3. Grammar errors\n4. Incorrect expressions\n\n")
	b.WriteString(jsonOnly)
	b.WriteString(`{"hasErrors": true, "corrections": [{"original": "original", "corrected": "corrected", "reason": "why"}], "correctedText": "full corrected text"}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func NextParagraphSystem(lang string) string {
	var b strings.Builder
	b.WriteString("You are a blog writing assistant. Read the content written so far and give 3 suggestions for what the next paragraph could cover.\n\n")
	b.WriteString("Each suggestion must:\n1. Continue the flow naturally\n2. Stay on topic\n3. Be valuable to the reader\n\n")
	b.WriteString(jsonOnly)
	b.WriteString(`{"suggestions": ["suggestion 1", "suggestion 2", "suggestion 3"], "reasoning": "why these suggestions"}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func NextParagraph(topic, content string) string {
	return fmt.Sprintf("Topic: %s\n\nContent so far:\n%s", topic, content)
}
