// Package prompts renders every prompt sent to the model. Prompts that expect
// structured output embed the exact JSON shape the parser will enforce.
package prompts

import (
	"fmt"
	"strings"
)

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
}

// LanguageName maps a language code to the name used in prompts. Unknown
// codes are passed through.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	if code == "" {
		return "Korean"
	}
	return code
}

func languageLayer(b *strings.Builder, lang string) {
	b.WriteString(fmt.Sprintf("Language: Respond entirely in %s. JSON keys stay in English.\n", LanguageName(lang)))
}

// head returns the first n runes of s, marking truncation with "...".
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func section(b *strings.Builder, name, body string) {
	b.WriteString("\n---" + name + " START---\n")
	b.WriteString(body)
	b.WriteString("\n---" + name + " END---\n")
}

const jsonOnly = "CRITICAL: Return ONLY a valid JSON object. No preamble, no backticks.\n"

// System is the writer persona. A non-empty styleText asks the model to
// imitate the user's profile.
func System(styleText, lang string) string {
	var b strings.Builder
	b.WriteString("You are a professional blog writer. You write high quality posts that hold the reader's attention and give them useful information.\n")
	if strings.TrimSpace(styleText) != "" {
		b.WriteString("\nThe following is the user's writing style profile. Imitate this style as closely as you can:\n\n")
		b.WriteString(styleText)
		b.WriteString("\n")
	} else {
		b.WriteString("Write in a friendly, natural blog voice.\n")
	}
	b.WriteString("\n")
	languageLayer(&b, lang)
	return b.String()
}

var lengthGuides = map[string]string{
	"short":  "a concise post of roughly 800-1200 words",
	"medium": "a post of roughly 1500-2000 words",
	"long":   "a detailed post of roughly 2500-3500 words",
}

var toneGuides = map[string]string{
	"formal":       "formal and polite",
	"casual":       "casual and relaxed",
	"professional": "professional and objective",
	"friendly":     "warm and friendly",
}

// ToneDescription explains a tone value to the model.
func ToneDescription(tone string) string {
	if d, ok := toneGuides[tone]; ok {
		return d
	}
	return "friendly and natural"
}

type CategoryPostVars struct {
	Topic                  string
	Category               string
	Keywords               []string
	Tone                   string
	Length                 string
	AdditionalInstructions string
}

func CategoryPost(v CategoryPostVars, lang string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", v.Topic))
	if v.Category != "" {
		b.WriteString(fmt.Sprintf("Category: %s\n", v.Category))
	}
	if len(v.Keywords) > 0 {
		b.WriteString(fmt.Sprintf("Key keywords: %s\n", strings.Join(v.Keywords, ", ")))
	}

	length, ok := lengthGuides[v.Length]
	if !ok {
		length = lengthGuides["medium"]
	}

	b.WriteString("\nRequirements:\n")
	b.WriteString(fmt.Sprintf("1. Write %s.\n", length))
	b.WriteString(fmt.Sprintf("2. Use a %s tone.\n", ToneDescription(v.Tone)))
	b.WriteString("3. Create an engaging title.\n")
	b.WriteString("4. Open with a natural introduction.\n")
	b.WriteString("5. Include concrete, useful information.\n")
	b.WriteString("6. Split paragraphs for readability.\n")
	b.WriteString("7. Close with an ending the reader can relate to.\n")
	b.WriteString("8. Suggest 5-7 related hashtags.\n\n")

	b.WriteString(jsonOnly)
	b.WriteString(`{"title": "engaging title", "content": "post body in markdown", "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"]}` + "\n")

	if v.AdditionalInstructions != "" {
		b.WriteString("\nAdditional instructions:\n")
		b.WriteString(v.AdditionalInstructions)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	languageLayer(&b, lang)
	return b.String()
}

// SimpleCategoryPost asks for exactly a title and a body.
func SimpleCategoryPost(category, topic, lang string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Category: %s\nTopic: %s\n\n", category, topic))
	b.WriteString("Write a blog post on this topic.\n\nRequirements:\n")
	b.WriteString("1. An engaging title that fits the category\n")
	b.WriteString("2. An introduction that catches the reader's interest\n")
	b.WriteString("3. Concrete and useful content\n")
	b.WriteString("4. A natural voice and flow\n")
	b.WriteString("5. Sensible paragraph breaks\n\n")
	b.WriteString(jsonOnly)
	b.WriteString(`{"title": "title", "content": "post body in markdown"}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}

var categoryGuides = map[string]string{
	"여행": `Travel post guide:
- Include concrete place names and locations
- Give practical tips and cost information
- Share personal experience and impressions
- Mark where photos go as [Photo: description]`,
	"음식": `Food and restaurant post guide:
- Describe taste concretely
- Give menu, price and location information
- Describe the atmosphere and service
- Recommend dishes and share tips`,
	"개발": `Software development post guide:
- Keep technical information accurate
- Include code examples in markdown code blocks
- Explain step by step
- Cover caveats and troubleshooting`,
	"일상": `Daily life post guide:
- Express feelings honestly
- Use storytelling
- Include relatable moments
- Keep a natural conversational voice`,
	"리뷰": `Review post guide:
- Analyze pros and cons objectively
- Describe concrete hands-on experience
- Provide comparisons
- Include buying advice`,
}

var categoryAliases = map[string]string{
	"travel":      "여행",
	"food":        "음식",
	"development": "개발",
	"dev":         "개발",
	"daily":       "일상",
	"life":        "일상",
	"review":      "리뷰",
}

const defaultCategoryGuide = "Provide concrete and useful information suited to the topic."

// CategoryGuide returns writing guidance for a category. Unknown categories
// get a generic guide.
func CategoryGuide(category string) string {
	key := strings.TrimSpace(category)
	if alias, ok := categoryAliases[strings.ToLower(key)]; ok {
		key = alias
	}
	if g, ok := categoryGuides[key]; ok {
		return g
	}
	return defaultCategoryGuide
}

func TitleImprovement(originalTitle, content, lang string) string {
	var b strings.Builder
	b.WriteString("Improve the title of the following blog post.\n\n")
	b.WriteString(fmt.Sprintf("Original title: %q\n", originalTitle))
	section(&b, "CONTENT", head(content, 500))
	b.WriteString("\nRequirements:\n1. A title that invites clicks\n2. Consider search optimization\n3. Interesting without being sensational\n4. At most 30 characters\n\n")
	b.WriteString("Suggest 3-5 candidates.\n")
	b.WriteString(jsonOnly)
	b.WriteString(`{"titles": [{"title": "title 1", "reason": "why"}, {"title": "title 2", "reason": "why"}]}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func Hashtags(title, content string, count int, lang string) string {
	if count <= 0 {
		count = 7
	}
	var b strings.Builder
	b.WriteString("Generate hashtags for the following blog post.\n\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", title))
	section(&b, "CONTENT", head(content, 800))
	b.WriteString(fmt.Sprintf("\nRequirements:\n1. Exactly %d hashtags\n2. 3-4 general tags for search\n3. 2-3 specific niche tags\n4. 1-2 trending tags if any apply\n5. Prefer the response language, mix in English when needed\n\n", count))
	b.WriteString(jsonOnly)
	b.WriteString(`{"tags": ["tag1", "tag2", "tag3"]}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func ContentExpansion(content, sectionName, lang string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Expand the %q part of the following blog post in more detail.\n", sectionName))
	section(&b, "CONTENT", content)
	b.WriteString("\nRequirements:\n1. Keep the existing context\n2. Add concrete examples or explanations\n3. Keep the flow natural\n4. Around 200-300 words\n\nReturn only the expanded text.\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func ToneAdjustment(content, tone, lang string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Rewrite the following blog post in a %s tone.\n", ToneDescription(tone)))
	section(&b, "CONTENT", content)
	b.WriteString("\nRequirements:\n1. Keep the core content\n2. Change only the tone, naturally\n3. Keep the overall structure\n\nReturn the full rewritten post.\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func Summary(content string, maxLength int, lang string) string {
	if maxLength <= 0 {
		maxLength = 150
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Summarize the following blog post in at most %d characters.\n", maxLength))
	section(&b, "CONTENT", content)
	b.WriteString(fmt.Sprintf("\nRequirements:\n1. Only the core content\n2. Make the reader curious\n3. At most %d characters\n4. Natural sentences\n\nReturn only the summary.\n\n", maxLength))
	languageLayer(&b, lang)
	return b.String()
}

func Introduction(topic, style, lang string) string {
	var b strings.Builder
	b.WriteString("Write the introduction of a blog post on the following topic.\n\n")
	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	b.WriteString("\nRequirements:\n1. A first sentence that grabs attention immediately\n2. Why the reader should read this post\n3. A short overview of the post\n4. Around 150-200 words\n")
	if style != "" {
		b.WriteString("\nWriting style:\n" + style + "\n")
	}
	b.WriteString("\nReturn only the introduction.\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func Conclusion(content, style, lang string) string {
	var b strings.Builder
	b.WriteString("Write the conclusion of the following blog post.\n")
	section(&b, "CONTENT", head(content, 1000))
	b.WriteString("\nRequirements:\n1. Restate the key points\n2. Leave the reader with a message\n3. End with a call to action\n4. Around 100-150 words\n")
	if style != "" {
		b.WriteString("\nWriting style:\n" + style + "\n")
	}
	b.WriteString("\nReturn only the conclusion.\n\n")
	languageLayer(&b, lang)
	return b.String()
}

func SEO(title, content, lang string) string {
	var b strings.Builder
	b.WriteString("Improve the SEO of the following blog post.\n\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", title))
	section(&b, "CONTENT", head(content, 1000))
	b.WriteString("\n" + jsonOnly)
	b.WriteString(`{"metaTitle": "search optimized title, max 60 characters", "metaDescription": "search result description, max 160 characters", "keywords": ["keyword1", "keyword2", "keyword3"], "suggestions": ["suggestion1", "suggestion2"]}` + "\n\n")
	languageLayer(&b, lang)
	return b.String()
}
