package prompts

import (
	"fmt"
	"strings"
)

type StyleSample struct {
	Title   string
	Excerpt string
}

func StyleAnalysisSystem() string {
	return "You are an expert in writing style analysis. Analyze blog posts, identify the author's unique style and report it as JSON."
}

func StyleAnalysis(samples []StyleSample, lang string) string {
	var b strings.Builder
	b.WriteString("Analyze the following blog posts and identify the author's writing style.\n")
	for i, s := range samples {
		section(&b, fmt.Sprintf("POST %d", i+1), s.Title+"\n"+s.Excerpt)
	}
	b.WriteString("\n" + jsonOnly)
	b.WriteString(`{
  "tone": {
    "formality": 0-100 (higher is more formal),
    "emotion": 0-100 (higher is more emotional),
    "energy": 0-100 (higher is more energetic),
    "humor": 0-100 (higher is more humorous)
  },
  "writingStyle": {
    "sentenceStructure": "simple|complex|mixed",
    "paragraphStyle": "short|medium|long",
    "vocabularyLevel": "casual|standard|advanced",
    "punctuationUsage": ["frequently used punctuation"]
  },
  "summary": {
    "overallStyle": "summary of the overall writing style",
    "strengths": ["strength1", "strength2", "strength3"],
    "uniqueTraits": ["trait1", "trait2"],
    "recommendations": ["suggestion1", "suggestion2"]
  }
}` + "\n\n")
	b.WriteString("Tone values must be integers. ")
	languageLayer(&b, lang)
	return b.String()
}
