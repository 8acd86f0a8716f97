package models

import (
	"time"

	"github.com/google/uuid"
)

type StyleStatistics struct {
	TotalPosts             int `json:"totalPosts"`
	TotalWords             int `json:"totalWords"`
	AveragePostLength      int `json:"averagePostLength"`
	AverageSentenceLength  int `json:"averageSentenceLength"`
	AverageParagraphLength int `json:"averageParagraphLength"`
}

// Tone scores are 0-100.
type ToneScores struct {
	Formality int `json:"formality"`
	Emotion   int `json:"emotion"`
	Energy    int `json:"energy"`
	Humor     int `json:"humor"`
}

type WritingStyle struct {
	SentenceStructure string   `json:"sentenceStructure"` // simple | complex | mixed
	ParagraphStyle    string   `json:"paragraphStyle"`    // short | medium | long
	VocabularyLevel   string   `json:"vocabularyLevel"`   // casual | standard | advanced
	PunctuationUsage  []string `json:"punctuationUsage,omitempty"`
}

type TopicFeature struct {
	Category   string   `json:"category"`
	Percentage int      `json:"percentage"`
	Keywords   []string `json:"keywords"`
}

type CommonExpressions struct {
	Openings    []string `json:"openings"`
	Transitions []string `json:"transitions"`
	Conclusions []string `json:"conclusions"`
	Fillers     []string `json:"fillers"`
}

type AISummary struct {
	OverallStyle    string   `json:"overallStyle"`
	Strengths       []string `json:"strengths"`
	UniqueTraits    []string `json:"uniqueTraits"`
	Recommendations []string `json:"recommendations"`
}

// StyleProfile is keyed 1:1 by UserID. Re-running the analysis replaces it.
type StyleProfile struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	AnalyzedAt        time.Time         `json:"analyzed_at"`
	Statistics        StyleStatistics   `json:"statistics"`
	Tone              ToneScores        `json:"tone"`
	WritingStyle      WritingStyle      `json:"writingStyle"`
	Topics            []TopicFeature    `json:"topics"`
	CommonExpressions CommonExpressions `json:"commonExpressions"`
	AISummary         AISummary         `json:"aiSummary"`
}

type RawPost struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Category      string     `json:"category,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

type SamplePost struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Analysis string `json:"analysis"`
}

type AnalysisResult struct {
	Profile     *StyleProfile `json:"profile"`
	RawAnalysis string        `json:"raw_analysis"`
	SamplePosts []SamplePost  `json:"sample_posts"`
}

type StyleAnalysisRequest struct {
	Posts []RawPost `json:"posts"`
}
