package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"blogtwin-backend/internal/cache"
	"blogtwin-backend/internal/llm"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/prompts"
	"blogtwin-backend/internal/queue"
	"blogtwin-backend/internal/repository"
	"blogtwin-backend/internal/textproc"
)

const (
	styleSamplePosts      = 5
	styleExcerptRunes     = 300
	sampleOutputPosts     = 3
	sampleExcerptRunes    = 150
	shortSentenceRunes    = 50
	topExpressions        = 3
	topicKeywordCount     = 5
	defaultTopicCategory  = "기타"
	styleAnalysisTokens   = 2000
	profileCacheTTL       = 10 * time.Minute
	profileCachePrefix    = "style_profile_"
	styleAnalysisPriority = PriorityBackground
)

var (
	transitionWords = []string{"그런데", "하지만", "그래서", "그리고", "또한"}
	fillerWords     = []string{"정말", "너무", "매우", "진짜", "완전"}
)

type StyleProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error)
	Upsert(ctx context.Context, p *models.StyleProfile) error
}

// StyleService builds a user's style profile from their past posts and
// renders it back into prompt text.
type StyleService struct {
	llm   *llm.Client
	queue *queue.Throttler
	store StyleProfileStore
	cache *cache.Store
	lang  string
	now   func() time.Time
}

func NewStyleService(client *llm.Client, throttler *queue.Throttler, store StyleProfileStore, profileCache *cache.Store, lang string) *StyleService {
	return &StyleService{
		llm:   client,
		queue: throttler,
		store: store,
		cache: profileCache,
		lang:  lang,
		now:   time.Now,
	}
}

// tone scores arrive as numbers that may not be integral
type styleAnalysisPayload struct {
	Tone struct {
		Formality float64 `json:"formality"`
		Emotion   float64 `json:"emotion"`
		Energy    float64 `json:"energy"`
		Humor     float64 `json:"humor"`
	} `json:"tone"`
	WritingStyle models.WritingStyle `json:"writingStyle"`
	Summary      models.AISummary    `json:"summary"`
}

// Analyze runs the whole pipeline and replaces the user's stored profile.
// Any stage failing aborts the analysis.
func (s *StyleService) Analyze(ctx context.Context, userID uuid.UUID, posts []models.RawPost) (*models.AnalysisResult, error) {
	if len(posts) == 0 {
		return nil, ErrNoPosts
	}
	ctx = llm.WithUserID(ctx, userID)

	cleaned := make([]string, len(posts))
	stripped := make([]string, len(posts))
	for i, p := range posts {
		stripped[i] = textproc.StripMarkup(p.Content)
		cleaned[i] = textproc.Preprocess(p.Content)
	}

	stats := aggregateStats(cleaned, stripped)

	payload, raw, err := s.analyzeTone(ctx, posts, cleaned)
	if err != nil {
		return nil, fmt.Errorf("style analysis: %w", err)
	}

	profile := &models.StyleProfile{
		ID:         uuid.New(),
		UserID:     userID,
		AnalyzedAt: s.now().UTC(),
		Statistics: stats,
		Tone: models.ToneScores{
			Formality: clampScore(payload.Tone.Formality),
			Emotion:   clampScore(payload.Tone.Emotion),
			Energy:    clampScore(payload.Tone.Energy),
			Humor:     clampScore(payload.Tone.Humor),
		},
		WritingStyle:      payload.WritingStyle,
		Topics:            extractTopics(posts, cleaned),
		CommonExpressions: extractExpressions(cleaned, stripped),
		AISummary:         payload.Summary,
	}

	if err := s.store.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save style profile: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, profileCacheKey(userID))
	}

	return &models.AnalysisResult{
		Profile:     profile,
		RawAnalysis: raw,
		SamplePosts: samplePosts(posts, cleaned),
	}, nil
}

func (s *StyleService) analyzeTone(ctx context.Context, posts []models.RawPost, cleaned []string) (styleAnalysisPayload, string, error) {
	n := min(len(posts), styleSamplePosts)
	samples := make([]prompts.StyleSample, n)
	for i := 0; i < n; i++ {
		samples[i] = prompts.StyleSample{
			Title:   posts[i].Title,
			Excerpt: textproc.Excerpt(cleaned[i], styleExcerptRunes),
		}
	}

	messages := []llm.Message{
		llm.System(prompts.StyleAnalysisSystem()),
		llm.User(prompts.StyleAnalysis(samples, s.lang)),
	}
	opts := llm.Options{Temperature: llm.Float(0.3), MaxTokens: styleAnalysisTokens}

	completion, err := throttled(ctx, s.queue, styleAnalysisPriority, func(ctx context.Context) (*llm.Completion, error) {
		return s.llm.GenerateText(ctx, messages, opts)
	})
	if err != nil {
		return styleAnalysisPayload{}, "", err
	}

	payload, err := llm.DecodeJSON[styleAnalysisPayload](completion.Content, "tone", "writingStyle", "summary")
	if err != nil {
		return styleAnalysisPayload{}, "", err
	}
	return payload, completion.Content, nil
}

// GetProfile returns the stored profile, or ErrNoStyleProfile.
func (s *StyleService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error) {
	fetch := func(ctx context.Context) (*models.StyleProfile, error) {
		p, err := s.store.GetByUserID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoStyleProfile
		}
		return p, err
	}
	if s.cache == nil {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, s.cache, profileCacheKey(userID), fetch, cache.WithTTL(profileCacheTTL))
}

// PromptFor loads the user's profile and renders it as prompt text.
func (s *StyleService) PromptFor(ctx context.Context, userID uuid.UUID) (string, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return ProfileToPrompt(p), nil
}

func profileCacheKey(userID uuid.UUID) string {
	return profileCachePrefix + userID.String()
}

// ProfileToPrompt renders a profile into the block that prefixes generation
// prompts.
func ProfileToPrompt(p *models.StyleProfile) string {
	if p == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString("[Tone]\n")
	b.WriteString(fmt.Sprintf("- Formality: %s (%d/100)\n", describeLevel(p.Tone.Formality, "formal", "casual"), p.Tone.Formality))
	b.WriteString(fmt.Sprintf("- Emotion: %s (%d/100)\n", describeLevel(p.Tone.Emotion, "emotional", "restrained"), p.Tone.Emotion))
	b.WriteString(fmt.Sprintf("- Energy: %s (%d/100)\n", describeLevel(p.Tone.Energy, "energetic", "calm"), p.Tone.Energy))
	b.WriteString(fmt.Sprintf("- Humor: %s (%d/100)\n", describeLevel(p.Tone.Humor, "playful", "serious"), p.Tone.Humor))

	b.WriteString("\n[Writing style]\n")
	if p.WritingStyle.SentenceStructure != "" {
		b.WriteString(fmt.Sprintf("- Sentence structure: %s\n", p.WritingStyle.SentenceStructure))
	}
	if p.WritingStyle.ParagraphStyle != "" {
		b.WriteString(fmt.Sprintf("- Paragraphs: %s\n", p.WritingStyle.ParagraphStyle))
	}
	if p.WritingStyle.VocabularyLevel != "" {
		b.WriteString(fmt.Sprintf("- Vocabulary: %s\n", p.WritingStyle.VocabularyLevel))
	}
	if len(p.WritingStyle.PunctuationUsage) > 0 {
		b.WriteString(fmt.Sprintf("- Punctuation: %s\n", strings.Join(p.WritingStyle.PunctuationUsage, " ")))
	}
	if p.Statistics.AverageSentenceLength > 0 {
		b.WriteString(fmt.Sprintf("- Average sentence length: about %d words\n", p.Statistics.AverageSentenceLength))
	}
	if p.Statistics.AveragePostLength > 0 {
		b.WriteString(fmt.Sprintf("- Average post length: about %d characters\n", p.Statistics.AveragePostLength))
	}

	if len(p.Topics) > 0 {
		b.WriteString("\n[Frequent topics]\n")
		for _, t := range p.Topics {
			b.WriteString(fmt.Sprintf("- %s (%d%%)", t.Category, t.Percentage))
			if len(t.Keywords) > 0 {
				b.WriteString(": " + strings.Join(t.Keywords, ", "))
			}
			b.WriteString("\n")
		}
	}

	ex := p.CommonExpressions
	if len(ex.Openings)+len(ex.Transitions)+len(ex.Conclusions)+len(ex.Fillers) > 0 {
		b.WriteString("\n[Common expressions]\n")
		writeList(&b, "Openings", ex.Openings)
		writeList(&b, "Transitions", ex.Transitions)
		writeList(&b, "Closings", ex.Conclusions)
		writeList(&b, "Emphasis words", ex.Fillers)
	}

	if p.AISummary.OverallStyle != "" || len(p.AISummary.UniqueTraits) > 0 {
		b.WriteString("\n[Summary]\n")
		if p.AISummary.OverallStyle != "" {
			b.WriteString(p.AISummary.OverallStyle + "\n")
		}
		writeList(&b, "Unique traits", p.AISummary.UniqueTraits)
	}

	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("- %s: %s\n", label, strings.Join(items, ", ")))
}

func describeLevel(score int, high, low string) string {
	switch {
	case score >= 70:
		return high
	case score <= 30:
		return low
	default:
		return "balanced"
	}
}

func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// aggregateStats measures the corpus as a whole. Paragraphs are counted on
// the markup-stripped text because preprocessing collapses newlines.
func aggregateStats(cleaned, stripped []string) models.StyleStatistics {
	corpus := textproc.ComputeStats(strings.Join(cleaned, " "))

	totalRunes, paragraphs := 0, 0
	for i := range cleaned {
		totalRunes += utf8.RuneCountInString(cleaned[i])
		paragraphs += len(textproc.SplitParagraphs(stripped[i]))
	}

	st := models.StyleStatistics{
		TotalPosts:            len(cleaned),
		TotalWords:            corpus.WordCount,
		AverageSentenceLength: int(math.Round(corpus.AverageSentenceLength)),
	}
	if len(cleaned) > 0 {
		st.AveragePostLength = int(math.Round(float64(totalRunes) / float64(len(cleaned))))
	}
	if paragraphs > 0 {
		st.AverageParagraphLength = int(math.Round(float64(corpus.WordCount) / float64(paragraphs)))
	}
	return st
}

// extractTopics groups posts by category and reports each category's share.
func extractTopics(posts []models.RawPost, cleaned []string) []models.TopicFeature {
	byCategory := make(map[string][]string)
	var order []string
	for i, p := range posts {
		category := strings.TrimSpace(p.Category)
		if category == "" {
			category = defaultTopicCategory
		}
		if _, ok := byCategory[category]; !ok {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], cleaned[i])
	}

	topics := make([]models.TopicFeature, 0, len(order))
	for _, category := range order {
		texts := byCategory[category]
		keywords := []string{}
		for _, k := range textproc.ExtractKeywords(strings.Join(texts, " "), topicKeywordCount) {
			keywords = append(keywords, k.Word)
		}
		topics = append(topics, models.TopicFeature{
			Category:   category,
			Percentage: int(math.Round(float64(len(texts)) / float64(len(posts)) * 100)),
			Keywords:   keywords,
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Percentage > topics[j].Percentage
	})
	return topics
}

// extractExpressions counts short opening and closing sentences across posts
// and the fixed transition and emphasis words present in the corpus.
func extractExpressions(cleaned, stripped []string) models.CommonExpressions {
	var openings, conclusions []string
	for i := range cleaned {
		sentences := textproc.SplitSentences(cleaned[i])
		if len(sentences) > 0 && utf8.RuneCountInString(sentences[0]) < shortSentenceRunes {
			openings = append(openings, sentences[0])
		}

		paragraphs := textproc.SplitParagraphs(stripped[i])
		if len(paragraphs) == 0 {
			continue
		}
		last := textproc.SplitSentences(textproc.CleanText(paragraphs[len(paragraphs)-1]))
		if len(last) > 0 {
			closing := last[len(last)-1]
			if utf8.RuneCountInString(closing) < shortSentenceRunes {
				conclusions = append(conclusions, closing)
			}
		}
	}

	corpus := strings.Join(cleaned, " ")
	return models.CommonExpressions{
		Openings:    topByFrequency(openings, topExpressions),
		Transitions: presentWords(corpus, transitionWords),
		Conclusions: topByFrequency(conclusions, topExpressions),
		Fillers:     presentWords(corpus, fillerWords),
	}
}

func topByFrequency(items []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, it := range items {
		if counts[it] == 0 {
			order = append(order, it)
		}
		counts[it]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// presentWords returns the words that occur in text, most frequent first.
func presentWords(text string, words []string) []string {
	counts := make(map[string]int, len(words))
	found := []string{}
	for _, w := range words {
		if c := strings.Count(text, w); c > 0 {
			counts[w] = c
			found = append(found, w)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return counts[found[i]] > counts[found[j]]
	})
	return found
}

func samplePosts(posts []models.RawPost, cleaned []string) []models.SamplePost {
	n := min(len(posts), sampleOutputPosts)
	out := make([]models.SamplePost, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.SamplePost{
			Title:    posts[i].Title,
			Excerpt:  textproc.Excerpt(cleaned[i], sampleExcerptRunes),
			Analysis: describePost(cleaned[i]),
		})
	}
	return out
}

func describePost(text string) string {
	st := textproc.ComputeStats(text)
	dist := textproc.SentenceLengthDistribution(text)
	return fmt.Sprintf("%d words, %d sentences, %.1f words per sentence, %d min read. Sentences: short %.0f%%, medium %.0f%%, long %.0f%%.",
		st.WordCount, st.SentenceCount, st.AverageSentenceLength, textproc.EstimateReadingMinutes(text),
		dist.Short, dist.Medium, dist.Long)
}
