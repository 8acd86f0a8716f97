// Package textproc holds the plain-text statistics used by style analysis
// and post generation. Nothing here fails: empty or odd input yields zero values.
package textproc

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	sentenceSplitRe  = regexp.MustCompile(`[.!?]+\s+`)
	paragraphSplitRe = regexp.MustCompile(`\n+`)
	htmlTagRe        = regexp.MustCompile(`<[^>]*>`)
	urlRe            = regexp.MustCompile(`https?://\S+`)
	emailRe          = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

const (
	wordsPerMinute = 200
	ellipsis       = "..."
)

var stopWords = map[string]struct{}{
	// Korean particles and connectives
	"이": {}, "그": {}, "저": {}, "것": {}, "수": {}, "등": {}, "및": {}, "을": {}, "를": {},
	"의": {}, "가": {}, "은": {}, "는": {}, "에": {}, "에서": {}, "으로": {}, "로": {}, "과": {},
	"와": {}, "한": {}, "하다": {}, "있다": {}, "되다": {}, "하는": {}, "있는": {}, "되는": {},
	"이다": {}, "그리고": {}, "하지만": {}, "그래서": {}, "또한": {}, "또는": {},
	// English
	"the": {}, "and": {}, "or": {}, "but": {}, "of": {}, "to": {}, "in": {}, "on": {}, "at": {},
	"for": {}, "with": {}, "is": {}, "are": {}, "was": {}, "were": {}, "it": {}, "this": {},
	"that": {}, "an": {}, "as": {}, "be": {}, "by": {}, "from": {}, "we": {}, "you": {},
}

type Stats struct {
	Length                int     `json:"length"`
	WordCount             int     `json:"word_count"`
	SentenceCount         int     `json:"sentence_count"`
	ParagraphCount        int     `json:"paragraph_count"`
	AverageWordLength     float64 `json:"average_word_length"`
	AverageSentenceLength float64 `json:"average_sentence_length"`
}

type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

func SplitSentences(text string) []string {
	return trimNonEmpty(sentenceSplitRe.Split(text, -1))
}

func SplitParagraphs(text string) []string {
	return trimNonEmpty(paragraphSplitRe.Split(text, -1))
}

func SplitWords(text string) []string {
	return strings.Fields(text)
}

func trimNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ComputeStats derives every figure from the three split functions.
// Lengths are measured in runes.
func ComputeStats(text string) Stats {
	words := SplitWords(text)
	st := Stats{
		Length:         utf8.RuneCountInString(text),
		WordCount:      len(words),
		SentenceCount:  len(SplitSentences(text)),
		ParagraphCount: len(SplitParagraphs(text)),
	}
	if st.WordCount > 0 {
		total := 0
		for _, w := range words {
			total += utf8.RuneCountInString(w)
		}
		st.AverageWordLength = float64(total) / float64(st.WordCount)
	}
	if st.SentenceCount > 0 {
		st.AverageSentenceLength = float64(st.WordCount) / float64(st.SentenceCount)
	}
	return st
}

// ExtractKeywords ranks words by frequency. Ties keep first-seen order.
func ExtractKeywords(text string, topN int) []Keyword {
	if topN <= 0 {
		return []Keyword{}
	}
	counts := make(map[string]int)
	var order []string
	for _, w := range SplitWords(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	keywords := make([]Keyword, 0, len(order))
	for _, w := range order {
		keywords = append(keywords, Keyword{Word: w, Count: counts[w]})
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})
	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}

func EstimateReadingMinutes(text string) int {
	return int(math.Ceil(float64(len(SplitWords(text))) / wordsPerMinute))
}

// Excerpt cuts text to at most maxLen runes, backs up to the last space and
// appends "...". Text that already fits is returned unchanged.
func Excerpt(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen < 0 {
		maxLen = 0
	}
	truncated := string(runes[:maxLen])
	if i := strings.LastIndex(truncated, " "); i > 0 {
		return truncated[:i] + ellipsis
	}
	return truncated + ellipsis
}

func StripMarkup(text string) string {
	return htmlTagRe.ReplaceAllString(text, "")
}

// CleanText removes URLs and e-mail addresses and collapses whitespace.
func CleanText(text string) string {
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Preprocess prepares a raw blog post for analysis.
func Preprocess(content string) string {
	return CleanText(StripMarkup(content))
}

type SentenceDistribution struct {
	Short  float64 `json:"short"`
	Medium float64 `json:"medium"`
	Long   float64 `json:"long"`
}

// SentenceLengthDistribution buckets sentences by word count
// (<10, 10-20, >20) and returns each bucket as a percentage.
func SentenceLengthDistribution(text string) SentenceDistribution {
	sentences := SplitSentences(text)
	var short, medium, long int
	for _, s := range sentences {
		switch n := len(SplitWords(s)); {
		case n < 10:
			short++
		case n <= 20:
			medium++
		default:
			long++
		}
	}
	total := float64(len(sentences))
	if total == 0 {
		total = 1
	}
	return SentenceDistribution{
		Short:  float64(short) / total * 100,
		Medium: float64(medium) / total * 100,
		Long:   float64(long) / total * 100,
	}
}

type CommonPatterns struct {
	CommonWords      []string `json:"common_words"`
	AverageLength    int      `json:"average_length"`
	CommonStructure  string   `json:"common_structure"`
	AverageParagraph float64  `json:"average_paragraphs"`
}

// FindCommonPatterns looks for keywords shared by at least 30% of the posts.
func FindCommonPatterns(posts []string) CommonPatterns {
	if len(posts) == 0 {
		return CommonPatterns{CommonWords: []string{}}
	}

	freq := make(map[string]int)
	var order []string
	totalWords, totalParagraphs := 0, 0
	for _, p := range posts {
		for _, k := range ExtractKeywords(p, 20) {
			if freq[k.Word] == 0 {
				order = append(order, k.Word)
			}
			freq[k.Word]++
		}
		totalWords += len(SplitWords(p))
		totalParagraphs += len(SplitParagraphs(p))
	}

	threshold := float64(len(posts)) * 0.3
	common := []string{}
	for _, w := range order {
		if float64(freq[w]) >= threshold {
			common = append(common, w)
		}
		if len(common) == 10 {
			break
		}
	}

	avgParagraphs := float64(totalParagraphs) / float64(len(posts))
	structure := "long-form"
	switch {
	case avgParagraphs < 3:
		structure = "short and concise"
	case avgParagraphs < 7:
		structure = "medium length"
	}

	return CommonPatterns{
		CommonWords:      common,
		AverageLength:    int(math.Round(float64(totalWords) / float64(len(posts)))),
		CommonStructure:  structure,
		AverageParagraph: avgParagraphs,
	}
}
