package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/cache"
	"blogtwin-backend/internal/llm"
	"blogtwin-backend/internal/models"
)

const styleReply = `{
  "tone": {"formality": 32.6, "emotion": 80, "energy": 75, "humor": 140},
  "writingStyle": {"sentenceStructure": "mixed", "paragraphStyle": "short", "vocabularyLevel": "casual", "punctuationUsage": ["!", "~"]},
  "summary": {"overallStyle": "친근한 대화체", "strengths": ["생생함"], "uniqueTraits": ["감탄사"], "recommendations": ["소제목 활용"]}
}`

func samplePostsForAnalysis() []models.RawPost {
	return []models.RawPost{
		{Title: "제주 여행", Category: "여행", Content: "<p>안녕하세요 여러분.</p>\n\n<p>제주 바다는 정말 예뻤어요. 그런데 바람이 너무 강했어요.</p>\n\n<p>다음에 또 올게요.</p>"},
		{Title: "부산 여행", Category: "여행", Content: "안녕하세요 여러분. 부산 바다 여행 이야기입니다 https://example.com 참고하세요.\n\n다음에 또 올게요."},
		{Title: "파스타 후기", Category: "음식", Content: "오늘은 파스타를 먹었어요. 정말 맛있었어요.\n\n추천합니다!"},
		{Title: "일기", Content: "그냥 평범한 하루였다. 하지만 좋았다."},
	}
}

func newStyleServiceForTest(reply string) (*StyleService, *memProfileStore, *scriptedProvider) {
	provider := &scriptedProvider{reply: fixedReply(reply)}
	client, throttler := newTestClient(provider)
	store := newMemProfileStore()
	return NewStyleService(client, throttler, store, cache.New(nil, time.Minute), "ko"), store, provider
}

func TestAnalyze_BuildsAndStoresProfile(t *testing.T) {
	svc, store, provider := newStyleServiceForTest(styleReply)
	userID := uuid.New()

	res, err := svc.Analyze(context.Background(), userID, samplePostsForAnalysis())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	p := res.Profile

	if p.Statistics.TotalPosts != 4 {
		t.Errorf("total posts = %d", p.Statistics.TotalPosts)
	}
	if p.Tone.Formality != 33 || p.Tone.Humor != 100 {
		t.Errorf("tone = %+v, want rounded and clamped scores", p.Tone)
	}
	if p.WritingStyle.SentenceStructure != "mixed" {
		t.Errorf("writing style = %+v", p.WritingStyle)
	}
	if p.AISummary.OverallStyle != "친근한 대화체" {
		t.Errorf("summary = %+v", p.AISummary)
	}

	if len(p.Topics) != 3 {
		t.Fatalf("topics = %+v, want 3 categories", p.Topics)
	}
	if p.Topics[0].Category != "여행" || p.Topics[0].Percentage != 50 {
		t.Errorf("first topic = %+v, want 여행 at 50%%", p.Topics[0])
	}
	foundDefault := false
	for _, topic := range p.Topics {
		if topic.Category == "기타" && topic.Percentage == 25 {
			foundDefault = true
		}
		if len(topic.Keywords) > 5 {
			t.Errorf("topic %s has %d keywords", topic.Category, len(topic.Keywords))
		}
	}
	if !foundDefault {
		t.Errorf("uncategorized post should land in 기타: %+v", p.Topics)
	}

	if len(p.CommonExpressions.Openings) == 0 || p.CommonExpressions.Openings[0] != "안녕하세요 여러분" {
		t.Errorf("openings = %v", p.CommonExpressions.Openings)
	}
	if len(p.CommonExpressions.Conclusions) == 0 || p.CommonExpressions.Conclusions[0] != "다음에 또 올게요." {
		t.Errorf("conclusions = %v", p.CommonExpressions.Conclusions)
	}
	if !containsString(p.CommonExpressions.Fillers, "정말") {
		t.Errorf("fillers = %v", p.CommonExpressions.Fillers)
	}
	if !containsString(p.CommonExpressions.Transitions, "그런데") {
		t.Errorf("transitions = %v", p.CommonExpressions.Transitions)
	}

	if len(res.SamplePosts) != 3 {
		t.Errorf("sample posts = %d, want 3", len(res.SamplePosts))
	}
	pasta := res.SamplePosts[2].Analysis
	for _, want := range []string{"1 min read", "short 100%", "medium 0%", "long 0%"} {
		if !strings.Contains(pasta, want) {
			t.Errorf("sample analysis %q missing %q", pasta, want)
		}
	}
	if strings.Contains(res.SamplePosts[1].Excerpt, "https://") {
		t.Errorf("excerpt should be preprocessed: %q", res.SamplePosts[1].Excerpt)
	}
	if res.RawAnalysis != styleReply {
		t.Errorf("raw analysis not preserved")
	}

	if _, ok := store.profiles[userID]; !ok {
		t.Fatalf("profile was not stored")
	}

	req := provider.lastRequest()
	if req.Temperature != 0.3 || req.MaxTokens != 2000 {
		t.Errorf("analysis call temperature=%v max_tokens=%d", req.Temperature, req.MaxTokens)
	}
}

func TestAnalyze_SendsAtMostFivePosts(t *testing.T) {
	svc, _, provider := newStyleServiceForTest(styleReply)
	var posts []models.RawPost
	for i := 0; i < 8; i++ {
		posts = append(posts, models.RawPost{Title: "post-" + string(rune('A'+i)), Content: "내용입니다."})
	}

	if _, err := svc.Analyze(context.Background(), uuid.New(), posts); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	prompt := provider.userPrompt(provider.lastRequest())
	if !strings.Contains(prompt, "post-E") || strings.Contains(prompt, "post-F") {
		t.Errorf("prompt should carry exactly the first five posts")
	}
}

func TestAnalyze_ReplacesExistingProfile(t *testing.T) {
	svc, store, _ := newStyleServiceForTest(styleReply)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, userID, samplePostsForAnalysis()[:1]); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetProfile(ctx, userID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Analyze(ctx, userID, samplePostsForAnalysis()); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetProfile(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Statistics.TotalPosts != 4 {
		t.Errorf("cached profile was not refreshed, total posts = %d", got.Statistics.TotalPosts)
	}
	if len(store.profiles) != 1 {
		t.Errorf("store holds %d profiles, want 1", len(store.profiles))
	}
}

func TestAnalyze_FailuresAbort(t *testing.T) {
	svc, store, _ := newStyleServiceForTest("not json")
	_, err := svc.Analyze(context.Background(), uuid.New(), samplePostsForAnalysis())
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Fatalf("err = %v, want malformed response", err)
	}
	if len(store.profiles) != 0 {
		t.Errorf("no profile should be stored after a failed analysis")
	}

	if _, err := svc.Analyze(context.Background(), uuid.New(), nil); !errors.Is(err, ErrNoPosts) {
		t.Errorf("err = %v, want ErrNoPosts", err)
	}
}

func TestGetProfile_MissingAndCached(t *testing.T) {
	svc, store, _ := newStyleServiceForTest(styleReply)
	ctx := context.Background()

	if _, err := svc.GetProfile(ctx, uuid.New()); !errors.Is(err, ErrNoStyleProfile) {
		t.Fatalf("err = %v, want ErrNoStyleProfile", err)
	}

	userID := uuid.New()
	store.profiles[userID] = &models.StyleProfile{UserID: userID}
	for i := 0; i < 3; i++ {
		if _, err := svc.GetProfile(ctx, userID); err != nil {
			t.Fatal(err)
		}
	}
	// one read for the missing user, one for the cached user
	if store.reads != 2 {
		t.Errorf("store reads = %d, want 2", store.reads)
	}
}

func TestProfileToPrompt(t *testing.T) {
	p := &models.StyleProfile{
		Statistics: models.StyleStatistics{AverageSentenceLength: 12, AveragePostLength: 900},
		Tone:       models.ToneScores{Formality: 20, Emotion: 85, Energy: 50, Humor: 70},
		WritingStyle: models.WritingStyle{
			SentenceStructure: "mixed",
			VocabularyLevel:   "casual",
		},
		Topics:            []models.TopicFeature{{Category: "여행", Percentage: 60, Keywords: []string{"바다", "제주"}}},
		CommonExpressions: models.CommonExpressions{Openings: []string{"안녕하세요!"}},
		AISummary:         models.AISummary{OverallStyle: "밝고 친근함"},
	}

	out := ProfileToPrompt(p)
	for _, want := range []string{"casual (20/100)", "emotional (85/100)", "balanced (50/100)", "playful (70/100)", "여행 (60%): 바다, 제주", "안녕하세요!", "밝고 친근함", "about 12 words"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}

	if ProfileToPrompt(nil) != "" {
		t.Errorf("nil profile should render empty")
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
