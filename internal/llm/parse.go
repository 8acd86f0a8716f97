package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StripCodeFence removes a surrounding markdown code fence such as ```json.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSON parses a model reply into T. The reply must be a single JSON
// object carrying every required key with a non-null value. Anything else is
// ErrMalformedResponse and no partial value is returned.
func DecodeJSON[T any](raw string, required ...string) (T, error) {
	var zero T
	body := StripCodeFence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return zero, newError(KindMalformedResponse, "response is not a JSON object", err)
	}
	for _, key := range required {
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return zero, malformed("response is missing %q", key)
		}
	}

	var out T
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return zero, newError(KindMalformedResponse, "response fields have unexpected types", err)
	}
	return out, nil
}

type postPayload struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// ParsePost decodes the {"title","content"} contract. Tags are optional.
func ParsePost(raw string) (title, content string, tags []string, err error) {
	p, err := DecodeJSON[postPayload](raw, "title", "content")
	if err != nil {
		return "", "", nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return "", "", nil, malformed("response has an empty title")
	}
	if strings.TrimSpace(p.Content) == "" {
		return "", "", nil, malformed("response has empty content")
	}
	return p.Title, p.Content, p.Tags, nil
}
