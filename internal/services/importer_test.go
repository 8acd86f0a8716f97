package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestImport_PlainFormats(t *testing.T) {
	imp := NewPostImporter()

	tests := []struct {
		name      string
		filename  string
		data      string
		wantTitle string
		wantText  string
	}{
		{"txt", "my-day.txt", "첫 줄\r\n\r\n\r\n둘째 줄  ", "my-day", "첫 줄\n\n둘째 줄"},
		{"markdown heading", "post.md", "# 제주 여행\n\n바다가 좋았다.", "제주 여행", "바다가 좋았다."},
		{"markdown without heading", "notes.md", "그냥 메모", "notes", "그냥 메모"},
		{"html", "page.html", "<html><head><title>부산 &amp; 해운대</title><style>p{}</style></head><body><p>첫 문단</p><p>둘째&nbsp;문단</p></body></html>", "부산 & 해운대", "첫 문단\n둘째 문단"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := imp.Import(tt.filename, []byte(tt.data), "여행")
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if post.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", post.Title, tt.wantTitle)
			}
			if post.Content != tt.wantText {
				t.Errorf("content = %q, want %q", post.Content, tt.wantText)
			}
			if post.Category != "여행" {
				t.Errorf("category = %q", post.Category)
			}
		})
	}
}

func TestImport_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>첫 문단 &amp; 끝</w:t></w:r></w:p><w:p><w:r><w:t>둘째 문단</w:t></w:r></w:p></w:body></w:document>`))
	zw.Close()

	post, err := NewPostImporter().Import("essay.docx", buf.Bytes(), "")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if post.Content != "첫 문단 & 끝\n둘째 문단" {
		t.Errorf("content = %q", post.Content)
	}
	if post.Title != "essay" {
		t.Errorf("title = %q", post.Title)
	}
}

func TestImport_Rejects(t *testing.T) {
	imp := NewPostImporter()

	if _, err := imp.Import("image.png", []byte("x"), ""); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("png err = %v", err)
	}
	if _, err := imp.Import("empty.txt", []byte("  \n "), ""); err == nil {
		t.Errorf("empty file should fail")
	}
	if _, err := imp.Import("broken.docx", []byte("not a zip"), ""); err == nil {
		t.Errorf("broken docx should fail")
	}
	if _, err := imp.Import("big.txt", make([]byte, maxImportBytes+1), ""); err == nil {
		t.Errorf("oversized file should fail")
	}
}
