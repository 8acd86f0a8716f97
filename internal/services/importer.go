package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/textproc"
)

const maxImportBytes = 10 << 20

var (
	xmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
	htmlTitlePattern   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlBlockEndRe     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|br)>|<br\s*/?>`)
	markdownHeadingRe  = regexp.MustCompile(`^#{1,6}\s+`)
	scriptOrStyleBlock = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// PostImporter turns uploaded files into posts for style analysis.
type PostImporter struct{}

func NewPostImporter() *PostImporter {
	return &PostImporter{}
}

// Import extracts one post from an uploaded file. The title is the file's
// own title when it has one, otherwise the file name.
func (s *PostImporter) Import(filename string, data []byte, category string) (*models.RawPost, error) {
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("file %s is larger than %d bytes", filename, maxImportBytes)
	}

	var title, text string
	var err error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		text = normalizeExtractedText(string(data))
	case ".md", ".markdown":
		title, text = splitMarkdownTitle(normalizeExtractedText(string(data)))
	case ".html", ".htm":
		title, text = extractHTML(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	default:
		return nil, fmt.Errorf("unsupported file type for import: %s", ext)
	}
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("no extractable text found in %s", filename)
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return &models.RawPost{Title: title, Content: text, Category: category}, nil
}

func splitMarkdownTitle(text string) (string, string) {
	first, rest, _ := strings.Cut(text, "\n")
	if markdownHeadingRe.MatchString(first) {
		return strings.TrimSpace(markdownHeadingRe.ReplaceAllString(first, "")), strings.TrimSpace(rest)
	}
	return "", text
}

func extractHTML(data []byte) (string, string) {
	s := string(data)
	title := ""
	if m := htmlTitlePattern.FindStringSubmatch(s); m != nil {
		title = strings.TrimSpace(decodeEntities(m[1]))
		s = strings.Replace(s, m[0], "", 1)
	}
	s = scriptOrStyleBlock.ReplaceAllString(s, "")
	s = htmlBlockEndRe.ReplaceAllString(s, "\n")
	s = decodeEntities(textproc.StripMarkup(s))
	return title, normalizeExtractedText(s)
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	return normalizeExtractedText(b.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		documentXML, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return normalizeExtractedText(stripDOCXML(documentXML)), nil
	}
	return "", fmt.Errorf("docx document.xml not found")
}

func stripDOCXML(src []byte) string {
	s := string(src)

	// paragraphs and line breaks
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = strings.ReplaceAll(s, "<w:br/>", "\n")
	s = strings.ReplaceAll(s, "<w:br />", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")

	s = xmlTagPattern.ReplaceAllString(s, "")
	return decodeEntities(s)
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#39;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
