package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdf "github.com/dslipak/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// Load reads a source document and returns its plain text. The format is
// chosen by file extension: .pdf, .html/.htm, .md, .docx, .txt.
func Load(path string) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractTextFromPDF(path)
	case ".html", ".htm":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			text = extractMainText(string(data))
		}
	case ".md", ".markdown":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			text, err = markdownToText(data)
		}
	case ".docx":
		text, err = extractTextFromDocx(path)
	case ".txt", "":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			text = string(data)
		}
	default:
		return "", fmt.Errorf("unsupported source format: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text = strings.TrimSpace(sanitizeUTF8(text))
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}
	return text, nil
}

// LoadPath is Load for a single file, or for every supported file under a
// directory in lexical order, joined by blank lines.
func LoadPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !info.IsDir() {
		return Load(path)
	}

	var parts []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupported(p) {
			return nil
		}
		text, err := Load(p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("skipping source file")
			return nil
		}
		parts = append(parts, text)
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no readable documents under %s", path)
	}
	return strings.Join(parts, "\n\n"), nil
}

func isSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".html", ".htm", ".md", ".markdown", ".docx", ".txt":
		return true
	}
	return false
}

func extractTextFromPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractTextFromDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	// GetContent returns the raw document XML
	return extractMainText(content), nil
}

func markdownToText(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert(src, &buf); err != nil {
		return "", err
	}
	return extractMainText(buf.String()), nil
}

func extractMainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node, bool)

	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}

		if n.Type == html.TextNode && !skip {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	lines := strings.Split(b.String(), "\n")
	var filtered []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			filtered = append(filtered, l)
		}
	}
	return strings.Join(filtered, "\n")
}

// sanitizeUTF8 drops bytes that are not valid UTF-8.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
