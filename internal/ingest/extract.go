package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/net/html"
)

// ErrUnsupported is returned for files whose format has no extractor.
var ErrUnsupported = errors.New("unsupported file type")

// MaxTextBytes caps the text taken from a single upload.
const MaxTextBytes = 20000

// Format is a recognised upload format.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatHTML    Format = "html"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatUnknown Format = ""
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Detect picks the format from the content type, falling back to the file
// extension when the content type is missing or generic.
func Detect(filename, contentType string) Format {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return FormatPDF
	case ct == docxMIME:
		return FormatDOCX
	case ct == "text/html":
		return FormatHTML
	case ct == "text/plain", ct == "text/markdown", ct == "text/x-markdown":
		return FormatText
	case strings.HasPrefix(ct, "image/"):
		return FormatImage
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md", ".markdown":
		return FormatText
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return FormatImage
	}
	return FormatUnknown
}

// ExtractText returns the readable text of an upload. Images are accepted
// but yield no text.
func ExtractText(filename, contentType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch Detect(filename, contentType) {
	case FormatPDF:
		text, err = pdfText(data)
	case FormatDOCX:
		text, err = docxText(data)
	case FormatHTML:
		text, err = htmlText(bytes.NewReader(data))
	case FormatText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: text is not valid UTF-8", filename)
		}
		text = string(data)
	case FormatImage:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filename)
	}
	if err != nil {
		return "", err
	}
	return truncate(normalize(strings.ToValidUTF8(text, "\uFFFD")), MaxTextBytes), nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading pdf page %d: %w", i, err)
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading docx: %w", err)
	}
	defer doc.Close()
	return wordXMLText(doc.Editable().GetContent()), nil
}

// wordXMLText pulls the character data out of WordprocessingML, ending a
// line at every paragraph and break.
func wordXMLText(xml string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(xml))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "w:tab":
				sb.WriteString("\t")
			case "w:br":
				sb.WriteString("\n")
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "w:p" {
				sb.WriteString("\n")
			}
		}
	}
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "pre": true, "blockquote": true,
}

func htmlText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(doc)
	return sb.String(), nil
}

// normalize trims every line, collapses runs of spaces and keeps at most
// one blank line in a row.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
