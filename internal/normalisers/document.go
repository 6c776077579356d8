package normalisers

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// Raw document metadata keys understood by every normaliser.
const (
	MetaTopic   = "topic"
	MetaSummary = "summary"
	MetaFormat  = "format"
	MetaMIME    = "mime_type"
)

// citationPattern matches medium-neutral citations such as "[2023] WASAT 12".
var citationPattern = regexp.MustCompile(`\[(\d{4})\]\s+([A-Z][A-Za-z]*)\s+(\d+)`)

// FindCitation returns the first medium-neutral citation in text, normalised
// to single spaces, or "".
func FindCitation(text string) string {
	m := citationPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "[" + m[1] + "] " + m[2] + " " + m[3]
}

// NewDocument builds a document from a raw file and the text a normaliser
// extracted from it. The ID is the file's base name. Loader metadata wins
// over the format's own title.
func NewDocument(raw *domain.RawDocument, title, content, format string) domain.Document {
	if t := raw.MetaString(domain.MetaTitle); t != "" {
		title = t
	}
	if strings.TrimSpace(title) == "" {
		title = TitleFromName(raw.BaseName())
	}

	meta := make(map[string]any, len(raw.Metadata)+3)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	meta[MetaFormat] = format
	if raw.MIMEType != "" {
		meta[MetaMIME] = raw.MIMEType
	}
	if _, ok := meta[domain.MetaCitation]; !ok {
		citation := FindCitation(title)
		if citation == "" {
			citation = FindCitation(head(content, 2000))
		}
		if citation != "" {
			meta[domain.MetaCitation] = citation
		}
	}

	return domain.Document{
		ID:       raw.BaseName(),
		Title:    strings.TrimSpace(title),
		URL:      raw.MetaString(domain.MetaURL),
		Topic:    raw.MetaString(MetaTopic),
		Summary:  raw.MetaString(MetaSummary),
		Content:  content,
		Metadata: meta,
	}
}

// TitleFromName turns a file base name into a readable title.
func TitleFromName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// CleanLines trims every line and drops blank ones.
func CleanLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
