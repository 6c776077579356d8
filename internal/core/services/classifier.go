package services

import (
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// caseKeywords suggest the user wants specific decisions.
var caseKeywords = []string{
	"case", "cases", "ruling", "rulings", "decision", "decisions",
	"precedent", "precedents", "judgment", "judgments", "verdict",
	"verdicts", "court", "courts", "judge", "judges", "tribunal",
	"find similar", "similar cases", "relevant cases", "find cases",
	"example cases", "show me cases", "search for cases", "what cases",
	"recent cases", "specific cases",
}

// generalKeywords suggest the user wants an explanation of the law.
var generalKeywords = []string{
	"what is", "how to", "explain", "definition", "define", "meaning",
	"process", "procedure", "guidelines", "steps", "requirements",
	"overview", "summary", "introduction", "basics", "fundamental",
	"principles", "concept", "theory", "framework", "structure",
	"approach", "strategy", "advice", "help", "guidance", "tips",
}

// Pattern matches weigh twice as much as keywords.
const patternWeight = 2

var casePatterns = compileAll(
	`(find|show|give|provide).*case`,
	`(previous|prior|past|similar).*case`,
	`case.*(about|related to|involving|concerning)`,
	`(example|instance).*(of|where)`,
	`v\.`,
	`\[\d{4}\]`,
	`\d{4}.*wasat`,
)

var generalPatterns = compileAll(
	`(what|how|why|when|where|who).*(is|are|do|does|should|would|could|can)`,
	`explain.*(how|why|what)`,
	`(meaning|definition).*of`,
	`(steps|process|procedure).*(for|to|in)`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Confidence bounds.
const (
	minConfidence = 0.5
	maxConfidence = 0.95
)

// ClassifyQuery decides whether a query asks for specific cases or for
// general legal information. Keywords count once, patterns twice. Ties go
// to case_specific, and a query matching nothing is general at 0.5.
func ClassifyQuery(query string) domain.QueryClassification {
	q := strings.ToLower(query)

	caseScore := countKeywords(q, caseKeywords) + patternWeight*countPatterns(q, casePatterns)
	generalScore := countKeywords(q, generalKeywords) + patternWeight*countPatterns(q, generalPatterns)

	if caseScore == 0 && generalScore == 0 {
		return domain.QueryClassification{Type: domain.QueryTypeGeneral, Confidence: minConfidence}
	}

	total := float64(caseScore + generalScore)
	confidence := math.Abs(float64(caseScore-generalScore)) / total
	confidence = math.Min(maxConfidence, math.Max(minConfidence, confidence))

	if caseScore >= generalScore {
		return domain.QueryClassification{Type: domain.QueryTypeCaseSpecific, Confidence: confidence}
	}
	return domain.QueryClassification{Type: domain.QueryTypeGeneral, Confidence: confidence}
}

// countKeywords counts keywords occurring anywhere in q, substrings included.
func countKeywords(q string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(q, k) {
			n++
		}
	}
	return n
}

func countPatterns(q string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(q) {
			n++
		}
	}
	return n
}
