package pipeline

import (
	"regexp"
	"strings"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

const (
	minModules = 4
	maxModules = 15
	baseScore  = 5
)

// Language is the prompt locale chosen from the description text.
type Language string

const (
	LangEnglish Language = "en"
	LangKorean  Language = "ko"
)

// DetectLanguage returns Korean when any Hangul syllable is present.
func DetectLanguage(text string) Language {
	for _, r := range text {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return LangKorean
		}
	}
	return LangEnglish
}

var (
	highComplexity = keywordSet(
		"authentication", "security", "payment", "analytics", "real-time",
		"notification", "api integration", "machine learning", "ai", "blockchain",
	)
	mediumComplexity = keywordSet(
		"user management", "database", "search", "admin panel", "dashboard",
		"reporting", "file upload", "email",
	)
	lowComplexity = keywordSet("crud", "basic", "simple", "minimal")

	mobileTerms      = keywordSet("mobile", "ios", "android", "모바일")
	appTerms         = keywordSet("app", "앱", "어플")
	webTerms         = keywordSet("web", "website", "browser", "웹")
	backendTerms     = keywordSet("backend", "back-end", "server", "백엔드", "서버")
	distributedTerms = keywordSet("microservices", "microservice", "distributed")
)

// keywordSet compiles each keyword into a whole-word, case-insensitive matcher.
// Hangul terms match as substrings since particles attach to the noun.
func keywordSet(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		pattern := `(?i)\b` + regexp.QuoteMeta(w) + `\b`
		if DetectLanguage(w) == LangKorean {
			pattern = regexp.QuoteMeta(w)
		}
		out = append(out, regexp.MustCompile(pattern))
	}
	return out
}

func countMatches(text string, set []*regexp.Regexp) int {
	n := 0
	for _, re := range set {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func anyMatch(text string, set []*regexp.Regexp) bool {
	return countMatches(text, set) > 0
}

// InferModuleCount scores description and clamps the result to [4, 15].
func InferModuleCount(description string) int {
	score := baseScore
	score += 2 * countMatches(description, highComplexity)
	score += countMatches(description, mediumComplexity)
	score -= countMatches(description, lowComplexity)

	words := len(strings.Fields(description))
	switch {
	case words > 100:
		score += 2
	case words > 50:
		score++
	case words < 20:
		score--
	}

	if anyMatch(description, mobileTerms) {
		score++
	}
	if anyMatch(description, webTerms) && anyMatch(description, backendTerms) {
		score += 2
	}
	if anyMatch(description, distributedTerms) {
		score += 3
	}

	return clamp(score, minModules, maxModules)
}

// ModuleCount resolves the target module count. Explicit levels skip the heuristic.
func ModuleCount(c specdoc.Complexity, description string) int {
	switch c {
	case specdoc.ComplexitySimple:
		return 4
	case specdoc.ComplexityMedium:
		return 8
	case specdoc.ComplexityComplex:
		return 12
	default:
		return InferModuleCount(description)
	}
}

// ComplexityFor names the level a module count corresponds to.
func ComplexityFor(count int) specdoc.Complexity {
	switch {
	case count <= 5:
		return specdoc.ComplexitySimple
	case count <= 10:
		return specdoc.ComplexityMedium
	default:
		return specdoc.ComplexityComplex
	}
}

// DetectPlatform picks mobile on explicit mobile terms, or on "app" when no web
// term is present; everything else is web.
func DetectPlatform(description string) specdoc.Platform {
	if anyMatch(description, mobileTerms) {
		return specdoc.PlatformMobile
	}
	if anyMatch(description, webTerms) {
		return specdoc.PlatformWeb
	}
	if anyMatch(description, appTerms) {
		return specdoc.PlatformMobile
	}
	return specdoc.PlatformWeb
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
