package chunker

import (
	"regexp"
	"strings"

	"github.com/codesearch/hybrid-search/internal/meta"
)

var (
	callPattern  = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	typePattern  = regexp.MustCompile(`\b([A-Z][A-Za-z0-9_]*)\b`)
	docTagParam  = regexp.MustCompile(`@param\b|:param\b`)
	docTagReturn = regexp.MustCompile(`@returns?\b|:return(s)?:`)
	httpMotif    = regexp.MustCompile(`\b(?i:http|fetch|request|response|url|endpoint)\b`)
	fileMotif    = regexp.MustCompile(`\b(?i:file|path|read|write|open|close)\b`)
	dbMotif      = regexp.MustCompile(`\b(?i:sql|query|select|insert|update|delete|database|db)\b`)
	reservedWord = map[string]bool{
		"if": true, "for": true, "while": true, "switch": true, "return": true,
		"function": true, "class": true, "def": true, "func": true, "const": true,
		"let": true, "var": true, "new": true, "this": true, "self": true,
		"import": true, "from": true, "export": true, "async": true, "await": true,
		"try": true, "catch": true, "throw": true, "else": true, "elif": true,
	}
)

// keywordLine extracts the lightweight lexical signal appended to the
// chunk's structured header: doc-tag params/returns,
// async/throw motifs, up to 5 distinct call names, up to 5 type
// identifiers, and up to 3 import basenames. Biased for embedding recall,
// not precision.
func keywordLine(raw string, cm meta.ChunkMeta) string {
	var tags []string

	if docTagParam.MatchString(raw) {
		tags = append(tags, "params")
	}
	if docTagReturn.MatchString(raw) {
		tags = append(tags, "returns")
	}
	if cm.IsAsync || strings.Contains(raw, "async") || strings.Contains(raw, "await") {
		tags = append(tags, "async", "await")
	}
	if strings.Contains(raw, "throw") || strings.Contains(raw, "catch") || strings.Contains(raw, "except") {
		tags = append(tags, "error-handling")
	}
	if httpMotif.MatchString(raw) {
		tags = append(tags, "http")
	}
	if fileMotif.MatchString(raw) {
		tags = append(tags, "file-io")
	}
	if dbMotif.MatchString(raw) {
		tags = append(tags, "database")
	}

	tags = append(tags, distinctMatches(callPattern, raw, 5, func(s string) bool { return !reservedWord[s] })...)
	tags = append(tags, distinctMatches(typePattern, raw, 5, nil)...)

	for i, imp := range cm.Imports {
		if i >= 3 {
			break
		}
		tags = append(tags, baseName(imp))
	}

	return strings.Join(dedupe(tags), ", ")
}

func distinctMatches(re *regexp.Regexp, text string, limit int, keep func(string) bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(out) >= limit {
			break
		}
		name := m[1]
		if seen[name] {
			continue
		}
		if keep != nil && !keep(name) {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func baseName(modulePath string) string {
	modulePath = strings.Trim(modulePath, `"'`)
	if i := strings.LastIndexAny(modulePath, "/\\."); i >= 0 && i < len(modulePath)-1 {
		return modulePath[i+1:]
	}
	return modulePath
}
