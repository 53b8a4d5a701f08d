package duplicate

import "regexp"

var (
	lineCommentPattern  = regexp.MustCompile(`//.*|#.*`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	stringLiteralPattern = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'` + "|`(?:[^`\\\\]|\\\\.)*`")
	numberLiteralPattern = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	identifierPattern    = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
)

// reservedWords is a small cross-language keyword set. Normalization only
// needs to avoid mangling control structure so two structurally identical
// functions written with different variable names still compare equal; it
// does not need a full per-language grammar.
var reservedWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"if", "else", "for", "while", "do", "switch", "case", "default", "break",
		"continue", "return", "func", "function", "def", "class", "struct",
		"interface", "type", "var", "let", "const", "public", "private",
		"protected", "static", "final", "void", "null", "nil", "true", "false",
		"new", "this", "self", "import", "package", "from", "export", "async",
		"await", "try", "catch", "finally", "throw", "throws", "in", "of",
		"yield", "lambda", "pass",
		// Placeholder tokens inserted by normalize itself, so a second pass
		// over them never double-mangles a literal into $ID.
		"STR", "NUM", "ID",
	} {
		reservedWords[w] = true
	}
}

// normalize produces the form used for shingle similarity: strip
// comments, replace string/number literals with placeholders, and replace
// every non-reserved identifier with $ID.
func normalize(src string) string {
	out := blockCommentPattern.ReplaceAllString(src, " ")
	out = lineCommentPattern.ReplaceAllString(out, " ")
	out = stringLiteralPattern.ReplaceAllLiteralString(out, "$STR")
	out = numberLiteralPattern.ReplaceAllLiteralString(out, "$NUM")
	out = identifierPattern.ReplaceAllStringFunc(out, func(tok string) string {
		if reservedWords[tok] {
			return tok
		}
		return "$ID"
	})
	return out
}
