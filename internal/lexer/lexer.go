// Package lexer is a minimal lexical scanner for C#-style source text.
//
// It does not parse. It marks the spans that must never be rewritten
// (comments, string and char literals, preprocessor lines) and records the
// top-level using directives, which is all the resolvers need to substitute
// identifiers safely and to find the alias insertion point.
package lexer

import (
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a non-code span.
type Kind int

const (
	KindLineComment Kind = iota
	KindBlockComment
	KindString
	KindChar
	KindPreprocessor
)

// Span is a half-open byte range [Start, End) of non-code text.
type Span struct {
	Kind  Kind
	Start int
	End   int
}

// Directive is one top-level using directive.
type Directive struct {
	// Start is the offset of the first byte of the directive's line.
	Start int
	// End is the offset just past the line terminator, or len(text) when the
	// directive is on the last line without one.
	End int
	// Terminated reports whether the line ends with a newline.
	Terminated bool

	Indent string
	Global bool
	Static bool
	Alias  string
	Target string
}

// IsAlias reports whether the directive binds an alias name.
func (d Directive) IsAlias() bool {
	return d.Alias != ""
}

// Source is the scanned form of a file. It is immutable once returned by Scan
// and safe to share.
type Source struct {
	Text   string
	Spans  []Span
	Usings []Directive

	lineStarts []int
}

var usingLine = regexp.MustCompile(`^([ \t]*)(global[ \t]+)?using[ \t]+(static[ \t]+)?(?:(@?[A-Za-z_]\w*)[ \t]*=[ \t]*)?((?:global::)?[A-Za-z_][\w.]*(?:<[^;]*>)?)[ \t]*;[ \t]*(?://.*)?$`)

// Scan tokenizes text into literal spans and top-level using directives.
func Scan(text string) *Source {
	s := &Source{Text: text}
	n := len(text)
	depth := 0
	lineStart := s.BodyStart()
	atLineStart := true

	for i := lineStart; i < n; {
		c := text[i]
		switch {
		case c == '\n':
			i++
			lineStart = i
			atLineStart = true
			continue
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
			continue
		case c == '/' && i+1 < n && text[i+1] == '/':
			end := lineEnd(text, i)
			s.Spans = append(s.Spans, Span{Kind: KindLineComment, Start: i, End: end})
			i = end
			continue
		case c == '/' && i+1 < n && text[i+1] == '*':
			end := n
			if idx := strings.Index(text[i+2:], "*/"); idx >= 0 {
				end = i + 2 + idx + 2
			}
			s.Spans = append(s.Spans, Span{Kind: KindBlockComment, Start: i, End: end})
			i = end
			continue
		case c == '#' && atLineStart:
			end := lineEnd(text, i)
			s.Spans = append(s.Spans, Span{Kind: KindPreprocessor, Start: i, End: end})
			i = end
			continue
		case c == '\'':
			end := scanChar(text, i)
			s.Spans = append(s.Spans, Span{Kind: KindChar, Start: i, End: end})
			i = end
			atLineStart = false
			continue
		}

		if spans, end, ok := scanString(text, i); ok {
			s.Spans = append(s.Spans, spans...)
			i = end
			atLineStart = false
			continue
		}

		if isIdentStart(c) {
			j := i + 1
			for j < n && isIdentPart(text[j]) {
				j++
			}
			word := text[i:j]
			if atLineStart && depth == 0 && (word == "using" || word == "global") {
				if d, ok := parseDirective(text, lineStart); ok {
					s.Usings = append(s.Usings, d)
					i = lineEnd(text, i)
					atLineStart = false
					continue
				}
			}
			i = j
			atLineStart = false
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		atLineStart = false
		i++
	}

	s.lineStarts = computeLineStarts(text)
	return s
}

func parseDirective(text string, lineStart int) (Directive, bool) {
	end := lineEnd(text, lineStart)
	line := strings.TrimSuffix(text[lineStart:end], "\r")
	m := usingLine.FindStringSubmatch(line)
	if m == nil {
		return Directive{}, false
	}
	d := Directive{
		Start:  lineStart,
		End:    end,
		Indent: m[1],
		Global: m[2] != "",
		Static: m[3] != "",
		Alias:  m[4],
		Target: strings.TrimPrefix(m[5], "global::"),
	}
	if end < len(text) {
		d.End = end + 1
		d.Terminated = true
	}
	return d, true
}

// scanString recognises regular, verbatim, interpolated and raw string
// literals starting at i. It returns the literal's text as KindString spans;
// interpolation holes are left as code, with any literals or comments inside
// them spanned in turn.
func scanString(text string, i int) ([]Span, int, bool) {
	n := len(text)
	j := i
	verbatim := false
	dollars := 0
	for j < n && (text[j] == '$' || (text[j] == '@' && !verbatim)) {
		if text[j] == '@' {
			verbatim = true
		} else {
			dollars++
		}
		j++
	}
	if j >= n || text[j] != '"' {
		return nil, 0, false
	}
	if j > i && i > 0 && isIdentPart(text[i-1]) {
		return nil, 0, false
	}

	quotes := 0
	for j+quotes < n && text[j+quotes] == '"' {
		quotes++
	}

	var spans []Span
	seg := i
	literal := func(end int) {
		if end > seg {
			spans = append(spans, Span{Kind: KindString, Start: seg, End: end})
		}
	}

	if !verbatim && quotes >= 3 {
		closing := strings.Repeat(`"`, quotes)
		k := j + quotes
		for k < n {
			if strings.HasPrefix(text[k:], closing) {
				literal(k + quotes)
				return spans, k + quotes, true
			}
			if dollars > 0 && text[k] == '{' {
				run := braceRun(text, k)
				if run >= dollars {
					open := k + run - dollars
					literal(open)
					inner, shut := scanHole(text, k+run)
					spans = append(spans, inner...)
					k = closeRun(text, shut, dollars)
					seg = k
					continue
				}
				k += run
				continue
			}
			k++
		}
		literal(n)
		return spans, n, true
	}

	k := j + 1
	for k < n {
		switch text[k] {
		case '"':
			if verbatim && k+1 < n && text[k+1] == '"' {
				k += 2
				continue
			}
			literal(k + 1)
			return spans, k + 1, true
		case '\\':
			if !verbatim {
				k += 2
				continue
			}
		case '\n':
			if !verbatim {
				literal(k)
				return spans, k, true
			}
		case '{':
			if dollars > 0 {
				if k+1 < n && text[k+1] == '{' {
					k += 2
					continue
				}
				literal(k)
				inner, shut := scanHole(text, k+1)
				spans = append(spans, inner...)
				k = closeRun(text, shut, 1)
				seg = k
				continue
			}
		}
		k++
	}
	literal(n)
	return spans, n, true
}

// scanHole scans the code of an interpolation hole starting at i. It returns
// the literal and comment spans inside the hole, including any format
// specifier, and the offset of the closing brace, or len(text) when the hole
// is never closed.
func scanHole(text string, i int) ([]Span, int) {
	n := len(text)
	var spans []Span
	depth := 0
	ternary := 0
	for k := i; k < n; {
		c := text[k]
		switch {
		case c == '/' && k+1 < n && text[k+1] == '/':
			end := lineEnd(text, k)
			spans = append(spans, Span{Kind: KindLineComment, Start: k, End: end})
			k = end
			continue
		case c == '/' && k+1 < n && text[k+1] == '*':
			end := n
			if idx := strings.Index(text[k+2:], "*/"); idx >= 0 {
				end = k + 2 + idx + 2
			}
			spans = append(spans, Span{Kind: KindBlockComment, Start: k, End: end})
			k = end
			continue
		case c == '\'':
			end := scanChar(text, k)
			spans = append(spans, Span{Kind: KindChar, Start: k, End: end})
			k = end
			continue
		}
		if inner, end, ok := scanString(text, k); ok {
			spans = append(spans, inner...)
			k = end
			continue
		}
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '}':
			if depth == 0 {
				return spans, k
			}
			depth--
		case '?':
			if depth == 0 && k+1 < n && text[k+1] != '.' && text[k+1] != '?' && text[k+1] != '[' {
				ternary++
			}
		case ':':
			if k+1 < n && text[k+1] == ':' {
				k += 2
				continue
			}
			if depth == 0 {
				if ternary > 0 {
					ternary--
					break
				}
				end := k
				for end < n && text[end] != '}' {
					end++
				}
				spans = append(spans, Span{Kind: KindString, Start: k, End: end})
				return spans, end
			}
		}
		k++
	}
	return spans, n
}

func braceRun(text string, k int) int {
	run := 0
	for k+run < len(text) && text[k+run] == '{' {
		run++
	}
	return run
}

// closeRun returns the offset just past want closing braces at k, clamped to
// the braces actually present.
func closeRun(text string, k, want int) int {
	for want > 0 && k < len(text) && text[k] == '}' {
		k++
		want--
	}
	return k
}

func scanChar(text string, i int) int {
	n := len(text)
	for k := i + 1; k < n; k++ {
		switch text[k] {
		case '\\':
			k++
		case '\'':
			return k + 1
		case '\n':
			return k
		}
	}
	return n
}

func lineEnd(text string, i int) int {
	if idx := strings.IndexByte(text[i:], '\n'); idx >= 0 {
		return i + idx
	}
	return len(text)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

const bom = "\uFEFF"

// BodyStart returns the offset of the first byte after a UTF-8 byte order
// mark, or zero.
func (s *Source) BodyStart() int {
	if strings.HasPrefix(s.Text, bom) {
		return len(bom)
	}
	return 0
}

// IsIdentByte reports whether c can appear inside an identifier.
func IsIdentByte(c byte) bool {
	return isIdentPart(c)
}

// InLiteral reports whether off falls inside a comment, literal or
// preprocessor span.
func (s *Source) InLiteral(off int) bool {
	_, ok := s.SpanAt(off)
	return ok
}

// SpanAt returns the non-code span containing off.
func (s *Source) SpanAt(off int) (Span, bool) {
	idx := sort.Search(len(s.Spans), func(i int) bool { return s.Spans[i].End > off })
	if idx < len(s.Spans) && s.Spans[idx].Start <= off {
		return s.Spans[idx], true
	}
	return Span{}, false
}

// IsComment reports whether the span is a line or block comment.
func (sp Span) IsComment() bool {
	return sp.Kind == KindLineComment || sp.Kind == KindBlockComment
}

// InDirective reports whether off falls on a top-level using directive line.
func (s *Source) InDirective(off int) bool {
	for _, d := range s.Usings {
		if off >= d.Start && off < d.End {
			return true
		}
	}
	return false
}

// ImportEnd returns the offset just past the last top-level using directive
// and whether any directive exists.
func (s *Source) ImportEnd() (int, bool) {
	if len(s.Usings) == 0 {
		return 0, false
	}
	return s.Usings[len(s.Usings)-1].End, true
}

// LastUsing returns the last top-level using directive.
func (s *Source) LastUsing() (Directive, bool) {
	if len(s.Usings) == 0 {
		return Directive{}, false
	}
	return s.Usings[len(s.Usings)-1], true
}

// Imports reports whether the file has a plain namespace import of ns.
func (s *Source) Imports(ns string) bool {
	for _, d := range s.Usings {
		if !d.IsAlias() && !d.Static && d.Target == ns {
			return true
		}
	}
	return false
}

// AliasTarget returns the target bound to alias, if the file declares it.
func (s *Source) AliasTarget(alias string) (string, bool) {
	for _, d := range s.Usings {
		if d.Alias == alias {
			return d.Target, true
		}
	}
	return "", false
}

// Occurrences returns the offsets of every whole-word occurrence of name in
// code, excluding literals, comments and using directives.
func (s *Source) Occurrences(name string) []int {
	if name == "" {
		return nil
	}
	var out []int
	text := s.Text
	for from := 0; ; {
		idx := strings.Index(text[from:], name)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(name)
		from = end
		if start > 0 && (isIdentPart(text[start-1]) || text[start-1] == '@') {
			continue
		}
		if end < len(text) && isIdentPart(text[end]) {
			continue
		}
		if s.InLiteral(start) || s.InDirective(start) {
			continue
		}
		out = append(out, start)
	}
	return out
}

// Position converts a byte offset into a 1-based line and column.
func (s *Source) Position(off int) (line, col int) {
	idx := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > off }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx + 1, off - s.lineStarts[idx] + 1
}

// LineAt returns the text of the line containing off, without terminator.
func (s *Source) LineAt(off int) string {
	start := strings.LastIndexByte(s.Text[:off], '\n') + 1
	end := lineEnd(s.Text, off)
	return strings.TrimSuffix(s.Text[start:end], "\r")
}

// Newline returns the line terminator style used by the text.
func (s *Source) Newline() string {
	if strings.Contains(s.Text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
