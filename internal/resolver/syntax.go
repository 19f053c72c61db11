package resolver

import (
	"github.com/danieljhkim/conflictfix/internal/lexer"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// classify decides the syntactic position of the identifier at [start, end).
// ok is false for references that are already qualified and for positions the
// resolver does not rewrite (member names, assignments, arguments). Comments
// between tokens are ignored.
func classify(src *lexer.Source, start, end int) (rules.Syntax, bool) {
	text := src.Text
	p := skipSpaceBack(src, start-1)
	var pc byte
	if p >= 0 {
		pc = text[p]
	}
	if pc == '.' || (pc == ':' && p > 0 && text[p-1] == ':') {
		return "", false
	}
	prevWord := wordBefore(text, p)

	q := skipSpaceFwd(src, end)
	var nc byte
	if q < len(text) {
		nc = text[q]
	}

	switch {
	case prevWord == "new":
		return rules.SyntaxConstructor, true
	case prevWord == "is" || prevWord == "as":
		return rules.SyntaxTypeTest, true
	case nc == '.':
		return rules.SyntaxStaticAccess, true
	case pc == '(' && isTypeofCall(src, p):
		return rules.SyntaxTypeof, true
	case (pc == '(' || pc == ',') && (nc == ',' || nc == ')') && inTupleType(src, p):
		return rules.SyntaxDeclaration, true
	case pc == '(' && nc == ')':
		return rules.SyntaxCast, true
	case nc == '[' && isArrayRank(text, q):
		return rules.SyntaxArray, true
	case pc == '<' || nc == '>':
		return rules.SyntaxGenericArg, true
	case pc == ',' && insideAngles(text, p):
		return rules.SyntaxGenericArg, true
	case pc == ':' || (pc == ',' && inBaseList(text, p)):
		return rules.SyntaxInheritance, true
	case isDeclarationTail(src, q):
		return rules.SyntaxDeclaration, true
	}
	return "", false
}

// skipSpaceBack returns the last offset at or before i that is neither
// whitespace nor inside a comment.
func skipSpaceBack(src *lexer.Source, i int) int {
	for i >= 0 {
		if isSpace(src.Text[i]) {
			i--
			continue
		}
		if sp, ok := src.SpanAt(i); ok && sp.IsComment() {
			i = sp.Start - 1
			continue
		}
		break
	}
	return i
}

// skipSpaceFwd returns the first offset at or after i that is neither
// whitespace nor inside a comment.
func skipSpaceFwd(src *lexer.Source, i int) int {
	for i < len(src.Text) {
		if isSpace(src.Text[i]) {
			i++
			continue
		}
		if sp, ok := src.SpanAt(i); ok && sp.IsComment() {
			i = sp.End
			continue
		}
		break
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// wordBefore returns the identifier ending at index p, if any.
func wordBefore(text string, p int) string {
	if p < 0 || !lexer.IsIdentByte(text[p]) {
		return ""
	}
	s := p
	for s > 0 && lexer.IsIdentByte(text[s-1]) {
		s--
	}
	return text[s : p+1]
}

func isTypeofCall(src *lexer.Source, paren int) bool {
	w := wordBefore(src.Text, skipSpaceBack(src, paren-1))
	return w == "typeof" || w == "nameof" || w == "default" || w == "sizeof"
}

// inTupleType reports whether the '(' or ',' at p belongs to a tuple type
// such as (Button, int): the parentheses do not follow a callee or keyword,
// hold at least one comma, and are followed by a declared name or by more
// type syntax.
func inTupleType(src *lexer.Source, p int) bool {
	text := src.Text
	open := p
	if text[p] == ',' {
		open = enclosingParen(text, p)
		if open < 0 {
			return false
		}
	}
	before := skipSpaceBack(src, open-1)
	if before >= 0 {
		switch c := text[before]; {
		case c == ')' || c == ']':
			return false
		case lexer.IsIdentByte(c):
			switch wordBefore(text, before) {
			case "public", "private", "protected", "internal", "static", "readonly",
				"const", "volatile", "override", "virtual", "abstract", "sealed",
				"async", "unsafe", "new", "extern", "partial", "ref", "in", "out",
				"params", "this", "scoped":
			default:
				return false
			}
		}
	}

	end, commas := matchingParen(text, open)
	if end < 0 || commas == 0 {
		return false
	}
	q := skipSpaceFwd(src, end+1)
	if q >= len(text) {
		return false
	}
	switch text[q] {
	case '>', ',', ')', '[', '?':
		return true
	}
	return isDeclarationTail(src, q)
}

// enclosingParen walks back from p to the '(' that encloses it at the same
// nesting level, or returns -1.
func enclosingParen(text string, p int) int {
	depth := 0
	for i := p - 1; i >= 0; i-- {
		switch text[i] {
		case ')', '>', ']':
			depth++
		case '(', '<', '[':
			if depth == 0 {
				if text[i] == '(' {
					return i
				}
				return -1
			}
			depth--
		case ';', '{', '}', '=':
			return -1
		}
	}
	return -1
}

// matchingParen returns the ')' closing the '(' at open and how many commas
// it holds at the top level.
func matchingParen(text string, open int) (int, int) {
	depth := 0
	commas := 0
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '(', '<', '[':
			depth++
		case '>', ']':
			depth--
		case ')':
			if depth == 0 {
				return i, commas
			}
			depth--
		case ',':
			if depth == 0 {
				commas++
			}
		case ';', '{', '}', '=':
			return -1, 0
		}
	}
	return -1, 0
}

// isArrayRank reports whether the bracket at i opens an array rank specifier
// such as [] or [,].
func isArrayRank(text string, i int) bool {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case ']':
			return true
		case ',', ' ', '\t':
			continue
		default:
			return false
		}
	}
	return false
}

// insideAngles walks back from a comma to see whether it separates type
// arguments.
func insideAngles(text string, p int) bool {
	depth := 0
	for i := p - 1; i >= 0; i-- {
		switch text[i] {
		case '>':
			depth++
		case '<':
			if depth == 0 {
				return true
			}
			depth--
		case '(', ')', ';', '{', '}', '=':
			return false
		}
	}
	return false
}

// inBaseList walks back from a comma looking for the colon that opens a base
// type list.
func inBaseList(text string, p int) bool {
	depth := 0
	for i := p - 1; i >= 0; i-- {
		switch text[i] {
		case '>':
			depth++
		case '<':
			depth--
		case ':':
			if depth == 0 && (i == 0 || text[i-1] != ':') {
				return true
			}
		case '(', ')', ';', '{', '}', '=', '?':
			return false
		}
	}
	return false
}

// isDeclarationTail reports whether the text at q continues a declaration:
// an identifier, or a nullable marker followed by one.
func isDeclarationTail(src *lexer.Source, q int) bool {
	text := src.Text
	if q >= len(text) {
		return false
	}
	if text[q] == '?' {
		r := skipSpaceFwd(src, q+1)
		return r < len(text) && isIdentStartByte(text[r])
	}
	if !isIdentStartByte(text[q]) {
		return false
	}
	e := q
	for e < len(text) && lexer.IsIdentByte(text[e]) {
		e++
	}
	switch text[q:e] {
	case "is", "as", "in", "when", "and", "or", "with", "switch":
		return false
	}
	return true
}

func isIdentStartByte(c byte) bool {
	return c == '_' || c == '@' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
