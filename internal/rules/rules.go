// Package rules holds the declarative table of ambiguous-type categories.
//
// Each Rule names the two namespaces whose co-import makes a short type name
// ambiguous, the types affected, the alias each type is rewritten to, and the
// syntactic positions in which a reference may be rewritten. One generic
// resolver consumes the table; adding a category is a data change.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Category identifies one class of ambiguous reference.
type Category string

const (
	CategoryDialog     Category = "dialog"
	CategoryMessageBox Category = "message-box"
	CategoryControl    Category = "ui-control"
	CategoryFileDialog Category = "file-dialog"
	CategoryView       Category = "view"
)

// Syntax is a syntactic position in which a type reference may appear.
type Syntax string

const (
	SyntaxConstructor  Syntax = "constructor"
	SyntaxDeclaration  Syntax = "declaration"
	SyntaxStaticAccess Syntax = "static-access"
	SyntaxGenericArg   Syntax = "generic-argument"
	SyntaxArray        Syntax = "array"
	SyntaxInheritance  Syntax = "inheritance"
	SyntaxCast         Syntax = "cast"
	SyntaxTypeTest     Syntax = "type-test"
	SyntaxTypeof       Syntax = "typeof"
)

// AllSyntax is every syntactic position the resolver knows how to rewrite.
var AllSyntax = []Syntax{
	SyntaxConstructor,
	SyntaxDeclaration,
	SyntaxStaticAccess,
	SyntaxGenericArg,
	SyntaxArray,
	SyntaxInheritance,
	SyntaxCast,
	SyntaxTypeTest,
	SyntaxTypeof,
}

// TypeRule maps one ambiguous short name to its qualified replacement.
type TypeRule struct {
	ShortName string
	Qualified string
}

// Rule describes one conflict category.
type Rule struct {
	Category Category
	Title    string

	// Namespaces must all be imported by a file before any reference in it is
	// considered ambiguous.
	Namespaces []string

	// AliasPrefix is prepended to the short name to form the alias.
	AliasPrefix string

	Types []TypeRule

	// Syntax lists the positions rewritten for this category.
	Syntax []Syntax

	// DiagnosticHints are extra case-insensitive substrings which, together
	// with an ambiguity message, attribute a build error to this category.
	DiagnosticHints []string
}

// AliasFor returns the alias name used for a type in this rule.
func (r Rule) AliasFor(t TypeRule) string {
	return r.AliasPrefix + t.ShortName
}

// Allows reports whether references in the given position are rewritten.
func (r Rule) Allows(s Syntax) bool {
	for _, allowed := range r.Syntax {
		if allowed == s {
			return true
		}
	}
	return false
}

// Validate checks the rule for internal consistency.
func (r Rule) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("rule has no category")
	}
	if len(r.Namespaces) < 2 {
		return fmt.Errorf("rule %s: at least two competing namespaces required", r.Category)
	}
	if len(r.Types) == 0 {
		return fmt.Errorf("rule %s: no types", r.Category)
	}
	seen := make(map[string]bool)
	for _, t := range r.Types {
		if t.ShortName == "" || !strings.HasSuffix(t.Qualified, "."+t.ShortName) {
			return fmt.Errorf("rule %s: qualified name %q does not end in %q", r.Category, t.Qualified, t.ShortName)
		}
		alias := r.AliasFor(t)
		if alias == t.ShortName {
			return fmt.Errorf("rule %s: alias for %s must differ from the short name", r.Category, t.ShortName)
		}
		if seen[alias] {
			return fmt.Errorf("rule %s: duplicate alias %s", r.Category, alias)
		}
		seen[alias] = true
	}
	return nil
}

var ambiguity = regexp.MustCompile(`(?i)\bambiguous\b|\bCS0104\b`)

// MatchesDiagnostic reports whether an error message belongs to this
// category: it must describe an ambiguity and mention one of the rule's type
// names as a quoted or qualified identifier, or one of its hints.
func (r Rule) MatchesDiagnostic(code, message string) bool {
	if !ambiguity.MatchString(code) && !ambiguity.MatchString(message) {
		return false
	}
	for _, t := range r.Types {
		if mentionsType(message, t.ShortName) {
			return true
		}
	}
	lower := strings.ToLower(message)
	for _, hint := range r.DiagnosticHints {
		if strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

func mentionsType(message, name string) bool {
	return strings.Contains(message, "'"+name+"'") || strings.Contains(message, "."+name+"'")
}
