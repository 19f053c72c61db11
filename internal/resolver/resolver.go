// Package resolver detects and rewrites ambiguous type references.
//
// A Resolver is built from one rules.Rule. Detection is pure: it reads text
// and returns records. Resolution adds a using alias directive for every
// ambiguous type and rewrites each reference in a supported syntactic
// position to the alias. Both operations only look at code; comments and
// literals are masked out by the lexer.
//
// Resolve is idempotent: rewritten references use the alias name, which no
// longer matches the short name, and the alias directive is only inserted
// when absent.
package resolver

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/danieljhkim/conflictfix/internal/fsops"
	"github.com/danieljhkim/conflictfix/internal/lexer"
	"github.com/danieljhkim/conflictfix/internal/logging"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// Resolver applies one conflict category's rule.
type Resolver struct {
	rule   rules.Rule
	fs     fsops.FS
	cache  *lexer.Cache
	logger *slog.Logger
}

// New creates a Resolver for rule. cache may be nil.
func New(rule rules.Rule, fs fsops.FS, cache *lexer.Cache, logger *slog.Logger) *Resolver {
	return &Resolver{
		rule:   rule,
		fs:     fs,
		cache:  cache,
		logger: logging.OrDiscard(logger).With(slog.String("category", string(rule.Category))),
	}
}

// NewSet creates one Resolver per rule, preserving order.
func NewSet(table []rules.Rule, fs fsops.FS, cache *lexer.Cache, logger *slog.Logger) []*Resolver {
	out := make([]*Resolver, 0, len(table))
	for _, r := range table {
		out = append(out, New(r, fs, cache, logger))
	}
	return out
}

// Category returns the category this resolver handles.
func (r *Resolver) Category() rules.Category {
	return r.rule.Category
}

// Rule returns the resolver's rule.
func (r *Resolver) Rule() rules.Rule {
	return r.rule
}

type occurrence struct {
	typ    rules.TypeRule
	start  int
	syntax rules.Syntax
}

// Detect returns a record for every ambiguous reference in content. A
// reference is ambiguous only when the file imports every competing namespace
// of the rule and the reference is neither qualified nor already aliased.
func (r *Resolver) Detect(content string) []rules.ConflictRecord {
	src := r.cache.Scan(content)
	occs := r.find(src)
	records := make([]rules.ConflictRecord, 0, len(occs))
	for _, o := range occs {
		line, col := src.Position(o.start)
		records = append(records, rules.ConflictRecord{
			Category:   r.rule.Category,
			Line:       line,
			Column:     col,
			Identifier: o.typ.ShortName,
			Syntax:     o.syntax,
			Snippet:    strings.TrimSpace(src.LineAt(o.start)),
		})
	}
	return records
}

// Resolve rewrites content and returns the new text together with the alias
// names whose directives were inserted. Content without ambiguous references
// is returned unchanged.
func (r *Resolver) Resolve(content string) (string, []string) {
	src := r.cache.Scan(content)
	occs := r.find(src)
	if len(occs) == 0 {
		return content, nil
	}

	type edit struct {
		start, end int
		text       string
	}
	var edits []edit
	var added []string
	var directives strings.Builder

	nl := src.Newline()
	indent := ""
	insertAt := src.BodyStart()
	if last, ok := src.LastUsing(); ok {
		indent = last.Indent
		insertAt = last.End
		if !last.Terminated {
			directives.WriteString(nl)
		}
	}

	for _, t := range r.rule.Types {
		if !hasType(occs, t.ShortName) {
			continue
		}
		alias := r.rule.AliasFor(t)
		if _, ok := src.AliasTarget(alias); ok {
			continue
		}
		directives.WriteString(indent + "using " + alias + " = " + t.Qualified + ";" + nl)
		added = append(added, alias)
	}
	if len(added) > 0 {
		edits = append(edits, edit{start: insertAt, end: insertAt, text: directives.String()})
	}

	for _, o := range occs {
		edits = append(edits, edit{
			start: o.start,
			end:   o.start + len(o.typ.ShortName),
			text:  r.rule.AliasFor(o.typ),
		})
	}

	// Descending by start; at a shared offset the replacement goes before the
	// zero-width directive insert so the two never overlap.
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start > edits[j].start
		}
		return edits[i].end > edits[j].end
	})
	out := content
	for _, e := range edits {
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out, added
}

// Applicable reports whether the file imports every competing namespace.
func (r *Resolver) Applicable(content string) bool {
	return r.applicable(r.cache.Scan(content))
}

func (r *Resolver) applicable(src *lexer.Source) bool {
	for _, ns := range r.rule.Namespaces {
		if !src.Imports(ns) {
			return false
		}
	}
	return true
}

func (r *Resolver) find(src *lexer.Source) []occurrence {
	if !r.applicable(src) {
		return nil
	}

	var occs []occurrence
	for _, t := range r.rule.Types {
		// A file that already binds the short name itself has no ambiguity.
		if _, ok := src.AliasTarget(t.ShortName); ok {
			continue
		}
		alias := r.rule.AliasFor(t)
		if target, ok := src.AliasTarget(alias); ok && target != t.Qualified {
			r.logger.Warn("alias already bound to a different type, skipping",
				slog.String("alias", alias),
				slog.String("target", target),
				slog.String("want", t.Qualified))
			continue
		}
		for _, start := range src.Occurrences(t.ShortName) {
			syntax, ok := classify(src, start, start+len(t.ShortName))
			if !ok || !r.rule.Allows(syntax) {
				continue
			}
			occs = append(occs, occurrence{typ: t, start: start, syntax: syntax})
		}
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].start < occs[j].start })
	return occs
}

func hasType(occs []occurrence, name string) bool {
	for _, o := range occs {
		if o.typ.ShortName == name {
			return true
		}
	}
	return false
}
