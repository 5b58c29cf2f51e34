// Package parser is the multi-language syntax-tree facade (§4.E): it wraps
// one tree-sitter grammar per supported language, parses source text into a
// concrete syntax tree, and runs named-capture pattern queries over a tree
// node. Rule modules never walk raw node structure beyond what this facade
// returns.
package parser

import (
	"regexp"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"slopcheck/internal/core/types"
	"slopcheck/internal/shared/observability"
)

// Tree is a parsed syntax tree bound to the source bytes it was parsed from.
// Parser errors never propagate to the caller as an error return; a failed
// or partial parse still yields a Tree (possibly with HasError() true on its
// root), matching §4.E's "parser errors return an empty tree" contract.
type Tree struct {
	Language types.Language
	Source   []byte
	inner    *sitter.Tree
}

func (t *Tree) Root() *sitter.Node {
	if t == nil || t.inner == nil {
		return nil
	}
	return t.inner.RootNode()
}

func (t *Tree) HasError() bool {
	root := t.Root()
	return root == nil || root.HasError()
}

func (t *Tree) Close() {
	if t != nil && t.inner != nil {
		t.inner.Close()
	}
}

// Capture is one named binding produced by a pattern query.
type Capture struct {
	Name   string
	Node   *sitter.Node
	Text   string
	Line   int
	Column int
}

// Facade owns one parser pool per supported language grammar.
type Facade struct {
	languages map[types.Language]*sitter.Language
	pools     map[types.Language]*ParserPool
	queryLang map[types.Language]*sitter.Language
}

// NewFacade builds the facade with the three grammars the spec scopes the
// syntax-tree layer to (§4.E): javascript, typescript, python. TypeScript
// uses the TSX grammar unconditionally — it is a strict syntactic superset
// of the plain TypeScript grammar, so both .ts and .tsx sources parse
// correctly through one pool.
func NewFacade() *Facade {
	jsLang := sitter.NewLanguage(tree_sitter_javascript.Language())
	tsLang := sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	pyLang := sitter.NewLanguage(tree_sitter_python.Language())

	langs := map[types.Language]*sitter.Language{
		types.LangJavaScript: jsLang,
		types.LangTypeScript: tsLang,
		types.LangPython:     pyLang,
	}
	pools := make(map[types.Language]*ParserPool, len(langs))
	for lang, g := range langs {
		pools[lang] = NewParserPool(g)
	}
	return &Facade{languages: langs, pools: pools, queryLang: langs}
}

// Supports reports whether lang has a loaded grammar.
func (f *Facade) Supports(lang types.Language) bool {
	_, ok := f.languages[lang]
	return ok
}

// Parse produces a concrete syntax tree for source under lang. A grammar
// failure or unsupported language yields a Tree with a nil inner tree
// (HasError() == true) rather than an error — callers must tolerate
// partial/empty trees (§4.E, §7 "malformed source").
func (f *Facade) Parse(lang types.Language, source []byte) *Tree {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(string(lang)).Observe(time.Since(start).Seconds())
	}()

	pool, ok := f.pools[lang]
	if !ok {
		return &Tree{Language: lang, Source: source}
	}
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(source, nil)
	return &Tree{Language: lang, Source: source, inner: tree}
}

// Query runs a tree-sitter pattern (S-expression query source) against
// tree's root node and returns every named capture in document order.
func (f *Facade) Query(tree *Tree, patternSrc string) ([]Capture, error) {
	if tree == nil || tree.inner == nil {
		return nil, nil
	}
	lang, ok := f.queryLang[tree.Language]
	if !ok {
		return nil, nil
	}

	q, qErr := sitter.NewQuery(lang, patternSrc)
	if qErr != nil {
		return nil, qErr
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(q, tree.Root(), tree.Source)
	var out []Capture
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, c := range m.Captures {
			name := q.CaptureNames()[c.Index]
			pos := c.Node.StartPosition()
			out = append(out, Capture{
				Name:   name,
				Node:   &c.Node,
				Text:   string(tree.Source[c.Node.StartByte():c.Node.EndByte()]),
				Line:   int(pos.Row) + 1,
				Column: int(pos.Column) + 1,
			})
		}
	}
	return out, nil
}

var scriptBlockRE = regexp.MustCompile(`(?is)<script([^>]*)>(.*?)</script>`)
var langAttrRE = regexp.MustCompile(`(?i)lang\s*=\s*["']([a-zA-Z]+)["']`)

// ExtractScriptBlock pulls the text of the single top-level <script>...
// </script> block out of a Vue/Svelte single-file component (§4.E), along
// with the language it should be re-parsed as. Absent a script block, ok is
// false and callers should treat the file as having an empty tree.
func ExtractScriptBlock(source []byte) (script []byte, lang types.Language, ok bool) {
	m := scriptBlockRE.FindSubmatch(source)
	if m == nil {
		return nil, "", false
	}
	attrs, body := string(m[1]), m[2]

	lang = types.LangJavaScript
	if lm := langAttrRE.FindStringSubmatch(attrs); lm != nil {
		switch strings.ToLower(lm[1]) {
		case "ts", "typescript":
			lang = types.LangTypeScript
		case "js", "javascript":
			lang = types.LangJavaScript
		}
	}
	return body, lang, true
}
