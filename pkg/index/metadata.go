package index

import (
	"bytes"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/faion-net/skillrouter/pkg/corpus"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// dirDomains maps corpus top-level directory names to domains for documents
// without a frontmatter domain tag.
var dirDomains = map[string]routing.Domain{
	"devops":         routing.DomainOps,
	"infrastructure": routing.DomainOps,
	"sre":            routing.DomainOps,
	"finops":         routing.DomainFinOps,
	"ml":             routing.DomainML,
	"ml-engineering": routing.DomainML,
	"dev":            routing.DomainDev,
	"development":    routing.DomainDev,
	"engineering":    routing.DomainDev,
}

const minTriggerLen = 3

// frontmatter holds the recognized metadata keys of a corpus document.
type frontmatter struct {
	id          string
	domain      string
	category    string
	description string
	triggers    []string
}

// normalizeDocument turns one raw corpus document into the canonical
// SkillDocument shape. All heterogeneity of the corpus (frontmatter or not,
// explicit triggers or not) is resolved here and nowhere else.
func normalizeDocument(doc corpus.Document) (*routing.SkillDocument, error) {
	fm, err := parseFrontmatter([]byte(doc.Raw))
	if err != nil {
		return nil, err
	}

	body := extractBody(doc.Raw)
	title, headings := scanHeadings(body)

	id := fm.id
	if id == "" {
		if title == "" {
			return nil, errors.New("no frontmatter id and no title heading: cannot derive identity")
		}
		id = routing.Slugify(title)
	}
	if id == "" {
		return nil, errors.New("document identity normalizes to an empty id")
	}

	domain, err := resolveDomain(fm.domain, doc.Path)
	if err != nil {
		return nil, err
	}

	category := fm.category
	if category == "" {
		category = parentDir(doc.Path)
	}

	return &routing.SkillDocument{
		ID:          id,
		Domain:      domain,
		Category:    category,
		Description: fm.description,
		Triggers:    deriveTriggers(fm.triggers, title, headings),
		ContentRef:  doc.Ref,
		SizeHint:    len(body),
	}, nil
}

// parseFrontmatter extracts the YAML frontmatter, if any. Documents without
// frontmatter are legal; their metadata is inferred from headings and paths.
func parseFrontmatter(raw []byte) (frontmatter, error) {
	var fm frontmatter

	if !bytes.HasPrefix(raw, []byte("---")) {
		return fm, nil
	}

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(raw, &buf, parser.WithContext(pctx)); err != nil {
		return fm, errors.Wrap(err, "parsing markdown")
	}

	data := meta.Get(pctx)
	if data == nil {
		return fm, nil
	}

	fm.id, _ = data["id"].(string)
	fm.domain, _ = data["domain"].(string)
	fm.category, _ = data["category"].(string)
	fm.description, _ = data["description"].(string)

	if list, ok := data["triggers"].([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				fm.triggers = append(fm.triggers, s)
			}
		}
	}

	return fm, nil
}

// extractBody strips the YAML frontmatter block and returns the Markdown body.
func extractBody(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}

// scanHeadings returns the first level-1 heading as the title and the text of
// every level-2 heading.
func scanHeadings(body string) (title string, headings []string) {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# "):
			if title == "" {
				title = strings.TrimSpace(trimmed[2:])
			}
		case strings.HasPrefix(trimmed, "## "):
			headings = append(headings, strings.TrimSpace(trimmed[3:]))
		}
	}
	return title, headings
}

func resolveDomain(explicit, docPath string) (routing.Domain, error) {
	if explicit != "" {
		return routing.ParseDomain(explicit)
	}

	top := topDir(docPath)
	if domain, ok := dirDomains[top]; ok {
		return domain, nil
	}
	return "", errors.Errorf("no frontmatter domain and directory %q maps to none", top)
}

func topDir(p string) string {
	p = path.Clean(strings.TrimPrefix(p, "./"))
	if i := strings.IndexByte(p, '/'); i > 0 {
		return p[:i]
	}
	return ""
}

func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return "general"
	}
	return path.Base(dir)
}

// deriveTriggers merges the explicit trigger list with terms from the title
// and level-2 headings. The result is deduplicated and sorted so trigger sets
// compare and match deterministically.
func deriveTriggers(explicit []string, title string, headings []string) []string {
	seen := map[string]bool{}
	add := func(trigger string) {
		trigger = routing.NormalizeText(trigger)
		if trigger == "" || seen[trigger] {
			return
		}
		seen[trigger] = true
	}

	for _, t := range explicit {
		add(t)
	}

	for _, token := range routing.Tokenize(title) {
		if len(token) >= minTriggerLen {
			add(token)
		}
	}
	for _, h := range headings {
		for _, token := range routing.Tokenize(h) {
			if len(token) >= minTriggerLen {
				add(token)
			}
		}
	}

	triggers := make([]string, 0, len(seen))
	for t := range seen {
		triggers = append(triggers, t)
	}
	sort.Strings(triggers)
	return triggers
}
