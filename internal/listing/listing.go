// Package listing filters and orders document collections for list views.
package listing

import (
	"net/url"
	"sort"
	"strings"

	"github.com/autodoc/autodoc/internal/model"
)

// All disables a status or type criterion.
const All = "all"

// Criteria selects documents. Empty fields are inactive.
type Criteria struct {
	Search string
	Status model.DocumentStatus
	Type   string
}

// ParseCriteria reads q, status and type from a query string.
// "all" disables status and type; an unknown status is kept so it matches nothing.
func ParseCriteria(q url.Values) Criteria {
	c := Criteria{
		Search: strings.TrimSpace(q.Get("q")),
		Type:   strings.TrimSpace(q.Get("type")),
	}
	if c.Search == "" {
		c.Search = strings.TrimSpace(q.Get("search"))
	}
	if strings.EqualFold(c.Type, All) {
		c.Type = ""
	}

	status := strings.TrimSpace(q.Get("status"))
	if status != "" && !strings.EqualFold(status, All) {
		if parsed, ok := model.ParseDocumentStatus(status); ok {
			c.Status = parsed
		} else {
			c.Status = model.DocumentStatus(strings.ToLower(status))
		}
	}
	return c
}

// Match reports whether a document satisfies every active criterion.
func (c Criteria) Match(doc *model.Document) bool {
	if c.Status != "" && doc.Status != c.Status {
		return false
	}
	if c.Type != "" && doc.Type != c.Type {
		return false
	}
	if c.Search != "" && !matchesSearch(doc, strings.ToLower(c.Search)) {
		return false
	}
	return true
}

func matchesSearch(doc *model.Document, needle string) bool {
	haystack := []string{doc.Title, doc.CreatorName, doc.Type}
	if cfg, ok := model.LookupDocumentType(doc.Type); ok {
		haystack = append(haystack, cfg.Title)
	}
	for _, s := range haystack {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// Filter returns the documents matching c, newest first. Ties on CreatedAt
// are ordered by ID descending. The input slice is not modified.
func Filter(docs []model.Document, c Criteria) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for i := range docs {
		if c.Match(&docs[i]) {
			out = append(out, docs[i])
		}
	}
	Sort(out)
	return out
}

// Sort orders documents newest first in place.
func Sort(docs []model.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})
}

// CountByStatus tallies documents per status. Every status is present in the result.
func CountByStatus(docs []model.Document) map[model.DocumentStatus]int {
	counts := make(map[model.DocumentStatus]int, len(model.DocumentStatuses))
	for _, s := range model.DocumentStatuses {
		counts[s] = 0
	}
	for i := range docs {
		counts[docs[i].Status]++
	}
	return counts
}
