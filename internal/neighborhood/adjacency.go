package neighborhood

import (
	_ "embed" // adjacency table data
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/propscope/propscope/internal/errors"
)

//go:embed data/adjacency.yaml
var adjacencyData []byte

// Relation classifies a candidate's area relative to a subject's area.
type Relation int

const (
	RelationNone Relation = iota
	RelationAdjacent
	RelationSame
)

// String returns the relation name used in result payloads
func (r Relation) String() string {
	switch r {
	case RelationSame:
		return "same"
	case RelationAdjacent:
		return "adjacent"
	default:
		return "none"
	}
}

// AdjacencyTable maps market micro-areas to their neighboring areas. Labels
// are stored in normalized (uppercase, trimmed) form. The ledger subdivides
// areas into corridor variants of the base label, so lookups and
// comparisons match by containment rather than strict equality.
type AdjacencyTable struct {
	areas map[string][]string
}

// LoadAdjacencyTable parses the embedded adjacency table
func LoadAdjacencyTable() (*AdjacencyTable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(adjacencyData, &raw); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("neighborhood").
			Build()
	}
	if len(raw) == 0 {
		return nil, errors.Newf("adjacency table is empty").
			Category(errors.CategoryConfiguration).
			Component("neighborhood").
			Build()
	}

	// Normalize all labels at load time so lookups never depend on the
	// table's own formatting
	areas := make(map[string][]string, len(raw))
	for label, neighbors := range raw {
		norm := NormalizeLabel(label)
		if norm == "" {
			continue
		}
		cleaned := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			if nn := NormalizeLabel(n); nn != "" && nn != norm {
				cleaned = append(cleaned, nn)
			}
		}
		areas[norm] = cleaned
	}

	return &AdjacencyTable{areas: areas}, nil
}

// NormalizeLabel uppercases and trims an area label
func NormalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// Len returns the number of areas in the table
func (t *AdjacencyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.areas)
}

// Adjacent returns the areas neighboring the given label, or nil when the
// label has no table entry. The returned slice is a copy.
func (t *AdjacencyTable) Adjacent(label string) []string {
	if t == nil {
		return nil
	}
	if _, neighbors, ok := t.entryFor(NormalizeLabel(label)); ok {
		return slices.Clone(neighbors)
	}
	return nil
}

// Compatible returns the labels a candidate's area may match for the given
// subject label: the subject's own label, plus its table neighbors when
// includeAdjacent is set. Returns nil for an empty label.
func (t *AdjacencyTable) Compatible(label string, includeAdjacent bool) []string {
	norm := NormalizeLabel(label)
	if norm == "" {
		return nil
	}
	out := []string{norm}
	if !includeAdjacent || t == nil {
		return out
	}
	if _, neighbors, ok := t.entryFor(norm); ok {
		for _, n := range neighbors {
			if n != norm {
				out = append(out, n)
			}
		}
	}
	return out
}

// Relation classifies candidate's area against subject's. Same means the
// labels are equal or one contains the other (a corridor variant of the
// same base area); adjacent means either side's table entry lists the
// other. Unknown or empty labels classify as none.
func (t *AdjacencyTable) Relation(subject, candidate string) Relation {
	s, c := NormalizeLabel(subject), NormalizeLabel(candidate)
	if s == "" || c == "" {
		return RelationNone
	}
	if labelsMatch(s, c) {
		return RelationSame
	}
	if t == nil {
		return RelationNone
	}
	if _, neighbors, ok := t.entryFor(s); ok {
		for _, n := range neighbors {
			if labelsMatch(c, n) {
				return RelationAdjacent
			}
		}
	}
	if _, neighbors, ok := t.entryFor(c); ok {
		for _, n := range neighbors {
			if labelsMatch(s, n) {
				return RelationAdjacent
			}
		}
	}
	return RelationNone
}

// labelsMatch reports whether two normalized labels name the same area
func labelsMatch(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// entryFor resolves a normalized label to its table entry. Exact key match
// wins; otherwise the longest base-form key contained in the label is used,
// so corridor variants resolve to their base area. Ties on length break
// lexically for determinism.
func (t *AdjacencyTable) entryFor(norm string) (string, []string, bool) {
	if neighbors, ok := t.areas[norm]; ok {
		return norm, neighbors, true
	}
	best := ""
	for key := range t.areas {
		if !strings.Contains(norm, key) {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	if best == "" {
		return "", nil, false
	}
	return best, t.areas[best], true
}
