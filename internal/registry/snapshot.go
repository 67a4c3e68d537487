package registry

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/mr1hm/go-surf-report/internal/config"
	"github.com/mr1hm/go-surf-report/internal/models"
)

var ErrNotFound = errors.New("location not found")

// Snapshot is an immutable view of the location registry. Readers share a
// snapshot freely; publishing replaces it wholesale.
type Snapshot struct {
	Version     string
	PublishedAt time.Time

	locations []models.Location
	byName    map[string]int
	lowered   []string
}

func NewSnapshot(locs []models.Location, version string, publishedAt time.Time) *Snapshot {
	s := &Snapshot{
		Version:     version,
		PublishedAt: publishedAt,
		locations:   make([]models.Location, len(locs)),
		byName:      make(map[string]int, len(locs)),
		lowered:     make([]string, len(locs)),
	}
	copy(s.locations, locs)

	for i, l := range s.locations {
		key := strings.ToLower(l.Name)
		s.lowered[i] = key
		// first occurrence in registry order wins
		if _, ok := s.byName[key]; !ok {
			s.byName[key] = i
		}
	}
	return s
}

// Empty returns the snapshot served when no registry could be loaded.
func Empty() *Snapshot {
	return NewSnapshot(nil, "", time.Time{})
}

func (s *Snapshot) Len() int {
	return len(s.locations)
}

// Locations returns a copy of the registry in order.
func (s *Snapshot) Locations() []models.Location {
	out := make([]models.Location, len(s.locations))
	copy(out, s.locations)
	return out
}

// FindByName does a case-insensitive exact match on the location name.
func (s *Snapshot) FindByName(name string) (models.Location, error) {
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return models.Location{}, ErrNotFound
	}
	return s.locations[i], nil
}

// Search returns every location whose name contains query, ignoring case.
// When nothing contains it, the closest names by edit distance are
// returned instead, best first.
func (s *Snapshot) Search(query string, t config.SearchTuning) []models.Location {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []models.Location
	for i, name := range s.lowered {
		if strings.Contains(name, q) {
			out = append(out, s.locations[i])
		}
	}
	if len(out) > 0 {
		return out
	}
	return s.fuzzy(q, t)
}

type candidate struct {
	index int
	score float64
}

func (s *Snapshot) fuzzy(q string, t config.SearchTuning) []models.Location {
	var cands []candidate
	for i, name := range s.lowered {
		score := Similarity(q, name)
		if score >= t.FuzzyCutoff {
			cands = append(cands, candidate{index: i, score: score})
		}
	}

	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].score > cands[b].score
	})
	if len(cands) > t.FuzzyLimit {
		cands = cands[:t.FuzzyLimit]
	}

	out := make([]models.Location, 0, len(cands))
	for _, c := range cands {
		out = append(out, s.locations[c.index])
	}
	return out
}

// Similarity scores two strings in [0,1] from their Levenshtein distance.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
