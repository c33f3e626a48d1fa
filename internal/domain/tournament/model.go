package tournament

import (
	"strings"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/team"
)

// Tournament is a reference record synced from the source's tournament list.
type Tournament struct {
	ID        int64
	Game      string
	Path      string
	Name      string
	URL       string
	Tier      string
	Status    string
	UpdatedAt time.Time
}

// Normalize trims fields and derives the path from the URL when missing.
func (t Tournament) Normalize() Tournament {
	t.Game = strings.TrimSpace(t.Game)
	t.Name = strings.Join(strings.Fields(t.Name), " ")
	t.URL = strings.TrimSpace(t.URL)
	t.Tier = strings.TrimSpace(t.Tier)
	t.Status = strings.TrimSpace(t.Status)
	if strings.TrimSpace(t.Path) == "" {
		t.Path = team.CanonicalPath(t.URL)
	} else {
		t.Path = team.CanonicalPath(t.Path)
	}
	return t
}

// Catalog is an immutable view of the known tournaments of one game,
// built at the start of a cycle and dropped at its end.
type Catalog struct {
	byPath map[string]Tournament
	byName map[string]Tournament
	size   int
}

func NewCatalog(items []Tournament) Catalog {
	c := Catalog{
		byPath: make(map[string]Tournament, len(items)),
		byName: make(map[string]Tournament, len(items)),
	}
	for _, raw := range items {
		t := raw.Normalize()
		if t.Name == "" {
			continue
		}
		c.size++
		if t.Path != "" {
			c.byPath[t.Path] = t
		}
		key := match.NormalizeName(match.CleanTournamentName(t.Name))
		if _, exists := c.byName[key]; !exists {
			c.byName[key] = t
		}
	}
	return c
}

func (c Catalog) Len() int {
	return c.size
}

// Lookup resolves a tournament by link first, then by cleaned name.
func (c Catalog) Lookup(name, link string) (Tournament, bool) {
	if path := team.CanonicalPath(link); path != "" {
		if t, ok := c.byPath[path]; ok {
			return t, true
		}
	}
	key := match.NormalizeName(match.CleanTournamentName(name))
	if key == "" {
		return Tournament{}, false
	}
	t, ok := c.byName[key]
	return t, ok
}

// Canonicalize fills a missing tournament name from the catalog when the
// snapshot links to a known tournament page. Scraped names are kept as-is
// because they take part in fallback identity keys.
func (c Catalog) Canonicalize(s match.Snapshot) match.Snapshot {
	if strings.TrimSpace(s.Tournament) != "" {
		return s
	}
	t, ok := c.Lookup("", s.TournamentURL)
	if !ok {
		return s
	}
	s.Tournament = t.Name
	return s
}
