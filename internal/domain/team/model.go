package team

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var missingPageSuffix = regexp.MustCompile(`(?i)\s*\(page does not exist\)\s*$`)

// Reference is a canonical team record keyed by its normalized source path.
type Reference struct {
	ID        int64
	Game      string
	Path      string
	Name      string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Reference) Validate() error {
	if strings.TrimSpace(r.Game) == "" {
		return fmt.Errorf("team game is required")
	}
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("team path is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// NewReference builds a reference from a display name and a link as seen in a
// snapshot. It reports false when the link cannot identify a team page.
func NewReference(game, name, link string) (Reference, bool) {
	name = StripMissingPage(name)
	if name == "" || IsMissingPage(link) {
		return Reference{}, false
	}
	path := CanonicalPath(link)
	if path == "" || !strings.HasPrefix(path, "/") {
		return Reference{}, false
	}

	return Reference{
		Game: strings.TrimSpace(game),
		Path: path,
		Name: name,
		URL:  strings.TrimSpace(link),
	}, true
}

// CanonicalPath reduces a wiki link to its path: scheme, host, query,
// fragment and trailing slashes are dropped.
func CanonicalPath(link string) string {
	value := strings.TrimSpace(link)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		parsed, err := url.Parse(value)
		if err != nil {
			return ""
		}
		value = parsed.Path
	}
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		value = value[:i]
	}

	return strings.TrimRight(value, "/")
}

// IsMissingPage reports links to pages the wiki has not created yet.
func IsMissingPage(link string) bool {
	value := strings.ToLower(strings.TrimSpace(link))
	if value == "" {
		return false
	}
	return strings.Contains(value, "redlink=1") || strings.Contains(value, "action=edit")
}

// StripMissingPage removes the "(page does not exist)" marker the wiki
// appends to titles of uncreated pages.
func StripMissingPage(name string) string {
	return strings.TrimSpace(missingPageSuffix.ReplaceAllString(name, ""))
}
