package match

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PrimaryKeyPrefix prefixes identity keys built from the source's own match id.
const PrimaryKeyPrefix = "lp:"

var (
	externalIDInURL = regexp.MustCompile(`Match:(ID_[^&#/?\s]+)`)
	externalIDInKey = regexp.MustCompile(`^lp:(ID_[^|]+)$`)
)

type IdentityKind uint8

const (
	IdentityFallback IdentityKind = iota + 1
	IdentityPrimary
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityPrimary:
		return "primary"
	case IdentityFallback:
		return "fallback"
	default:
		return "invalid"
	}
}

// Identity is either Primary(externalID) or Fallback(time, team1, team2,
// tournament, format). Values are comparable and usable as map keys.
type Identity struct {
	kind       IdentityKind
	externalID string
	at         string
	team1      string
	team2      string
	tournament string
	format     int
}

func PrimaryIdentity(externalID string) Identity {
	return Identity{kind: IdentityPrimary, externalID: strings.TrimSpace(externalID)}
}

// FallbackIdentity quantizes the time to the minute and lowercases the text parts.
func FallbackIdentity(at time.Time, team1, team2, tournament string, format int) Identity {
	id := Identity{
		kind:       IdentityFallback,
		team1:      strings.ToLower(strings.TrimSpace(team1)),
		team2:      strings.ToLower(strings.TrimSpace(team2)),
		tournament: strings.ToLower(strings.TrimSpace(tournament)),
	}
	if !at.IsZero() {
		id.at = at.UTC().Truncate(time.Minute).Format(time.RFC3339)
	}
	if format > 0 {
		id.format = format
	}
	return id
}

func (id Identity) Kind() IdentityKind {
	return id.kind
}

func (id Identity) IsPrimary() bool {
	return id.kind == IdentityPrimary
}

func (id Identity) IsZero() bool {
	return id.kind == 0
}

func (id Identity) ExternalID() string {
	return id.externalID
}

// Key renders the identity as the persisted unique key.
func (id Identity) Key() string {
	switch id.kind {
	case IdentityPrimary:
		return PrimaryKeyPrefix + id.externalID
	case IdentityFallback:
		return strings.Join([]string{
			id.at,
			id.team1,
			id.team2,
			id.tournament,
			"bo" + strconv.Itoa(id.format),
		}, "|")
	default:
		return ""
	}
}

func (id Identity) String() string {
	return id.kind.String() + "(" + id.Key() + ")"
}

// IsPrimaryKey reports whether a stored identity key is in primary form.
func IsPrimaryKey(key string) bool {
	return strings.HasPrefix(key, PrimaryKeyPrefix)
}

// ExternalIDFromURL extracts the source match id from a detail page URL.
func ExternalIDFromURL(link string) string {
	m := externalIDInURL.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExternalIDFromKey extracts the source match id from a primary identity key.
func ExternalIDFromKey(key string) string {
	m := externalIDInKey.FindStringSubmatch(key)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExternalIDOf returns the best known source match id of a persisted row.
func ExternalIDOf(m Match) string {
	if id := strings.TrimSpace(m.ExternalID); id != "" {
		return id
	}
	if id := ExternalIDFromKey(m.IdentityKey); id != "" {
		return id
	}
	return ExternalIDFromURL(m.DetailURL)
}

// Resolve computes the identity of a normalized snapshot.
func Resolve(s Snapshot) (Identity, error) {
	externalID := strings.TrimSpace(s.ExternalID)
	if externalID == "" {
		externalID = ExternalIDFromURL(s.DetailURL)
	}
	if externalID != "" {
		return PrimaryIdentity(externalID), nil
	}

	hasTeams := !IsPlaceholderTeam(s.Team1) || !IsPlaceholderTeam(s.Team2)
	if !s.HasTime() && !hasTeams {
		return Identity{}, ErrUnresolvable
	}

	return FallbackIdentity(s.ScheduledAt, s.Team1, s.Team2, s.Tournament, s.Format), nil
}

// Resolved pairs a snapshot with its identity.
type Resolved struct {
	Identity Identity
	Snapshot Snapshot
}
