package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxScoreValue bounds each side of any stored score.
	MaxScoreValue = 50
	// MaxSeriesScore bounds each side of a score accepted as a series result.
	// Larger values are per-game scores (rounds, kills) leaking into the series field.
	MaxSeriesScore = 10
)

var (
	scorePattern  = regexp.MustCompile(`^\s*(\d+)\s*[:\-]\s*(\d+)\s*$`)
	formatPattern = regexp.MustCompile(`(?i)(?:bo|best\s+of)\s*(\d+)`)
)

type Score struct {
	A int
	B int
}

// ParseScore accepts "A:B" or "A-B" with both sides in [0, MaxScoreValue].
func ParseScore(raw string) (Score, error) {
	m := scorePattern.FindStringSubmatch(raw)
	if m == nil {
		return Score{}, fmt.Errorf("%w: %q", ErrInvalidScore, raw)
	}
	a, errA := strconv.Atoi(m[1])
	b, errB := strconv.Atoi(m[2])
	if errA != nil || errB != nil {
		return Score{}, fmt.Errorf("%w: %q", ErrInvalidScore, raw)
	}
	if a > MaxScoreValue || b > MaxScoreValue {
		return Score{}, fmt.Errorf("%w: %q out of range", ErrInvalidScore, raw)
	}
	return Score{A: a, B: b}, nil
}

func (s Score) String() string {
	return strconv.Itoa(s.A) + ":" + strconv.Itoa(s.B)
}

func (s Score) Max() int {
	if s.A > s.B {
		return s.A
	}
	return s.B
}

// IsZero reports the literal 0:0 score.
func (s Score) IsZero() bool {
	return s.A == 0 && s.B == 0
}

// WithinSeriesBounds reports whether both sides look like map wins, not rounds.
func (s Score) WithinSeriesBounds() bool {
	return s.A <= MaxSeriesScore && s.B <= MaxSeriesScore
}

// IsSeriesFinal reports whether the score is a completed best-of-format series.
func (s Score) IsSeriesFinal(format int) bool {
	if format <= 0 {
		return false
	}
	top := s.Max()
	needed := format/2 + 1
	return top >= needed && top <= format && top <= MaxSeriesScore
}

// IsMeaningful reports a parseable score other than 0:0.
func IsMeaningful(raw string) bool {
	score, err := ParseScore(raw)
	return err == nil && !score.IsZero()
}

// ParseFormat extracts N from "Bo3", "(Bo5)", "best of 3" or a bare number.
func ParseFormat(raw string) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	m := formatPattern.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
