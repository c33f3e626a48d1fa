package liquipedia

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

const (
	scoreWrapperSelector = ".match-info-header-scoreholder-scorewrapper"
	scoreUpperSelector   = ".match-info-header-scoreholder-upper"
	scoreLowerSelector   = ".match-info-header-scoreholder-lower"
)

// ParseDetail reads the series score and format from a match page header.
// found is false when the header is missing or the score is not a series
// result (both sides must stay within 0..10).
func ParseDetail(page []byte) (usecase.MatchDetail, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return usecase.MatchDetail{}, false, fmt.Errorf("read html: %w", err)
	}

	wrapper := doc.Find(scoreWrapperSelector).First()
	if wrapper.Length() == 0 {
		wrapper = doc.Selection
	}

	upper := strings.Join(strings.Fields(wrapper.Find(scoreUpperSelector).First().Text()), "")
	if upper == "" {
		return usecase.MatchDetail{}, false, nil
	}
	score, err := match.ParseScore(upper)
	if err != nil || !score.WithinSeriesBounds() {
		return usecase.MatchDetail{}, false, nil
	}

	format := match.ParseFormat(wrapper.Find(scoreLowerSelector).First().Text())
	return usecase.MatchDetail{Score: score.String(), Format: format}, true, nil
}
