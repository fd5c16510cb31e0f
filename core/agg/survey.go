// Package agg has aggregation logic for survey responses.
package agg

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fanpulse/fanpulse/schema"
)

// Unanswered is the placeholder stored for a skipped survey question.
const Unanswered = "未回答"

var (
	songSeparators = regexp.MustCompile(`[/,、&／＆・\n]+`)
	songAnnotation = regexp.MustCompile(`[（(].*?[）)]`)
	songNumbering  = regexp.MustCompile(`[①②③④⑤⑥⑦⑧⑨⑩]`)
	firstNumber    = regexp.MustCompile(`\d+`)
)

// DefaultSongSynonyms maps common spellings of a song title to its canonical form.
var DefaultSongSynonyms = map[string]string{
	"ハイ、問題作!": "ハイ!問題作",
	"ハイ問題作":   "ハイ!問題作",
	"ハイ!問題作":  "ハイ!問題作",
}

// AgeBands are the age groups in display order.
var AgeBands = []string{"10代", "20代", "30代", "40代", "50代", "60代以上"}

// Breakdown counts the answers of one survey field using the built-in song synonyms.
func Breakdown(responses []schema.SurveyResponse, field schema.SurveyField, filter schema.SurveyFilter) schema.SurveyBreakdown {
	return BreakdownWithSynonyms(responses, field, filter, nil)
}

// BreakdownWithSynonyms is Breakdown with extra song synonyms merged over the defaults.
func BreakdownWithSynonyms(responses []schema.SurveyResponse, field schema.SurveyField, filter schema.SurveyFilter, synonyms map[string]string) schema.SurveyBreakdown {
	table := maps.Clone(DefaultSongSynonyms)
	maps.Copy(table, synonyms)

	counts := make(map[string]int)
	matched := 0
	for _, r := range responses {
		if !Matches(r, filter) {
			continue
		}
		matched++
		for _, label := range answerLabels(r.Answer(field), field, table) {
			counts[label]++
		}
	}

	result := schema.SurveyBreakdown{
		Field:     field,
		Filter:    filter,
		Responses: matched,
		Counts:    []schema.CategoryCount{},
	}
	for label, n := range counts {
		result.Total += n
		result.Counts = append(result.Counts, schema.CategoryCount{Label: label, Count: n})
	}
	for i := range result.Counts {
		result.Counts[i].Share = float64(result.Counts[i].Count) * 100 / float64(result.Total)
	}
	slices.SortFunc(result.Counts, func(a, b schema.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if field == schema.AgeField {
			return cmp.Compare(slices.Index(AgeBands, a.Label), slices.Index(AgeBands, b.Label))
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return result
}

// Matches reports whether a response passes the filter.
func Matches(r schema.SurveyResponse, filter schema.SurveyFilter) bool {
	if filter.Year != 0 && r.EventYear != filter.Year {
		return false
	}
	if filter.VenueType != "" && r.VenueType != filter.VenueType {
		return false
	}
	if filter.LiveKey != "" && r.LiveKey() != filter.LiveKey {
		return false
	}
	return true
}

// ListLives returns the lives that have responses under the year and venue filter,
// newest first. The filter's LiveKey is ignored.
func ListLives(responses []schema.SurveyResponse, filter schema.SurveyFilter) []schema.LiveOption {
	filter.LiveKey = ""
	byKey := make(map[string]*schema.LiveOption)
	for _, r := range responses {
		if !Matches(r, filter) {
			continue
		}
		key := r.LiveKey()
		opt, ok := byKey[key]
		if !ok {
			opt = &schema.LiveOption{Key: key, LiveName: r.LiveName, EventDate: r.EventDate, VenueType: r.VenueType}
			byKey[key] = opt
		}
		opt.Responses++
	}

	out := make([]schema.LiveOption, 0, len(byKey))
	for _, opt := range byKey {
		out = append(out, *opt)
	}
	slices.SortFunc(out, func(a, b schema.LiveOption) int {
		return cmp.Or(cmp.Compare(b.EventDate, a.EventDate), cmp.Compare(a.LiveName, b.LiveName))
	})
	return out
}

// answerLabels turns one raw answer into the labels it counts towards.
func answerLabels(raw string, field schema.SurveyField, synonyms map[string]string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Unanswered {
		return nil
	}
	switch field {
	case schema.SongField:
		return SplitSongs(raw, synonyms)
	case schema.AgeField:
		if band, ok := AgeBand(raw); ok {
			return []string{band}
		}
		return nil
	default:
		return []string{raw}
	}
}

// SplitSongs splits a free-text song request into cleaned, canonical titles.
func SplitSongs(raw string, synonyms map[string]string) []string {
	var out []string
	for _, part := range songSeparators.Split(raw, -1) {
		song := CleanSong(part)
		if canonical, ok := synonyms[song]; ok {
			song = canonical
		}
		if song == "" || song == Unanswered {
			continue
		}
		out = append(out, song)
	}
	return out
}

// CleanSong strips annotations and numbering from a single song title.
func CleanSong(s string) string {
	s = songAnnotation.ReplaceAllString(s, "")
	s = songNumbering.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "！", "!")
	return strings.TrimSpace(s)
}

// AgeBand buckets the first number in an answer into an age band.
func AgeBand(raw string) (string, bool) {
	m := firstNumber.FindString(raw)
	if m == "" {
		return "", false
	}
	age, err := strconv.Atoi(m)
	if err != nil {
		return "", false
	}
	switch {
	case age < 20:
		return AgeBands[0], true
	case age >= 60:
		return AgeBands[5], true
	default:
		return AgeBands[age/10-1], true
	}
}
