package domain

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// Text match tiers
	ScoreExactMatch      = 100.0
	ScorePrefixMatch     = 75.0
	ScoreWordPrefixMatch = 60.0
	ScoreSubstringMatch  = 50.0
	ScoreAllWordsMatch   = 40.0
	ScoreFuzzyMatch      = 25.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Length bonus (query covering more of the name is better)
	ScoreLengthBonus = 5.0
)

// Weights tunes the usage components of the composite score.
type Weights struct {
	Recency         float64       // score of an item launched just now
	RecencyHalfLife time.Duration // age at which the recency score halves
	Frequency       float64       // multiplier of log10(1 + launches)
}

// DefaultWeights keeps usage below one text tier gap for typical counts.
func DefaultWeights() Weights {
	return Weights{
		Recency:         20,
		RecencyHalfLife: 7 * 24 * time.Hour,
		Frequency:       15,
	}
}

// Candidate represents an item with its match score
type Candidate struct {
	Item  *Item
	Score ScoreBreakdown
}

// TextScore scores a display name against a query. The boolean is false
// when the name does not match at all. An empty query matches with 0.
func TextScore(q *Query, name string) (float64, bool) {
	if q.Empty() {
		return 0, true
	}

	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	s := q.Normalized
	if n == "" {
		return 0, false
	}

	if n == s {
		return ScoreExactMatch, true
	}

	if strings.HasPrefix(n, s) {
		return ScorePrefixMatch + ScoreLengthBonus*float64(len(s))/float64(len(n)), true
	}

	if idx := strings.Index(n, s); idx >= 0 {
		if isWordStart(n, idx) {
			return ScoreWordPrefixMatch + calculatePositionBonus(len(nameWords(n[:idx]))), true
		}
		return ScoreSubstringMatch + ScorePositionBonus*(1.0-float64(idx)/float64(len(n))), true
	}

	if len(q.Fragments) > 1 && containsAll(n, q.Fragments) {
		return ScoreAllWordsMatch, true
	}

	if density := subsequenceDensity(q.Compact, compact(n)); density > 0 {
		return ScoreFuzzyMatch * density, true
	}

	return 0, false
}

// calculatePositionBonus gives bonus for earlier positions
func calculatePositionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// isWordStart reports whether the byte offset idx follows a non
// alphanumeric rune.
func isWordStart(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:idx])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// subsequenceDensity returns len(q)/span of the tightest-from-left match of
// q as a subsequence of s, or 0 when q is not a subsequence.
func subsequenceDensity(q, s string) float64 {
	qr, sr := []rune(q), []rune(s)
	if len(qr) == 0 || len(qr) > len(sr) {
		return 0
	}

	first, j := -1, 0
	for i, r := range sr {
		if r != qr[j] {
			continue
		}
		if first < 0 {
			first = i
		}
		j++
		if j == len(qr) {
			return float64(len(qr)) / float64(i-first+1)
		}
	}
	return 0
}

// RecencyScore decays by half every RecencyHalfLife since the last launch.
func RecencyScore(l LaunchStats, now time.Time, w Weights) float64 {
	if l.LastLaunchedAt.IsZero() || w.Recency <= 0 {
		return 0
	}
	age := now.Sub(l.LastLaunchedAt)
	if age < 0 {
		age = 0
	}
	if w.RecencyHalfLife <= 0 {
		return w.Recency
	}
	return w.Recency * math.Pow(0.5, age.Hours()/w.RecencyHalfLife.Hours())
}

// FrequencyScore grows logarithmically with the launch count.
func FrequencyScore(l LaunchStats, w Weights) float64 {
	if l.LaunchCount <= 0 {
		return 0
	}
	return w.Frequency * math.Log10(float64(l.LaunchCount)+1)
}

// RankCandidates scores items against the query and sorts the matches.
// Ordering is total score descending, then lower-cased name, kind and ID.
func RankCandidates(q *Query, items []*Item, now time.Time, w Weights) []*Candidate {
	candidates := make([]*Candidate, 0, len(items))

	for _, it := range items {
		text, ok := TextScore(q, it.Name)
		if !ok {
			continue
		}

		recency := RecencyScore(it.Launched, now, w)
		frequency := FrequencyScore(it.Launched, w)

		candidates = append(candidates, &Candidate{
			Item: it,
			Score: ScoreBreakdown{
				Text:      text,
				Recency:   recency,
				Frequency: frequency,
				Total:     text + recency + frequency,
			},
		})
	}

	slices.SortFunc(candidates, compareCandidates)
	return candidates
}

func compareCandidates(a, b *Candidate) int {
	if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.Item.Name), strings.ToLower(b.Item.Name)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Item.Kind.Rank(), b.Item.Kind.Rank()); c != 0 {
		return c
	}
	return strings.Compare(a.Item.ID, b.Item.ID)
}
