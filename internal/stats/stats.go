// Package stats derives dashboard statistics from webtoon records when the
// backend does not supply them.
package stats

import (
	"errors"
	"math"
	"strings"

	"github.com/webtoonlab/tagnet/internal/tag"
	"github.com/webtoonlab/tagnet/internal/webtoon"
)

// ErrInsufficientData is returned when a statistic needs more samples.
var ErrInsufficientData = errors.New("not enough data")

// Display computes headline numbers from the records themselves.
func Display(ws []webtoon.Webtoon) webtoon.Stats {
	s := webtoon.Stats{TotalWebtoons: len(ws)}
	if len(ws) == 0 {
		return s
	}
	var rating, interest float64
	tags := make(map[string]bool)
	for _, w := range ws {
		rating += w.Rating
		interest += float64(w.InterestCount)
		for _, t := range w.Tags {
			tags[t] = true
		}
	}
	n := float64(len(ws))
	s.AvgRating = math.Round(rating/n*100) / 100
	s.AvgInterest = math.Round(interest / n)
	s.UniqueTags = len(tags)
	return s
}

// TagFrequency tallies tags across webtoons, ranked.
func TagFrequency(ws []webtoon.Webtoon) []tag.Frequency {
	lists := make([][]string, len(ws))
	for i, w := range ws {
		lists[i] = w.Tags
	}
	return tag.Count(lists)
}

// Top returns at most n leading frequencies.
func Top(freqs []tag.Frequency, n int) []tag.Frequency {
	if n <= 0 || n >= len(freqs) {
		return freqs
	}
	return freqs[:n]
}

// Bucket counts records falling in [Min, Max).
type Bucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

func (b Bucket) contains(v float64) bool {
	return v >= b.Min && v < b.Max
}

// RatingBuckets groups ratings into the dashboard's bands.
func RatingBuckets(ws []webtoon.Webtoon) []Bucket {
	buckets := []Bucket{
		{Label: "9.8-10", Min: 9.8, Max: math.Inf(1)},
		{Label: "9.6-9.8", Min: 9.6, Max: 9.8},
		{Label: "9.4-9.6", Min: 9.4, Max: 9.6},
		{Label: "9.2-9.4", Min: 9.2, Max: 9.4},
		{Label: "9.0-9.2", Min: 9.0, Max: 9.2},
	}
	for _, w := range ws {
		fill(buckets, w.Rating)
	}
	return buckets
}

// InterestBuckets groups interest counts into the dashboard's bands.
func InterestBuckets(ws []webtoon.Webtoon) []Bucket {
	buckets := []Bucket{
		{Label: "1M 이상", Min: 1_000_000, Max: math.Inf(1)},
		{Label: "500K-1M", Min: 500_000, Max: 1_000_000},
		{Label: "100K-500K", Min: 100_000, Max: 500_000},
		{Label: "50K-100K", Min: 50_000, Max: 100_000},
		{Label: "50K 미만", Min: math.Inf(-1), Max: 50_000},
	}
	for _, w := range ws {
		fill(buckets, float64(w.InterestCount))
	}
	return buckets
}

func fill(buckets []Bucket, v float64) {
	for i := range buckets {
		if buckets[i].contains(v) {
			buckets[i].Count++
			return
		}
	}
}

// Popularity tiers by interest count.
const (
	TierMainstream = "대중성"
	TierBalanced   = "균형점"
	TierNiche      = "틈새작"
)

// Tier classifies a title by its interest count.
func Tier(interest int) string {
	switch {
	case interest >= 1_000_000:
		return TierMainstream
	case interest >= 100_000:
		return TierBalanced
	default:
		return TierNiche
	}
}

// Pearson returns the correlation coefficient of xs and ys.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, errors.New("samples differ in length")
	}
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, ErrInsufficientData
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, ErrInsufficientData
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

// RatingInterestCorrelation correlates rating with interest count.
func RatingInterestCorrelation(ws []webtoon.Webtoon) (float64, error) {
	xs := make([]float64, len(ws))
	ys := make([]float64, len(ws))
	for i, w := range ws {
		xs[i] = w.Rating
		ys[i] = float64(w.InterestCount)
	}
	return Pearson(xs, ys)
}

// matchesGenre reports whether any tag names the genre. Compound genres such
// as "무협/사극" match either part.
func matchesGenre(tags []string, genre string) bool {
	parts := strings.Split(genre, "/")
	for _, t := range tags {
		if t == genre {
			return true
		}
		for _, p := range parts {
			if p != "" && t == p {
				return true
			}
		}
	}
	return false
}
