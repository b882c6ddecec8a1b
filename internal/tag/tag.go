// Package tag defines webtoon tags, their frequency ranking and the keyword
// classifier that assigns each tag to a display group.
package tag

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Group is the categorical classification of a tag.
type Group string

// Tag groups, in classifier priority order.
const (
	GroupGenre   Group = "genre"
	GroupTheme   Group = "theme"
	GroupSetting Group = "setting"
	GroupStyle   Group = "style"
	GroupOther   Group = "other"
)

// Groups lists every group in classifier priority order, "other" last.
var Groups = []Group{GroupGenre, GroupTheme, GroupSetting, GroupStyle, GroupOther}

// Label returns the Korean display label used by the dashboard legend.
func (g Group) Label() string {
	switch g {
	case GroupGenre:
		return "장르"
	case GroupTheme:
		return "테마"
	case GroupSetting:
		return "설정"
	case GroupStyle:
		return "스타일"
	default:
		return "기타"
	}
}

// Color returns the legend color for the group.
func (g Group) Color() string {
	switch g {
	case GroupGenre:
		return "#2563eb"
	case GroupTheme:
		return "#16a34a"
	case GroupSetting:
		return "#dc2626"
	case GroupStyle:
		return "#7c3aed"
	default:
		return "#ea580c"
	}
}

// Rule maps a group to the keywords that select it.
type Rule struct {
	Group    Group
	Keywords []string
}

// DefaultRules is the fixed keyword membership table. Order matters: the
// first rule with a matching keyword wins.
var DefaultRules = []Rule{
	{GroupGenre, []string{"로맨스", "액션", "판타지", "드라마", "스릴러", "호러", "코미디", "일상", "무협"}},
	{GroupTheme, []string{"회귀", "성장", "복수", "학원", "현실", "게임", "모험", "요리", "스포츠"}},
	{GroupSetting, []string{"서양", "귀족", "현대", "미래", "과거"}},
	{GroupStyle, []string{"명작", "단편", "러블리"}},
}

// Classifier assigns groups by keyword membership.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules.
// A nil or empty rule set falls back to DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the group of the first rule with a keyword contained in
// the tag. Unmatched and empty tags are GroupOther.
func (c *Classifier) Classify(tag string) Group {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return GroupOther
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(tag, kw) {
				return r.Group
			}
		}
	}
	return GroupOther
}

// Frequency is a (tag, count) pair. On the wire it is a two-element array.
type Frequency struct {
	Tag   string
	Count int
}

// ErrInvalidFrequency is returned when a frequency pair cannot be decoded.
var ErrInvalidFrequency = errors.New("tag frequency must be a [tag, count] pair")

// MarshalJSON encodes the pair as ["tag", count].
func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Tag, f.Count})
}

// UnmarshalJSON decodes ["tag", count]. Counts encoded as floats are truncated.
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: got %d elements", ErrInvalidFrequency, len(raw))
	}
	if err := json.Unmarshal(raw[0], &f.Tag); err != nil {
		return fmt.Errorf("%w: tag: %v", ErrInvalidFrequency, err)
	}
	var count float64
	if err := json.Unmarshal(raw[1], &count); err != nil {
		return fmt.Errorf("%w: count: %v", ErrInvalidFrequency, err)
	}
	f.Count = int(count)
	return nil
}

// Rank sorts frequencies descending by count, ties broken by tag, and drops
// entries with an empty tag or a non-positive count.
func Rank(freqs []Frequency) []Frequency {
	ranked := make([]Frequency, 0, len(freqs))
	for _, f := range freqs {
		if f.Tag == "" || f.Count <= 0 {
			continue
		}
		ranked = append(ranked, f)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	return ranked
}

// Count tallies tags across items and returns them ranked.
func Count(tagLists [][]string) []Frequency {
	counts := make(map[string]int)
	for _, tags := range tagLists {
		for _, t := range tags {
			counts[t]++
		}
	}
	freqs := make([]Frequency, 0, len(counts))
	for t, n := range counts {
		freqs = append(freqs, Frequency{Tag: t, Count: n})
	}
	return Rank(freqs)
}
