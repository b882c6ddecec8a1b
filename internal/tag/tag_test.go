package tag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		tag  string
		want Group
	}{
		{"로맨스", GroupGenre},
		{"로맨스판타지", GroupGenre},
		{"학원액션", GroupGenre}, // genre rule is checked before theme
		{"회귀", GroupTheme},
		{"귀족", GroupSetting},
		{"왕족/귀족", GroupSetting},
		{"명작", GroupStyle},
		{"이능력", GroupOther},
		{"일", GroupOther}, // keywords are matched inside the tag, not the reverse
		{"", GroupOther},
		{"   ", GroupOther},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.tag))
		})
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifier([]Rule{{Group: GroupStyle, Keywords: []string{"액션"}}})
	assert.Equal(t, GroupStyle, c.Classify("액션"))
	assert.Equal(t, GroupOther, c.Classify("로맨스"))
}

func TestGroup_Label(t *testing.T) {
	assert.Equal(t, "장르", GroupGenre.Label())
	assert.Equal(t, "기타", GroupOther.Label())
	assert.Equal(t, "기타", Group("unknown").Label())
}

func TestFrequency_JSON(t *testing.T) {
	var freqs []Frequency
	require.NoError(t, json.Unmarshal([]byte(`[["로맨스", 10], ["액션", 7.0]]`), &freqs))
	require.Len(t, freqs, 2)
	assert.Equal(t, Frequency{Tag: "로맨스", Count: 10}, freqs[0])
	assert.Equal(t, Frequency{Tag: "액션", Count: 7}, freqs[1])

	data, err := json.Marshal(freqs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `["로맨스", 10]`, string(data))
}

func TestFrequency_UnmarshalInvalid(t *testing.T) {
	inputs := []string{`["only"]`, `{"tag":"x"}`, `[1, 2]`, `["x", "y"]`}
	for _, in := range inputs {
		var f Frequency
		err := json.Unmarshal([]byte(in), &f)
		assert.ErrorIs(t, err, ErrInvalidFrequency, in)
	}
}

func TestRank(t *testing.T) {
	ranked := Rank([]Frequency{
		{Tag: "판타지", Count: 5},
		{Tag: "로맨스", Count: 10},
		{Tag: "", Count: 3},
		{Tag: "드라마", Count: 5},
		{Tag: "무협", Count: 0},
		{Tag: "액션", Count: 7},
	})

	want := []Frequency{{Tag: "로맨스", Count: 10}, {Tag: "액션", Count: 7}, {Tag: "드라마", Count: 5}, {Tag: "판타지", Count: 5}}
	assert.Equal(t, want, ranked)
}

func TestCount(t *testing.T) {
	freqs := Count([][]string{
		{"액션", "판타지"},
		{"액션", "성장"},
		{"로맨스"},
	})
	require.Len(t, freqs, 4)
	assert.Equal(t, Frequency{Tag: "액션", Count: 2}, freqs[0])
}

func TestLookupCategory(t *testing.T) {
	c, err := LookupCategory("genre")
	require.NoError(t, err)
	assert.Equal(t, []string{"로맨스", "액션", "판타지", "드라마"}, c.Tags)

	c, err = LookupCategory("테마")
	require.NoError(t, err)
	assert.Equal(t, "theme", c.Key)

	// The returned tags must not alias the package-level preset.
	c.Tags[0] = "changed"
	again, _ := LookupCategory("theme")
	assert.Equal(t, "회귀", again.Tags[0])

	_, err = LookupCategory("nope")
	assert.Error(t, err)
}
