package webtoon

import (
	"math/rand/v2"
	"slices"

	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
)

// SampleWebtoons returns the titles shown when the backend is unreachable.
func SampleWebtoons() []Webtoon {
	return []Webtoon{
		{
			Rank: 1, Title: "화산귀환",
			Summary:       "대 화산파 13대 제자. 천하삼대검수 매화검존 청명. 천하를 혼란에 빠뜨린 고금제일마 천마의 목을 치고 십만대산의 정상에서 영면. 백 년의 시간을 뛰어넘어 아이의 몸으로 다시 살아나다.",
			Tags:          []string{"회귀", "무협", "액션", "명작"},
			InterestCount: 1534623, Rating: 9.88, Gender: "남성", Ages: "20대",
		},
		{
			Rank: 2, Title: "신의 탑",
			Summary:       "신의 탑 꼭대기에는 모든 것이 있다고 한다. 탑에 들어가 시험을 통과하면서 위로 올라가는 이야기. 각 층마다 다른 시험과 강력한 적들이 기다리고 있다.",
			Tags:          []string{"판타지", "액션", "성장"},
			InterestCount: 1910544, Rating: 9.84, Gender: "남성", Ages: "20대",
		},
		{
			Rank: 3, Title: "외모지상주의",
			Summary:       "못생긴 외모 때문에 괴롭힘을 당하던 주인공이 어느 날 잘생긴 몸으로 바뀌면서 겪는 이야기. 외모에 따른 차별과 사회 문제를 다룬다.",
			Tags:          []string{"드라마", "학원", "액션"},
			InterestCount: 824399, Rating: 9.40, Gender: "남성", Ages: "10대",
		},
		{
			Rank: 4, Title: "마른 가지에 바람처럼",
			Summary:       "가난한 백작 가문의 딸이 정략결혼을 통해 공작가로 시집가면서 펼쳐지는 로맨스. 냉정한 공작과 따뜻한 마음을 가진 여주인공의 사랑 이야기.",
			Tags:          []string{"로맨스", "귀족", "서양"},
			InterestCount: 458809, Rating: 9.97, Gender: "여성", Ages: "10대",
		},
		{
			Rank: 5, Title: "나 혼자만 레벨업",
			Summary:       "세계에 던전과 헌터가 나타난 지 10여 년. 성진우는 E급 헌터다. 어느 날 이중 던전에서 죽을 뻔한 순간, 시스템이 나타나며 레벨업을 할 수 있게 된다.",
			Tags:          []string{"액션", "게임", "판타지", "성장"},
			InterestCount: 2156789, Rating: 9.91, Gender: "남성", Ages: "20대",
		},
	}
}

// SampleStats are the headline numbers shown without a backend.
func SampleStats() Stats {
	return Stats{
		TotalWebtoons:    5,
		AvgRating:        9.67,
		AvgInterest:      645000,
		UniqueTags:       15,
		TFIDFFeatures:    1000,
		AnalysisEnhanced: true,
	}
}

// SampleAnalysisStats describe the corpus behind SampleNetwork.
func SampleAnalysisStats() AnalysisStats {
	return AnalysisStats{TotalUniqueTags: 127, FrequentTagsCount: 45, CorrelationThreshold: 0.2}
}

// SampleTagAnalysis derives tag frequencies from the sample webtoons.
func SampleTagAnalysis() TagAnalysis {
	lists := make([][]string, 0, 5)
	for _, w := range SampleWebtoons() {
		lists = append(lists, w.Tags)
	}
	freqs := tag.Count(lists)
	nodes := make([]TagNode, len(freqs))
	for i, f := range freqs {
		nodes[i] = TagNode{ID: f.Tag, Count: f.Count, Size: min(float64(f.Count*5), 50)}
	}
	return TagAnalysis{TagFrequency: freqs, NetworkNodes: nodes}
}

// SampleNetwork is the curated 15-tag network displayed before any data
// loads.
func SampleNetwork() *network.Snapshot {
	nodes := []network.Node{
		{ID: "로맨스", Count: 28, Influence: 0.85, Size: 45, Group: "장르", AvgRating: 9.65},
		{ID: "액션", Count: 22, Influence: 0.78, Size: 38, Group: "장르", AvgRating: 9.45},
		{ID: "판타지", Count: 20, Influence: 0.72, Size: 35, Group: "장르", AvgRating: 9.52},
		{ID: "드라마", Count: 18, Influence: 0.68, Size: 32, Group: "장르", AvgRating: 9.38},
		{ID: "회귀", Count: 15, Influence: 0.65, Size: 28, Group: "테마", AvgRating: 9.67},
		{ID: "성장", Count: 16, Influence: 0.62, Size: 30, Group: "테마", AvgRating: 9.41},
		{ID: "학원", Count: 14, Influence: 0.58, Size: 26, Group: "테마", AvgRating: 9.33},
		{ID: "무협", Count: 12, Influence: 0.55, Size: 24, Group: "장르", AvgRating: 9.58},
		{ID: "일상", Count: 13, Influence: 0.52, Size: 25, Group: "장르", AvgRating: 9.21},
		{ID: "귀족", Count: 10, Influence: 0.48, Size: 22, Group: "설정", AvgRating: 9.72},
		{ID: "복수", Count: 9, Influence: 0.45, Size: 20, Group: "테마", AvgRating: 9.51},
		{ID: "현실", Count: 11, Influence: 0.42, Size: 23, Group: "테마", AvgRating: 9.15},
		{ID: "코미디", Count: 8, Influence: 0.38, Size: 18, Group: "장르", AvgRating: 9.02},
		{ID: "스릴러", Count: 7, Influence: 0.35, Size: 17, Group: "장르", AvgRating: 9.28},
		{ID: "게임", Count: 6, Influence: 0.32, Size: 16, Group: "테마", AvgRating: 9.43},
	}
	edges := []network.Edge{
		{Source: "로맨스", Target: "드라마", Value: 0.82, Width: 6, CoOccurrence: 18.5},
		{Source: "로맨스", Target: "학원", Value: 0.76, Width: 5, CoOccurrence: 16.2},
		{Source: "로맨스", Target: "귀족", Value: 0.71, Width: 5, CoOccurrence: 14.8},
		{Source: "액션", Target: "판타지", Value: 0.85, Width: 7, CoOccurrence: 22.1},
		{Source: "액션", Target: "성장", Value: 0.79, Width: 6, CoOccurrence: 19.3},
		{Source: "액션", Target: "회귀", Value: 0.74, Width: 5, CoOccurrence: 17.6},
		{Source: "판타지", Target: "회귀", Value: 0.77, Width: 6, CoOccurrence: 18.9},
		{Source: "판타지", Target: "성장", Value: 0.68, Width: 4, CoOccurrence: 15.4},
		{Source: "회귀", Target: "무협", Value: 0.73, Width: 5, CoOccurrence: 16.7},
		{Source: "드라마", Target: "현실", Value: 0.69, Width: 4, CoOccurrence: 14.2},
		{Source: "드라마", Target: "일상", Value: 0.65, Width: 4, CoOccurrence: 13.1},
		{Source: "학원", Target: "일상", Value: 0.62, Width: 3, CoOccurrence: 11.8},
		{Source: "학원", Target: "코미디", Value: 0.58, Width: 3, CoOccurrence: 10.5},
		{Source: "성장", Target: "무협", Value: 0.66, Width: 4, CoOccurrence: 12.9},
		{Source: "복수", Target: "귀족", Value: 0.64, Width: 4, CoOccurrence: 12.3},
		{Source: "복수", Target: "드라마", Value: 0.61, Width: 3, CoOccurrence: 11.2},
		{Source: "게임", Target: "판타지", Value: 0.59, Width: 3, CoOccurrence: 10.7},
		{Source: "스릴러", Target: "현실", Value: 0.57, Width: 3, CoOccurrence: 9.8},
	}
	return network.NewSynthesizer().FromBackend(nodes, edges, nil)
}

// SampleTFIDF is the keyword analysis shown without a backend.
func SampleTFIDF() TFIDFAnalysis {
	return TFIDFAnalysis{
		GlobalKeywords: []Keyword{
			{Keyword: "주인공", AvgScore: 0.85, Rank: 1},
			{Keyword: "이야기", AvgScore: 0.72, Rank: 2},
			{Keyword: "세계", AvgScore: 0.68, Rank: 3},
			{Keyword: "능력", AvgScore: 0.65, Rank: 4},
			{Keyword: "성장", AvgScore: 0.62, Rank: 5},
			{Keyword: "사랑", AvgScore: 0.58, Rank: 6},
			{Keyword: "모험", AvgScore: 0.55, Rank: 7},
			{Keyword: "학원", AvgScore: 0.52, Rank: 8},
			{Keyword: "판타지", AvgScore: 0.48, Rank: 9},
			{Keyword: "로맨스", AvgScore: 0.45, Rank: 10},
		},
		WebtoonKeywords: map[string][]Keyword{
			"화산귀환": {
				{Keyword: "화산파", Score: 0.92, Rank: 1},
				{Keyword: "검수", Score: 0.87, Rank: 2},
				{Keyword: "천마", Score: 0.82, Rank: 3},
			},
			"신의 탑": {
				{Keyword: "시험", Score: 0.89, Rank: 1},
				{Keyword: "꼭대기", Score: 0.84, Rank: 2},
				{Keyword: "층마다", Score: 0.78, Rank: 3},
			},
		},
		TotalFeatures:  1000,
		TotalDocuments: 5,
		AnalysisMethod: "TF-IDF with Korean preprocessing",
	}
}

// FallbackRecommendations picks up to limit other sample titles for title.
// Similarities come from rng so callers can keep them reproducible; common
// tags are the true tag overlap, or the candidate's first two tags if there
// is none.
func FallbackRecommendations(title string, limit int, rng *rand.Rand) []Recommendation {
	if limit <= 0 {
		limit = 3
	}
	all := SampleWebtoons()
	var target []string
	for _, w := range all {
		if w.Title == title {
			target = w.Tags
		}
	}

	out := make([]Recommendation, 0, limit)
	for _, w := range all {
		if w.Title == title {
			continue
		}
		if len(out) == limit {
			break
		}
		common := commonTags(target, w.Tags)
		if len(common) == 0 {
			common = w.Tags[:min(2, len(w.Tags))]
		}
		out = append(out, Recommendation{
			Webtoon:           w,
			Similarity:        rng.Float64()*0.8 + 0.2,
			JaccardSimilarity: rng.Float64()*0.6 + 0.2,
			TFIDFSimilarity:   rng.Float64()*0.7 + 0.1,
			CommonTags:        slices.Clone(common),
			TargetKeywords:    []string{"주인공", "이야기"},
			CandidateKeywords: []string{"능력", "성장"},
			AnalysisMethod:    "fallback",
		})
	}
	return out
}

// Jaccard returns |a∩b| / |a∪b| over tag sets.
func Jaccard(a, b []string) float64 {
	union := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		union[t] = true
	}
	for _, t := range b {
		union[t] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(len(commonTags(a, b))) / float64(len(union))
}

// LocalSimilarity compares two sample titles by tag overlap.
func LocalSimilarity(title1, title2 string) (Similarity, bool) {
	var a, b *Webtoon
	all := SampleWebtoons()
	for i := range all {
		switch all[i].Title {
		case title1:
			a = &all[i]
		case title2:
			b = &all[i]
		}
	}
	if a == nil || b == nil {
		return Similarity{}, false
	}
	j := Jaccard(a.Tags, b.Tags)
	return Similarity{
		Title1:            title1,
		Title2:            title2,
		Similarity:        j,
		JaccardSimilarity: j,
		CommonTags:        commonTags(a.Tags, b.Tags),
	}, true
}

func commonTags(a, b []string) []string {
	var out []string
	for _, t := range b {
		if slices.Contains(a, t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
