package stats

import "github.com/webtoonlab/tagnet/internal/webtoon"

// Heatmap axes shown by the dashboard.
var (
	HeatmapGenres       = []string{"로맨스", "액션", "판타지", "드라마", "무협/사극", "일상"}
	HeatmapDemographics = []string{"남성-10대", "남성-20대", "남성-30대", "여성-10대", "여성-20대", "여성-30대"}
)

// HeatmapCells counts webtoons per genre and demographic. Empty cells are
// omitted.
func HeatmapCells(ws []webtoon.Webtoon) []webtoon.HeatmapCell {
	var cells []webtoon.HeatmapCell
	for y, demo := range HeatmapDemographics {
		for x, genre := range HeatmapGenres {
			n := 0
			for _, w := range ws {
				if w.Demographic() == demo && matchesGenre(w.Tags, genre) {
					n++
				}
			}
			if n == 0 {
				continue
			}
			cells = append(cells, webtoon.HeatmapCell{
				X: x, Y: y, Value: float64(n),
				Genre: genre, Demographic: demo, Count: n,
			})
		}
	}
	return cells
}

// Grid is a dense genre by demographic matrix. Counts[y][x] pairs
// Demographics[y] with Genres[x]; Intensity is count divided by the largest
// count.
type Grid struct {
	Genres       []string    `json:"genres"`
	Demographics []string    `json:"demographics"`
	Counts       [][]int     `json:"counts"`
	Intensity    [][]float64 `json:"intensity"`
	Max          int         `json:"max"`
}

// BuildGrid lays cells out on the dashboard axes. Cells outside the axes are
// ignored.
func BuildGrid(cells []webtoon.HeatmapCell) Grid {
	g := Grid{
		Genres:       append([]string(nil), HeatmapGenres...),
		Demographics: append([]string(nil), HeatmapDemographics...),
		Counts:       make([][]int, len(HeatmapDemographics)),
		Intensity:    make([][]float64, len(HeatmapDemographics)),
	}
	gx := indexOf(HeatmapGenres)
	dy := indexOf(HeatmapDemographics)
	for y := range g.Counts {
		g.Counts[y] = make([]int, len(HeatmapGenres))
		g.Intensity[y] = make([]float64, len(HeatmapGenres))
	}
	for _, c := range cells {
		x, okX := gx[c.Genre]
		y, okY := dy[c.Demographic]
		if !okX || !okY {
			continue
		}
		g.Counts[y][x] += c.Count
		if g.Counts[y][x] > g.Max {
			g.Max = g.Counts[y][x]
		}
	}
	top := g.Max
	if top == 0 {
		top = 1
	}
	for y := range g.Counts {
		for x := range g.Counts[y] {
			g.Intensity[y][x] = float64(g.Counts[y][x]) / float64(top)
		}
	}
	return g
}

func indexOf(items []string) map[string]int {
	m := make(map[string]int, len(items))
	for i, s := range items {
		m[s] = i
	}
	return m
}
