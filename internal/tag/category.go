package tag

import (
	"fmt"
	"strings"
)

// Category is a predefined set of tags the dashboard can focus on at once.
type Category struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// Categories are the focus presets offered by the network view.
var Categories = []Category{
	{Key: "genre", Label: "주요장르", Tags: []string{"로맨스", "액션", "판타지", "드라마"}},
	{Key: "theme", Label: "테마", Tags: []string{"회귀", "성장", "복수", "현실"}},
	{Key: "setting", Label: "설정", Tags: []string{"학원", "무협", "귀족", "게임"}},
}

// PopularTags is the default tag palette shown before any data loads.
var PopularTags = []string{
	"로맨스", "액션", "판타지", "드라마", "회귀", "성장", "학원",
	"무협", "일상", "귀족", "복수", "현실", "코미디", "스릴러", "게임",
}

// LookupCategory finds a category by key or Korean label.
func LookupCategory(name string) (Category, error) {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c.Key, name) || c.Label == name {
			tags := make([]string, len(c.Tags))
			copy(tags, c.Tags)
			c.Tags = tags
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("unknown category %q", name)
}
