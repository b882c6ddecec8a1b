package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webtoonlab/tagnet/internal/api"
	"github.com/webtoonlab/tagnet/internal/dashboard"
	"github.com/webtoonlab/tagnet/internal/stats"
	"github.com/webtoonlab/tagnet/internal/tag"
	"github.com/webtoonlab/tagnet/internal/webtoon"
)

var (
	tagsLimit int

	recLimit       int
	recTFIDFWeight float64
	recNoTFIDF     bool

	keywordsMax int
)

func init() {
	tagsCmd.Flags().IntVarP(&tagsLimit, "limit", "n", 20, "Number of tags to show (0: all)")
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(webtoonsCmd)

	recommendCmd.Flags().IntVarP(&recLimit, "limit", "n", api.DefaultRecommendationLimit, "Number of recommendations")
	recommendCmd.Flags().Float64Var(&recTFIDFWeight, "tfidf-weight", api.DefaultTFIDFWeight, "Weight of TF-IDF similarity")
	recommendCmd.Flags().BoolVar(&recNoTFIDF, "no-tfidf", false, "Use tag similarity only")
	rootCmd.AddCommand(recommendCmd)

	keywordsCmd.Flags().IntVarP(&keywordsMax, "max", "n", api.DefaultMaxKeywords, "Maximum keywords")
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(tfidfCmd)
	rootCmd.AddCommand(similarityCmd)
	rootCmd.AddCommand(healthCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show tag frequencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.TagAnalysis(cmd.Context())
		freqs := tag.Rank(res.Data.TagFrequency)
		if tagsLimit > 0 {
			freqs = stats.Top(freqs, tagsLimit)
		}
		if !humanOutput {
			return outputJSON(dashboard.Result[[]tag.Frequency]{Data: freqs, Origin: res.Origin, FetchedAt: res.FetchedAt, Error: res.Error})
		}

		outputHuman("%s  [%s]\n", Brand.Sprint("Tag frequency"), originBadge(res.Origin))
		top := 0.0
		if len(freqs) > 0 {
			top = float64(freqs[0].Count)
		}
		rows := make([][]string, 0, len(freqs))
		for i, f := range freqs {
			rows = append(rows, []string{fmt.Sprint(i + 1), f.Tag, fmt.Sprint(f.Count), bar(float64(f.Count), top)})
		}
		printTable([]string{"#", "tag", "count", ""}, rows)
		return nil
	},
}

// StatsResponse is the response for the stats command.
type StatsResponse struct {
	Stats       dashboard.Result[*webtoon.Stats] `json:"stats"`
	Ratings     []stats.Bucket                   `json:"rating_distribution"`
	Interest    []stats.Bucket                   `json:"interest_distribution"`
	Correlation *float64                         `json:"rating_interest_correlation,omitempty"`
	Degraded    bool                             `json:"degraded"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics and distributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		ov, err := svc.Overview(cmd.Context())
		if err != nil {
			return err
		}
		ws := ov.Webtoons.Data
		resp := StatsResponse{
			Stats:    ov.Stats,
			Ratings:  stats.RatingBuckets(ws),
			Interest: stats.InterestBuckets(ws),
			Degraded: ov.Degraded,
		}
		if r, err := stats.RatingInterestCorrelation(ws); err == nil {
			resp.Correlation = &r
		}
		if !humanOutput {
			return outputJSON(resp)
		}

		st := ov.Stats.Data
		outputHuman("%s  [%s]\n", Brand.Sprint("Dashboard"), originBadge(ov.Stats.Origin))
		outputHuman("  webtoons      %d\n", st.TotalWebtoons)
		outputHuman("  avg rating    %.2f\n", st.AvgRating)
		outputHuman("  avg interest  %.0f\n", st.AvgInterest)
		outputHuman("  unique tags   %d\n", st.UniqueTags)
		if resp.Correlation != nil {
			outputHuman("  rating/interest correlation  %.3f\n", *resp.Correlation)
		}
		printBuckets("Rating", resp.Ratings)
		printBuckets("Interest", resp.Interest)
		return nil
	},
}

func printBuckets(title string, buckets []stats.Bucket) {
	top := 0.0
	for _, b := range buckets {
		top = max(top, float64(b.Count))
	}
	outputHuman("\n%s\n", Brand.Sprint(title))
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Label, fmt.Sprint(b.Count), bar(float64(b.Count), top)})
	}
	printTable([]string{"band", "count", ""}, rows)
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show the genre by demographic heatmap",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.Heatmap(cmd.Context())
		grid := stats.BuildGrid(res.Data)
		if !humanOutput {
			return outputJSON(dashboard.Result[stats.Grid]{Data: grid, Origin: res.Origin, FetchedAt: res.FetchedAt, Error: res.Error})
		}

		outputHuman("%s  [%s]\n", Brand.Sprint("Genre x demographic"), originBadge(res.Origin))
		headers := append([]string{""}, grid.Genres...)
		rows := make([][]string, 0, len(grid.Demographics))
		for y, demo := range grid.Demographics {
			row := []string{demo}
			for x := range grid.Genres {
				row = append(row, fmt.Sprint(grid.Counts[y][x]))
			}
			rows = append(rows, row)
		}
		printTable(headers, rows)
		return nil
	},
}

var webtoonsCmd = &cobra.Command{
	Use:   "webtoons",
	Short: "List webtoons",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.Webtoons(cmd.Context())
		if !humanOutput {
			return outputJSON(res)
		}
		outputHuman("%s  [%s]\n", Brand.Sprint("Webtoons"), originBadge(res.Origin))
		rows := make([][]string, 0, len(res.Data))
		for _, w := range res.Data {
			rows = append(rows, []string{
				fmt.Sprint(w.Rank), w.Title, fmt.Sprintf("%.2f", w.Rating),
				fmt.Sprint(w.InterestCount), stats.Tier(w.InterestCount), strings.Join(w.Tags, ", "),
			})
		}
		printTable([]string{"#", "title", "rating", "interest", "tier", "tags"}, rows)
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <title>",
	Short: "Recommend similar webtoons",
	Long: `Recommend webtoons similar to a title, combining tag overlap and
TF-IDF summary similarity.

Examples:
  tagnet recommend 화산귀환
  tagnet recommend "나 혼자만 레벨업" --limit 3 --no-tfidf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.Recommendations(cmd.Context(), api.RecommendationRequest{
			Title:       args[0],
			Limit:       recLimit,
			UseTFIDF:    !recNoTFIDF,
			TFIDFWeight: recTFIDFWeight,
		})
		if !humanOutput {
			return outputJSON(res)
		}

		outputHuman("%s %s  [%s]\n", Brand.Sprint("Similar to"), args[0], originBadge(res.Origin))
		if len(res.Data) == 0 {
			outputHuman("  no recommendations\n")
			return nil
		}
		rows := make([][]string, 0, len(res.Data))
		for _, r := range res.Data {
			rows = append(rows, []string{
				r.Title, fmt.Sprintf("%.0f%%", r.Similarity*100),
				fmt.Sprintf("%.2f", r.JaccardSimilarity), fmt.Sprintf("%.2f", r.TFIDFSimilarity),
				strings.Join(r.CommonTags, ", "),
			})
		}
		printTable([]string{"title", "match", "tags", "tf-idf", "common tags"}, rows)
		return nil
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords <text>",
	Short: "Extract keywords from a summary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.Keywords(cmd.Context(), strings.Join(args, " "), keywordsMax)
		if !humanOutput {
			return outputJSON(res)
		}
		outputHuman("%s  [%s]\n", Brand.Sprint("Keywords"), originBadge(res.Origin))
		if res.Error != "" && len(res.Data.Keywords) == 0 {
			outputHuman("  %s\n", Warn.Sprint("keyword extraction needs the backend"))
			return nil
		}
		rows := make([][]string, 0, len(res.Data.Keywords))
		for _, k := range res.Data.Keywords {
			rows = append(rows, []string{k.Keyword, fmt.Sprintf("%.3f", k.Score)})
		}
		printTable([]string{"keyword", "score"}, rows)
		return nil
	},
}

var tfidfCmd = &cobra.Command{
	Use:   "tfidf",
	Short: "Show corpus-wide TF-IDF keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.TFIDF(cmd.Context())
		if !humanOutput {
			return outputJSON(res)
		}
		a := res.Data
		outputHuman("%s  %d features, %d documents  [%s]\n", Brand.Sprint("TF-IDF"),
			a.TotalFeatures, a.TotalDocuments, originBadge(res.Origin))
		rows := make([][]string, 0, len(a.GlobalKeywords))
		for _, k := range a.GlobalKeywords {
			rows = append(rows, []string{fmt.Sprint(k.Rank), k.Keyword, fmt.Sprintf("%.3f", k.AvgScore)})
		}
		printTable([]string{"#", "keyword", "avg score"}, rows)
		return nil
	},
}

var similarityCmd = &cobra.Command{
	Use:   "similarity <title1> <title2>",
	Short: "Compare two webtoons",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.Similarity(cmd.Context(), args[0], args[1])
		if !humanOutput {
			return outputJSON(res)
		}
		s := res.Data
		outputHuman("%s  %s / %s  [%s]\n", Brand.Sprint("Similarity"), s.Title1, s.Title2, originBadge(res.Origin))
		outputHuman("  combined  %.3f\n", s.Similarity)
		outputHuman("  tags      %.3f\n", s.JaccardSimilarity)
		outputHuman("  tf-idf    %.3f\n", s.TFIDFSimilarity)
		if len(s.CommonTags) > 0 {
			outputHuman("  common    %s\n", strings.Join(s.CommonTags, ", "))
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn := newService()
		defer closeFn()

		res := svc.Health(cmd.Context())
		healthy := res.Origin == dashboard.OriginBackend && res.Data.Healthy()
		if !humanOutput {
			outputJSON(res)
		} else {
			icon := Bad.Sprint("✗")
			if healthy {
				icon = Good.Sprint("✓")
			}
			outputHuman("%s %s  %s\n", icon, newClient().BaseURLString(), res.Data.Status)
			if res.Error != "" {
				outputHuman("  %s\n", Subtle.Sprint(res.Error))
			}
		}
		if !healthy {
			os.Exit(ExitAPIError)
		}
		return nil
	},
}
