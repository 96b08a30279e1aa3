package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roody/paperscout/internal/aggregate"
	"github.com/roody/paperscout/internal/app"
	"github.com/roody/paperscout/internal/config"
	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/export"
	"github.com/roody/paperscout/internal/observability"
	"github.com/roody/paperscout/internal/rank"
	"github.com/roody/paperscout/internal/sources"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the configured sources for papers",
	Long: `Search fans the query out to every enabled source, retries transient
failures, and prints the merged results. Failed sources are reported on
stderr without failing the search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSlice("sources", nil, "sources to query (default: all enabled)")
	searchCmd.Flags().Int("max-results", 0, "maximum results per source")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().String("sort", "relevance", "sort order: relevance, date, citations")
	searchCmd.Flags().Bool("asc", false, "sort ascending instead of descending")
	searchCmd.Flags().Bool("dedupe", false, "merge cross-source duplicates")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("output", "", "write results to a .csv or .xlsx file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The CLI logs warnings only; progress goes to stderr directly.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	})

	req := aggregate.Request{Query: strings.Join(args, " ")}

	if names, _ := cmd.Flags().GetStringSlice("sources"); len(names) > 0 {
		for _, name := range names {
			st, ok := domain.ParseSourceType(name)
			if !ok {
				return fmt.Errorf("unknown source: %s", name)
			}
			req.Sources = append(req.Sources, st)
		}
	}
	req.MaxResults, _ = cmd.Flags().GetInt("max-results")
	req.Deduplicate, _ = cmd.Flags().GetBool("dedupe")

	for _, p := range []struct {
		flag string
		dst  **time.Time
	}{
		{"from", &req.DateFrom},
		{"to", &req.DateTo},
	} {
		if raw, _ := cmd.Flags().GetString(p.flag); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Errorf("invalid --%s (want YYYY-MM-DD): %s", p.flag, raw)
			}
			*p.dst = &t
		}
	}

	registry := app.BuildRegistry(cfg, sources.NewIdentityPool(cfg.Politeness.UserAgents))
	aggregator := app.BuildAggregator(cfg, registry, logger, nil)

	result, err := aggregator.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	sortName, _ := cmd.Flags().GetString("sort")
	ascending, _ := cmd.Flags().GetBool("asc")
	result.Papers = rank.Apply(result.Papers, rank.Options{
		SortBy:    rank.ParseSortKey(sortName),
		Ascending: ascending,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
	})

	reportSourceStatuses(result)

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return writeOutputFile(path, result.Papers)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printPapers(result.Papers)
	return nil
}

// reportSourceStatuses summarizes each source's outcome on stderr.
func reportSourceStatuses(result *domain.AggregateResult) {
	for i := range result.Results {
		r := &result.Results[i]
		switch r.Status {
		case domain.StatusSuccess:
			fmt.Fprintf(os.Stderr, "%-16s %d papers (%.1fs)\n",
				r.Source.DisplayName(), len(r.Papers), r.Elapsed.Seconds())
		case domain.StatusPartialFailure:
			fmt.Fprintf(os.Stderr, "%-16s %d papers, %d dropped\n",
				r.Source.DisplayName(), len(r.Papers), r.Dropped)
		case domain.StatusFailure:
			fmt.Fprintf(os.Stderr, "%-16s failed after %d attempts: %s\n",
				r.Source.DisplayName(), r.Attempts, r.ErrorClass)
		}
	}
	if result.AllFailed() {
		fmt.Fprintln(os.Stderr, "all sources failed")
	}
}

// writeOutputFile exports the papers to a CSV or XLSX file by extension.
func writeOutputFile(path string, papers []domain.Paper) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".csv"):
		err = export.WriteCSV(f, papers)
	case strings.HasSuffix(path, ".xlsx"):
		err = export.WriteXLSX(f, papers)
	default:
		return fmt.Errorf("unsupported output extension (want .csv or .xlsx): %s", path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d papers to %s\n", len(papers), path)
	return nil
}

// printPapers renders a compact listing to stdout.
func printPapers(papers []domain.Paper) {
	if len(papers) == 0 {
		fmt.Println("no papers found")
		return
	}
	for i := range papers {
		p := &papers[i]
		fmt.Printf("%d. %s\n", i+1, p.Title)
		if len(p.Authors) > 0 {
			fmt.Printf("   %s\n", strings.Join(p.Authors, ", "))
		}
		meta := []string{p.Source.DisplayName()}
		if p.HasDate() {
			meta = append(meta, p.PublicationDate.Format("2006-01-02"))
		} else if p.PublicationRaw != "" {
			meta = append(meta, p.PublicationRaw)
		}
		if p.HasCitations() {
			meta = append(meta, fmt.Sprintf("cited by %d", p.CitationCount))
		}
		fmt.Printf("   %s\n", strings.Join(meta, " | "))
		if p.URL != "" {
			fmt.Printf("   %s\n", p.URL)
		}
		fmt.Println()
	}
}
