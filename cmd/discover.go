package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/model"
)

var (
	discoverLimit    int
	discoverCountry  string
	discoverMaxDepth int
	discoverFormat   string
	discoverOut      string
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Find companies matching a category and location",
	Long:  `Searches for listing pages matching the query (e.g. "plumbers in Austin"), crawls the relevant ones and prints the deduplicated companies.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if discoverMaxDepth > 0 {
			cfg.Crawl.MaxDepth = discoverMaxDepth
		}
		env, err := initFinder(ctx, cfg, "discover")
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.SearchRequest{
			Query:   strings.Join(args, " "),
			Limit:   discoverLimit,
			Country: discoverCountry,
		}

		res, err := env.Orchestrator.Discover(ctx, req)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		if res.SearchErr != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", res.SearchErr)
		}
		zap.L().Info("discover complete",
			zap.String("run_id", res.RunID),
			zap.Int("companies", res.Response.TotalCompanies),
			zap.Int("seeds", len(res.Statuses)),
		)
		printStatuses(res.Statuses)

		return writeResponse(os.Stdout, discoverOut, resolveFormat(discoverFormat, discoverOut), res.Response)
	},
}

// printStatuses summarizes per-seed outcomes on stderr.
func printStatuses(statuses []model.CrawlStatus) {
	for _, s := range statuses {
		line := fmt.Sprintf("%-9s %4d  %s", s.Status, s.CompaniesFound, s.URL)
		if s.Message != "" {
			line += "  (" + s.Message + ")"
		}
		fmt.Fprintln(os.Stderr, line)
	}
}

func init() {
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", model.DefaultLimit, "maximum number of companies to return")
	discoverCmd.Flags().StringVar(&discoverCountry, "country", "", "country name or ISO code to bias search")
	discoverCmd.Flags().IntVar(&discoverMaxDepth, "max-depth", 0, "pages to follow per listing (default from config)")
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "", "output format: json, yaml or xlsx (default from --out extension)")
	discoverCmd.Flags().StringVarP(&discoverOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(discoverCmd)
}
