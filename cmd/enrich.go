package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/company-finder/internal/model"
)

var (
	enrichIn      string
	enrichCountry string
	enrichFormat  string
	enrichOut     string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill in missing details for a list of companies",
	Long:  "Reads companies from a JSON, YAML or XLSX file (such as discover output), visits each website or searches for it, and fills empty fields.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		companies, err := readCompanies(enrichIn)
		if err != nil {
			return err
		}

		env, err := initFinder(ctx, cfg, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Enricher.Enrich(ctx, model.EnrichRequest{
			Companies: companies,
			Country:   enrichCountry,
		})
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		zap.L().Info("enrich complete",
			zap.Int("input", len(companies)),
			zap.Int("companies", resp.TotalCompanies),
		)

		return writeResponse(os.Stdout, enrichOut, resolveFormat(enrichFormat, enrichOut), *resp)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichIn, "in", "", "input file (.json, .yaml or .xlsx)")
	enrichCmd.Flags().StringVar(&enrichCountry, "country", "", "country used when searching for a company website")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", "", "output format: json, yaml or xlsx (default from --out extension)")
	enrichCmd.Flags().StringVarP(&enrichOut, "out", "o", "", "output file (default stdout)")
	_ = enrichCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(enrichCmd)
}
