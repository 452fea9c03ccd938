package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/adapters/legacy"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import portfolios exported from the legacy document store",
		Long: "Reads a JSON array or newline-delimited JSON of legacy portfolio documents,\n" +
			"validates each one and upserts it by owner. Invalid documents are reported and skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			appLogger := logger.NewZapLogger(cfg.App.Env)
			defer appLogger.Sync()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			docs, err := legacy.ReadDocuments(f)
			if err != nil {
				return err
			}

			repo, closeRepo, err := openRepository(cfg, appLogger)
			if err != nil {
				return fmt.Errorf("cannot open portfolio store: %w", err)
			}
			defer closeRepo()

			out, err := portfolioUC.NewImportDocumentsUseCase(repo, appLogger).Execute(cmd.Context(), docs)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "imported %d of %d documents\n", out.Imported, len(docs))
			for _, s := range out.Skipped {
				fmt.Fprintf(w, "  skipped line %d (owner %q): %s\n", s.Line, s.OwnerID, s.Message)
			}
			return nil
		},
	}
}
