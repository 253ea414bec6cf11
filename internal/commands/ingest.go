package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/categorize"
	"github.com/insightdelivered/statement-pipeline/internal/config"
	"github.com/insightdelivered/statement-pipeline/internal/logger"
	"github.com/insightdelivered/statement-pipeline/internal/pipeline"
	"github.com/insightdelivered/statement-pipeline/internal/store"
)

func newIngestCommand() *cobra.Command {
	var userFlag string

	cmd := &cobra.Command{
		Use:   "ingest <input.pdf> [input2.pdf ...]",
		Short: "Parse statement PDFs and persist them to MongoDB",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user is required")
			}

			cfg := config.FromEnv()
			log := logger.New(cfg.LogLevel, true)

			connectCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			st, err := store.NewMongo(connectCtx, cfg.MongoURI, cfg.Database)
			cancel()
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = st.Close(closeCtx)
			}()

			ing := pipeline.New(bank.Default(), categorize.Default(), st, log)
			for _, input := range args {
				data, err := os.ReadFile(input)
				if err != nil {
					return fmt.Errorf("%s: %w", input, err)
				}
				result, err := ing.Ingest(cmd.Context(), userFlag, filepath.Base(input), data)
				if err != nil {
					return fmt.Errorf("%s: %w", input, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s statement %s, %d transactions\n",
					input, result.BankType, result.StatementID, result.TransactionsInserted)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
