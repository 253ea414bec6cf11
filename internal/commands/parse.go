package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/categorize"
	"github.com/insightdelivered/statement-pipeline/internal/export"
	"github.com/insightdelivered/statement-pipeline/internal/extractor"
	"github.com/insightdelivered/statement-pipeline/internal/models"
	"github.com/insightdelivered/statement-pipeline/internal/normalize"
)

func newParseCommand() *cobra.Command {
	var bankFlag string
	var outputFlag string
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "parse <input.pdf> [input2.pdf ...]",
		Short: "Convert statement PDFs to CSV or XLSX without persisting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, input := range args {
				if err := runParse(cmd, input, bankFlag, outputFlag, formatFlag); err != nil {
					return fmt.Errorf("%s: %w", input, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bankFlag, "bank", "", "bank code: SBI, HDFC, BOI, CBI, UNION, AXIS (auto-detected if omitted)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output file path (defaults to input name with new extension)")
	cmd.Flags().StringVar(&formatFlag, "format", "csv", "output format: csv or xlsx")

	return cmd
}

func runParse(cmd *cobra.Command, inputPath, bankFlag, outputPath, format string) error {
	if strings.ToLower(filepath.Ext(inputPath)) != ".pdf" {
		return fmt.Errorf("expected a .pdf file, got %q", filepath.Ext(inputPath))
	}

	pages, err := extractor.ExtractText(cmd.Context(), inputPath)
	if err != nil {
		return err
	}

	registry := bank.Default()
	var adapter bank.Adapter
	if bankFlag != "" {
		bankType, err := models.ParseBankType(bankFlag)
		if err != nil {
			return err
		}
		adapter = registry.Get(bankType)
		if adapter == nil {
			return fmt.Errorf("no adapter registered for %s", bankType)
		}
	} else {
		adapter, err = registry.Detect(pages)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "detected bank: %s\n", adapter.Bank())
	}

	raw, err := adapter.Parse(pages)
	if err != nil {
		return err
	}
	stmt, txns, err := normalize.Statement(raw)
	if err != nil {
		return err
	}
	stmt.FileName = filepath.Base(inputPath)
	categorize.Default().Apply(txns)

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + format
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "csv":
		w := &export.CSVWriter{IncludeMetadata: true}
		if err := w.Write(f, stmt, txns); err != nil {
			return err
		}
	case "xlsx":
		w := &export.XLSXWriter{}
		if err := w.Write(f, stmt, txns); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q, use csv or xlsx", format)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d transactions -> %s\n", stmt.BankType, len(txns), outputPath)
	return nil
}

func newBanksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List supported banks",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, b := range models.AllBanks {
				fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}
