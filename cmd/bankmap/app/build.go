package app

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bankgreen/bankmap/internal/output"
	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/dataset"
	"github.com/bankgreen/bankmap/pkg/errors"
)

// NewBuildCommand creates the build command.
func (a *App) NewBuildCommand() *cobra.Command {
	var (
		format string
		out    string
		stats  bool
		prov   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Ingest every source and print the canonical dataset",
		Example: `  bankmap build
  bankmap build --format csv --out banks.csv
  bankmap build --stats
  bankmap build --provenance-out file:///tmp/provenance.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			bm, err := a.Bankmap()
			if err != nil {
				return err
			}
			b, err := bm.Build(cmd.Context())
			if err != nil {
				return err
			}

			w := a.out
			if out != "" {
				file, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
				if err != nil {
					return errors.WrapIO("create", out, err)
				}
				defer file.Close()
				w = file
				if f == "" {
					f = output.FormatCSV
				}
			} else if f == "" {
				f = output.DetectFormat("")
			}

			if prov != "" {
				if err := a.saveProvenance(cmd.Context(), prov, provenanceOf(b)); err != nil {
					return err
				}
			}

			if stats {
				if err := output.NewFormatter(output.FormatTable).Format(a.out, stagesView(b.Pipeline.Stages)); err != nil {
					return err
				}
			}
			return writeRows(w, f, b.Rows)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "", "output format: table, json, yaml, csv")
	cmd.Flags().StringVar(&out, "out", "", "write the dataset to a file instead of stdout (csv unless --format is set)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print per-source ingestion counts first")
	cmd.Flags().StringVar(&prov, "provenance-out", "", "write field provenance to this URL")
	return cmd
}

func writeRows(w io.Writer, f output.Format, rows []dataset.Row) error {
	var data any
	switch f {
	case output.FormatTable:
		data = summaryView(rows)
	case output.FormatCSV:
		data = datasetView(rows)
	default:
		data = rows
	}
	return output.NewFormatter(f).Format(w, data)
}
