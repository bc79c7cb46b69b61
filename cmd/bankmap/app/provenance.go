package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bankgreen/bankmap"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/provenance"
)

// NewProvenanceCommand creates the provenance command.
func (a *App) NewProvenanceCommand() *cobra.Command {
	var (
		save string
		from string
	)

	cmd := &cobra.Command{
		Use:   "provenance [tag...]",
		Short: "Show which source supplied each derived bank field",
		Example: `  bankmap provenance
  bankmap provenance atom triodos
  bankmap provenance --save file:///tmp/provenance.yaml
  bankmap provenance --from file:///tmp/provenance.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var m provenance.Map
			if from != "" {
				pf, err := provenance.Load(ctx, from)
				if err != nil {
					return err
				}
				if pf == nil {
					return errors.NewNotFoundError("provenance", from)
				}
				m = pf.Provenance
			} else {
				bm, err := a.Bankmap()
				if err != nil {
					return err
				}
				b, err := bm.Build(ctx)
				if err != nil {
					return err
				}
				m = provenanceOf(b)
			}

			if save != "" {
				if err := a.saveProvenance(ctx, save, m); err != nil {
					return err
				}
			}

			report := provenance.GenerateReport(m)
			if len(args) > 0 {
				report = report.Only(args...)
			}
			fmt.Fprint(a.out, report.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "also write the provenance document to this URL")
	cmd.Flags().StringVar(&from, "from", "", "report on a saved provenance document instead of building")
	cmd.MarkFlagsMutuallyExclusive("save", "from")
	return cmd
}

// provenanceOf returns the build's field provenance, collecting it from
// the registry when the build ran without tracking.
func provenanceOf(b *bankmap.Build) provenance.Map {
	if b.Provenance != nil {
		return b.Provenance
	}
	return provenance.Collect(b.Registry.Banks())
}

func (a *App) saveProvenance(ctx context.Context, url string, m provenance.Map) error {
	if err := provenance.Save(ctx, url, m); err != nil {
		return err
	}
	a.logger.Info().Str("url", url).Int("entries", len(m)).Msg("Saved provenance")
	return nil
}
