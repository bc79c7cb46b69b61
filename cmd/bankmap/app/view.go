package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/bankgreen/bankmap/internal/output"
	"github.com/bankgreen/bankmap/pkg/dataset"
	"github.com/bankgreen/bankmap/pkg/pipeline"
)

// datasetView lays out the full export, one column per store field.
type datasetView []dataset.Row

// Table implements output.Tabular.
func (v datasetView) Table() output.Data {
	return output.Data{
		Headers: dataset.Columns(),
		Rows:    dataset.Records(v),
	}
}

// summaryView is the terminal-friendly subset of datasetView.
type summaryView []dataset.Row

// Table implements output.Tabular.
func (v summaryView) Table() output.Data {
	data := output.Data{
		Headers: []string{"Tag", "Name", "Country", "Rating", "Subsidiary Of", "Sources"},
	}
	for _, r := range v {
		data.Rows = append(data.Rows, []string{
			r.Tag,
			r.Name,
			strings.Join(r.Countries, ", "),
			string(r.Rating),
			r.SubsidiaryOf,
			strings.Join(r.DataSources, ", "),
		})
	}
	return data
}

// stagesView reports per-source ingestion counts.
type stagesView []pipeline.StageResult

// Table implements output.Tabular.
func (v stagesView) Table() output.Data {
	data := output.Data{
		Headers:    []string{"Source", "Phase", "Read", "Registered", "Skipped", "Linked", "Elapsed"},
		RightAlign: []int{2, 3, 4, 5},
	}
	for _, s := range v {
		data.Rows = append(data.Rows, []string{
			s.Source.String(),
			s.Phase.String(),
			strconv.Itoa(s.Stats.Read),
			strconv.Itoa(s.Stats.Registered),
			strconv.Itoa(s.Stats.Skipped),
			strconv.Itoa(s.Stats.Linked),
			s.Elapsed.Round(time.Millisecond).String(),
		})
	}
	return data
}
