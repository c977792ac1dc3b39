package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	auditmodels "store_audit/internal/api/audit/models"
	scoringsvc "store_audit/internal/api/scoring/service"
	"store_audit/internal/common"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

type scoreOptions struct {
	kpis    string
	survey  string
	catalog string
	asJSON  bool
}

func newScoreCmd() *cobra.Command {
	var o scoreOptions
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a survey fixture against a KPI tree without a database",
		Example: `  kpictl score --kpis kpis.yaml --survey survey.yaml
  kpictl score --kpis kpis.yaml --survey survey.yaml --catalog skus.yaml --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.kpis, "kpis", "", "KPI tree YAML file")
	cmd.Flags().StringVar(&o.survey, "survey", "", "survey YAML file")
	cmd.Flags().StringVar(&o.catalog, "catalog", "", "SKU catalog YAML file (required for SKU KPIs)")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the scored tree as JSON")
	_ = cmd.MarkFlagRequired("kpis")
	_ = cmd.MarkFlagRequired("survey")
	return cmd
}

func runScore(cmd *cobra.Command, o scoreOptions) error {
	kpis, err := loadKpis(o.kpis)
	if err != nil {
		return err
	}
	survey, err := loadSurvey(o.survey)
	if err != nil {
		return err
	}

	var catalog []auditmodels.Sku
	if scoringsvc.NeedsCatalog(kpis) {
		if o.catalog == "" {
			return common.Wrap(common.ErrMissingCatalog, o.kpis, fmt.Errorf("SKU KPIs need --catalog"))
		}
		if catalog, err = loadCatalog(o.catalog); err != nil {
			return err
		}
	}

	total, failures := scoringsvc.NewScorer(nil).Score(cmd.Context(), survey, kpis, catalog)
	out := cmd.OutOrStdout()

	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(total)
	}
	if err := printTree(out, &total); err != nil {
		return err
	}
	for _, f := range failures {
		failColor.Fprint(out, "✘ ")
		fmt.Fprintf(out, "%s (%s) left out: %v\n", f.Title, f.KpiID, f.Err)
	}
	return nil
}

// printTree renders the scored tree with one indented row per node.
func printTree(w io.Writer, root *auditmodels.ScoredNode) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"KPI", "Weight", "Obtained", "Possible", "Score"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var rows [][]string
	scoringsvc.Walk(root, func(n *auditmodels.ScoredNode, depth int) {
		rows = append(rows, []string{
			strings.Repeat("  ", depth) + n.Title,
			fmt.Sprintf("%g", n.Weight),
			fmt.Sprintf("%.2f", n.Points.Obtained),
			fmt.Sprintf("%.2f", n.Points.Possible),
			fmt.Sprintf("%.1f%%", n.Score*100),
		})
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
