package main

import (
	"errors"
	"fmt"

	scoringsvc "store_audit/internal/api/scoring/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

func newValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a KPI tree before it is stored",
		Long: `Validate checks every rule the scorer relies on: from is questions or skus,
SKU KPIs declare sku_mode, condition operators are supported, a sub-KPI never
outweighs its parent, POC sub-KPIs list poc_ids, and the tree is not too deep.`,
		Example: "  kpictl validate -f kpis.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kpis, err := loadKpis(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			err = scoringsvc.ValidateDefinitions(kpis)
			var verr *scoringsvc.ValidationError
			if errors.As(err, &verr) {
				for _, is := range verr.Issues {
					failColor.Fprint(out, "✘ ")
					fmt.Fprintf(out, "%s ", is.Path)
					dimColor.Fprintln(out, is.Message)
				}
				return fmt.Errorf("%s: %d issue(s)", file, len(verr.Issues))
			}
			if err != nil {
				return err
			}
			okColor.Fprint(out, "✔ ")
			fmt.Fprintf(out, "%s: %d top-level KPI(s) valid\n", file, len(kpis))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "KPI tree YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
