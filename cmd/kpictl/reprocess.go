package main

import (
	"fmt"

	surveysvc "store_audit/internal/api/survey/service"
	"store_audit/internal/queue"

	"github.com/spf13/cobra"
)

func newReprocessCmd() *cobra.Command {
	var company, month string
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Re-enqueue every survey of a company",
		Long: `Reprocess publishes one survey-processing job per survey of the company to the
survey topic. With --month only surveys added in that calendar month are sent.`,
		Example: "  kpictl reprocess --company 65f0c0ffee0000000000aaaa --month 2024-05",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.Close(ctx)

			producer := queue.NewProducer(b.cfg.Brokers(), b.cfg.Kafka_SurveyTopic)
			defer producer.Close()

			n, err := surveysvc.NewReprocessor(surveysvc.NewPoolTenants(b.pool), producer, b.loc).Reprocess(ctx, company, month)
			if err != nil {
				return err
			}
			okColor.Fprint(cmd.OutOrStdout(), "✔ ")
			fmt.Fprintf(cmd.OutOrStdout(), "%d job(s) published to %s\n", n, b.cfg.Kafka_SurveyTopic)
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company ObjectID")
	cmd.Flags().StringVar(&month, "month", "", "limit to surveys added in this month (YYYY-MM)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
