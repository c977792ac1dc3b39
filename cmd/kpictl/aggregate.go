package main

import (
	"fmt"

	reportmodels "store_audit/internal/api/report/models"
	reportsvc "store_audit/internal/api/report/service"
	"store_audit/internal/common"
	"store_audit/internal/worker"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type aggregateOptions struct {
	company string
	month   string
	filter  reportmodels.SegmentFilter
}

func newAggregateCmd() *cobra.Command {
	var o aggregateOptions
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute one segment aggregate now",
		Long: `Aggregate merges every processed survey of the stores matching the segment in
the month and writes the result, exactly as the segment worker does. Omitted
dimensions are not filtered on.`,
		Example: "  kpictl aggregate --company 65f0c0ffee0000000000aaaa --month 2024-05 --region 65f0c0ffee0000000000bbbb",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAggregate(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.company, "company", "", "company ObjectID")
	cmd.Flags().StringVar(&o.month, "month", "", "month to recompute (YYYY-MM, default current)")
	cmd.Flags().StringVar(&o.filter.Channel, "channel", "", "channel ObjectID")
	cmd.Flags().StringVar(&o.filter.SubChannel, "sub-channel", "", "sub-channel ObjectID")
	cmd.Flags().StringVar(&o.filter.Region, "region", "", "region ObjectID")
	cmd.Flags().StringVar(&o.filter.SubRegion, "sub-region", "", "sub-region ObjectID")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func runAggregate(cmd *cobra.Command, o aggregateOptions) error {
	companyID, err := primitive.ObjectIDFromHex(o.company)
	if err != nil {
		return common.Wrap(common.ErrInvalidJob, "company", err)
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close(ctx)

	req := reportsvc.AggregateRequest{CompanyID: companyID, Filter: o.filter}
	if o.month != "" {
		if req.From, req.To, err = reportsvc.MonthWindow(o.month, b.loc); err != nil {
			return err
		}
	}
	join, err := reportsvc.ParseJoinPolicy(b.cfg.AggregateJoinKey)
	if err != nil {
		return err
	}

	repo, release, err := worker.PoolAggregateRepos(b.pool)(ctx, o.company)
	if err != nil {
		return err
	}
	defer release()
	agg, err := reportsvc.NewAggregateProcessor(join, b.cfg.AggregatePageSize, b.loc, nil).Aggregate(ctx, repo, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	okColor.Fprint(out, "✔ ")
	fmt.Fprintf(out, "%s %s: %d store(s), %d survey(s), score %.1f%%\n",
		agg.QueryHash, agg.SurveyedMonth, agg.StoreCount, agg.SurveyCount, agg.Result.Score*100)
	return printTree(out, &agg.Result)
}
