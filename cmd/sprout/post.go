package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/memohai/sprout/internal/poster"
)

func newPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Run one growth report and exit",
		Long:  "Runs the same report as GET /post once, for use from an external timer.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var svc *poster.Service
			app := fx.New(coreOptions(), fx.Populate(&svc))
			if err := app.Err(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				_ = app.Stop(context.Background())
			}()

			result, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			if result != poster.ResultOK {
				return fmt.Errorf("post finished with %s", result)
			}
			return nil
		},
	}
}
