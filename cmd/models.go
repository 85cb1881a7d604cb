package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/registry"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the survival model artifacts",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported forecast horizons",
	Run: func(cmd *cobra.Command, args []string) {
		for _, y := range registry.SupportedYears {
			fmt.Printf("%d years\t%s\n", y, registry.ArtifactFile(y))
		}
	},
}

var modelsWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Load every horizon's artifact and report its shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(cfg.Models.Dir)

		g, ctx := errgroup.WithContext(cmd.Context())
		for _, year := range registry.SupportedYears {
			g.Go(func() error {
				a, err := reg.Get(ctx, year)
				if err != nil {
					return err
				}
				zap.L().Info("artifact ready",
					zap.Int("year", year),
					zap.Int("features", len(a.Features)),
					zap.Int("trees", len(a.Model.Trees)),
					zap.Int("districts", len(a.DistrictMap)),
					zap.Float64("threshold", a.Threshold),
				)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsWarmCmd)
	rootCmd.AddCommand(modelsCmd)
}
