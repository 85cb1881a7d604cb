package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/model"
)

var predictFlags struct {
	address  string
	asset    string
	industry string
	year     string
	radius   string
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run one survival prediction and print the JSON result",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Predictor.Predict(cmd.Context(), model.PredictionRequest{
			Address:    predictFlags.address,
			TotalAsset: model.StringOrNumber(predictFlags.asset),
			Industry:   predictFlags.industry,
			ModelYear:  model.StringOrNumber(predictFlags.year),
			RadiusM:    model.StringOrNumber(predictFlags.radius),
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictFlags.address, "address", "", "street address (required)")
	predictCmd.Flags().StringVar(&predictFlags.asset, "asset", "", "total asset value (required)")
	predictCmd.Flags().StringVar(&predictFlags.industry, "industry", "", "industry key, e.g. industry_飲料店業 (required)")
	predictCmd.Flags().StringVar(&predictFlags.year, "year", "5", "forecast horizon in years (3/5/7/10/15)")
	predictCmd.Flags().StringVar(&predictFlags.radius, "radius", "", "survey radius in meters (default 500)")
	_ = predictCmd.MarkFlagRequired("address")
	_ = predictCmd.MarkFlagRequired("asset")
	_ = predictCmd.MarkFlagRequired("industry")
	rootCmd.AddCommand(predictCmd)
}
