package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/poi"
)

var poiFlags struct {
	address string
	lat     float64
	lng     float64
	radius  float64
}

var poiCmd = &cobra.Command{
	Use:   "poi",
	Short: "Survey POI categories around an address or coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		lat, lng := poiFlags.lat, poiFlags.lng
		if poiFlags.address != "" {
			g, err := env.Geocoder.Geocode(cmd.Context(), poiFlags.address)
			if err != nil {
				return err
			}
			lat, lng = g.Latitude, g.Longitude
		} else if lat == 0 && lng == 0 {
			return eris.New("either --address or --lat/--lng is required")
		}

		radius := poiFlags.radius
		if radius <= 0 {
			radius = cfg.POI.DefaultRadiusM
		}

		records, err := env.Store.Within(cmd.Context(), lat, lng, radius)
		if err != nil {
			return err
		}
		survey := poi.NewAggregator(nil, cfg.POI.TopNPerGroup).Survey(lat, lng, radius, records)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(survey)
	},
}

var poiImportFile string

var poiImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a JSON-lines POI dump into the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if poiImportFile != "" && poiImportFile != "-" {
			f, err := os.Open(poiImportFile)
			if err != nil {
				return eris.Wrapf(err, "open dump %s", poiImportFile)
			}
			defer f.Close()
			in = f
		}

		records, err := poi.ReadDump(in)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		switch cfg.POI.Driver {
		case "sqlite":
			_, err = poi.ImportSQLite(ctx, cfg.POI.Path, records)
			return err
		case "postgres":
			st, err := poi.NewPostgres(ctx, cfg.POI.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			_, err = st.Load(ctx, records)
			return err
		default:
			return eris.Errorf("unknown poi driver %q", cfg.POI.Driver)
		}
	},
}

func init() {
	poiCmd.Flags().StringVar(&poiFlags.address, "address", "", "address to survey")
	poiCmd.Flags().Float64Var(&poiFlags.lat, "lat", 0, "latitude (with --lng)")
	poiCmd.Flags().Float64Var(&poiFlags.lng, "lng", 0, "longitude (with --lat)")
	poiCmd.Flags().Float64Var(&poiFlags.radius, "radius", 0, "survey radius in meters (default from config)")
	poiImportCmd.Flags().StringVar(&poiImportFile, "file", "", "dump file to load (default stdin)")
	poiCmd.AddCommand(poiImportCmd)
	rootCmd.AddCommand(poiCmd)
}
