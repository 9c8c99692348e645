package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"provider-finder/internal/excel"
	"provider-finder/internal/finder"
	"provider-finder/internal/models"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type searchOptions struct {
	address    string
	name       string
	categories []string
	lat, lon   float64
	limit      int
	maxMiles   float64
	json       bool
	out        string
}

func newSearchCommand(a *app) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the directory once and print the results",
		Example: `  provider-finder search --data providers.xlsx --address "1 Main St, Springfield" --category Chiro
  provider-finder search --name clinic --limit 5 --json
  provider-finder search --lat 40.0 --lon -75.0 --out nearest.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("lat") != f.Changed("lon") {
				return fmt.Errorf("%w: --lat and --lon must be given together", finder.ErrInvalidQuery)
			}
			req := finder.Request{
				Name:       opts.name,
				Categories: opts.categories,
				Address:    opts.address,
				Limit:      a.cfg.Search.DefaultLimit,
				MaxMiles:   opts.maxMiles,
			}
			if f.Changed("limit") {
				req.Limit = opts.limit
			}
			if f.Changed("lat") {
				req.Location = &models.Coordinate{Lat: opts.lat, Lon: opts.lon}
			}
			return a.runSearch(cmd.Context(), cmd.OutOrStdout(), req, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.address, "address", "", "address to rank providers by distance from")
	f.StringVar(&opts.name, "name", "", "case-insensitive substring of the provider name")
	f.StringSliceVar(&opts.categories, "category", nil, "specialty category, repeatable or comma-separated")
	f.Float64Var(&opts.lat, "lat", 0, "latitude to rank from instead of geocoding --address")
	f.Float64Var(&opts.lon, "lon", 0, "longitude to rank from instead of geocoding --address")
	f.IntVar(&opts.limit, "limit", 20, "maximum number of results")
	f.Float64Var(&opts.maxMiles, "max-miles", 0, "drop results further than this many miles (0 disables)")
	f.BoolVar(&opts.json, "json", false, "print the result set as JSON")
	f.StringVar(&opts.out, "out", "", "also write the results to this xlsx file")
	return cmd
}

func (a *app) runSearch(ctx context.Context, w io.Writer, req finder.Request, opts searchOptions) error {
	svc, closeCache, err := a.buildService()
	if err != nil {
		return err
	}
	defer closeCache()

	if ctx == nil {
		ctx = context.Background()
	}
	rs, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	if opts.out != "" {
		if err := writeWorkbook(opts.out, rs); err != nil {
			return err
		}
		a.log.Info("results written", "path", opts.out, "rows", rs.Len())
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rs)
	}
	return printResults(w, rs)
}

func writeWorkbook(path string, rs *models.ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := excel.WriteResults(f, rs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printResults(w io.Writer, rs *models.ResultSet) error {
	fmt.Fprintln(w, rs.Message)
	if rs.GeocodeError != "" {
		fmt.Fprintf(w, "geocoding: %s\n", rs.GeocodeError)
	}
	if rs.Len() == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROVIDER\tDISTANCE\tGROUPS\tADDRESS")
	for i, r := range rs.Results {
		dist := "-"
		if r.DistanceMiles != nil {
			dist = fmt.Sprintf("%.2f mi", *r.DistanceMiles)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, r.Name, dist, strings.Join(r.Groups, ", "), r.Address)
	}
	if rs.Total > rs.Len() {
		fmt.Fprintf(tw, "\t(%d more not shown)\t\t\t\n", rs.Total-rs.Len())
	}
	return tw.Flush()
}
