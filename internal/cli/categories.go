package cli

import (
	"fmt"
	"provider-finder/internal/specialty"

	"github.com/spf13/cobra"
)

func newCategoriesCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the specialty categories present in the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := specialty.Labels()
			if !all {
				svc, closeCache, err := a.buildService()
				if err != nil {
					return err
				}
				defer closeCache()
				labels = svc.Categories()
			}
			for _, l := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every known category without loading the directory")
	return cmd
}
