package main

import (
	"io"
	"net/url"

	"github.com/spf13/cobra"

	mkt "github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
)

func projectsCmd(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Browse the carbon project catalogue",
	}
	cmd.AddCommand(projectsSearchCmd(cc), projectsShowCmd(cc))
	return cmd
}

func projectsSearchCmd(cc *cliContext) *cobra.Command {
	var country, methodology, name string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search projects by country, methodology or name",
		Example: `  carbonchain projects search --country Kenya
  carbonchain projects search --methodology Forestry --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if country != "" {
				q.Set("country", country)
			}
			if methodology != "" {
				q.Set("methodology", methodology)
			}
			if name != "" {
				q.Set("name", name)
			}

			var res mkt.SearchResult
			if err := cc.api.get(cmd.Context(), "/search", q, &res); err != nil {
				return err
			}
			return cc.print(cmd, res, func(w io.Writer) {
				fprintf(w, "%d project(s)\n", res.ItemsCount)
				for _, p := range res.Items {
					fprintf(w, "%-12s %-40s %-12s $%.2f/t\n", p.Key, p.Name, p.Country, float64(p.Price))
				}
			})
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "country filter")
	cmd.Flags().StringVar(&methodology, "methodology", "", "methodology category filter")
	cmd.Flags().StringVar(&name, "name", "", "name filter")
	return cmd
}

func projectsShowCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show project detail and listed supply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p mkt.Project
			if err := cc.api.get(cmd.Context(), "/project/"+url.PathEscape(args[0]), nil, &p); err != nil {
				return err
			}
			return cc.print(cmd, p, func(w io.Writer) {
				fprintf(w, "%s  %s\n", p.Key, p.Name)
				fprintf(w, "country: %s  registry: %s  from $%.2f/t\n", p.Country, p.Registry, float64(p.Price))
				for _, pool := range p.Prices {
					fprintf(w, "  %-20s %-10s $%.2f/t  supply %.2f\n", pool.SourceID, pool.PoolName, float64(pool.PricePerTon), float64(pool.Supply))
				}
			})
		},
	}
}
