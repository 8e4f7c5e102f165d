package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"trebodeluxe/internal/catalog"
	"trebodeluxe/pkg/baseurl"
)

func newCategoriesCmd(o *options) *cobra.Command {
	var apiURL, query string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Check that the backend serves product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				apiURL = o.cfg.Resolver().APIURL(baseurl.ServerContext())
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			checker := catalog.NewChecker(&http.Client{Timeout: o.timeout})
			res, err := checker.Check(ctx, apiURL, query)
			o.log.Infow("categories check", "url", res.URL, "status", res.Status, "count", res.Count, "ms", res.LatencyMS)
			if rerr := render(cmd.OutOrStdout(), o.output, res); rerr != nil {
				return rerr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (default: resolved server-side URL)")
	cmd.Flags().StringVar(&query, "query", "", "JMESPath expression evaluated on the response body")
	return cmd
}
