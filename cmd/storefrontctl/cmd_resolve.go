package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trebodeluxe/pkg/baseurl"
)

func newResolveCmd(o *options) *cobra.Command {
	var browserOrigin string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the API and site URLs the storefront would use",
		Long: `Print the resolved backend API URL and frontend origin.

Without flags the server-side context is used. --browser-origin resolves as a
browser page loaded from that origin would (e.g. http://localhost:3000).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := baseurl.ServerContext()
			if browserOrigin != "" {
				loc, ok := baseurl.LocationFromOrigin(browserOrigin)
				if !ok {
					return fmt.Errorf("invalid --browser-origin %q", browserOrigin)
				}
				ctx = baseurl.BrowserContext(loc)
			}
			res := o.cfg.Resolver().Resolve(ctx)
			o.log.Debugw("resolved", "api", res.APIURL, "site", res.SiteURL, "context", res.Context)
			return render(cmd.OutOrStdout(), o.output, res)
		},
	}
	cmd.Flags().StringVar(&browserOrigin, "browser-origin", "", "Resolve for a browser page at this origin")
	return cmd
}
