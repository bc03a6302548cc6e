package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Storefront/internal/catalog"
)

func newCatalogCmd(f *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load the product catalog once and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			content, closeContent, err := openContent(cmd.Context(), cfg.Content)
			if err != nil {
				return err
			}
			defer closeContent()

			res := catalog.NewLoader(content, log, nil).Load(cmd.Context())
			if res.State == catalog.StateCanceled {
				return cmd.Context().Err()
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else if err := printCards(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			if res.State == catalog.StateFailed {
				return errors.New(res.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the load result as JSON")
	return cmd
}

func printCards(w io.Writer, res catalog.Result) error {
	if !res.Ready() {
		_, err := fmt.Fprintln(w, res.Message)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tNEW\tDISCOUNT")
	for _, c := range catalog.Cards(res.Products) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", c.ID, c.Title, c.PriceLabel, c.IsNew, c.DiscountLabel)
	}
	return tw.Flush()
}
