package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bassista/go_discover/internal/interest"
)

func newWeightsCmd(c *cli) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Print the interest profile, heaviest tags first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := loadStore(c.cfg.Data.TagsFilePath)
			return printWeights(cmd.OutOrStdout(), store, top)
		},
	}
	cmd.Flags().IntVar(&top, "top", 20, "number of tags to print (0 for all)")
	return cmd
}

func printWeights(out io.Writer, store *interest.Store, top int) error {
	if top < 0 {
		return fmt.Errorf("--top must not be negative, got %d", top)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tCOUNT\tWEIGHT")
	for _, w := range store.TopWeights(top) {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\n", w.Tag, w.Count, w.Weight)
	}
	fmt.Fprintf(tw, "\t%d\t\n", store.Total())
	return tw.Flush()
}
