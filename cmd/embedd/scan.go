package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"embedd/internal/registry"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan DIR",
		Short: "List model artifacts found in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := registry.Scan(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tDIM\tMAX_SEQ\tPATH")
			for _, d := range found {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", d.Name, d.Kind, d.Dimension, d.MaxSequenceLength, d.ModelPath)
			}
			return tw.Flush()
		},
	}
}
