package main

import (
	"github.com/spf13/cobra"

	"trebodeluxe/internal/linedump"
)

func newLinesCmd(o *options) *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "lines FILE",
		Short: "Print a range of lines with tabs, trailing spaces and CRs made visible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := linedump.ReadFile(args[0], linedump.Range{From: from, To: to})
			if err != nil {
				return err
			}
			o.log.Debugw("lines", "file", args[0], "count", len(lines))
			return linedump.Write(cmd.OutOrStdout(), lines)
		},
	}
	cmd.Flags().IntVar(&from, "from", 1, "First line (1-based)")
	cmd.Flags().IntVar(&to, "to", 0, "Last line, inclusive (0 = end of file)")
	return cmd
}
