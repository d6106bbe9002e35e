package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yoockh/eslsheets/internal/profile"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the recognized profile fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tKIND\tSECTION")
		for _, f := range profile.Fields() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Kind, f.Section)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
