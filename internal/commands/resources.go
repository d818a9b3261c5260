package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/resource"
)

func (c *CLI) newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "列出受管资源及其缓存策略",
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tAUTH\tSTALE\tDESCRIPTION")
			for _, meta := range resource.List() {
				stale := "global"
				if meta.DefaultStaleTime > 0 {
					stale = meta.DefaultStaleTime.String()
				}
				auth := "-"
				if meta.RequiresAuth {
					auth = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", meta.Key, auth, stale, meta.Description)
			}
			w.Flush()
		},
	}
}
