package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/gabrielcapilla/focusguard/internal/services/discovery"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites [hostname]",
	Short: "List site adapters or resolve the adapter for a hostname",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		site, ok := discovery.Resolve(cfg.Sites, args[0])
		if !ok {
			return fmt.Errorf("%w: %q", discovery.ErrUnknownSite, args[0])
		}
		fmt.Fprintf(out, "%s\t%s\n", site.Name, site.PlayerSelector)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMATCH\tPLAYER")
	for _, site := range cfg.Sites {
		fmt.Fprintf(w, "%s\t%s\t%s\n", site.Name, site.Match, site.PlayerSelector)
	}
	return w.Flush()
}
