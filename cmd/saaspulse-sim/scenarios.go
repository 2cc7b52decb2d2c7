package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"saaspulse-sim/internal/scenario"
)

var scenariosShow string

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List built-in drift scenarios",
	Long:  "scenarios lists the built-in drift scenarios, or prints one as YAML with --show so it can be edited and loaded via scenario_file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if scenariosShow != "" {
			sc, ok := scenario.Lookup(scenariosShow)
			if !ok {
				return fmt.Errorf("unknown scenario %q", scenariosShow)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(sc)
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTITLE\tPHASES\tDESCRIPTION")
		for _, name := range scenario.Names() {
			sc, _ := scenario.Lookup(name)
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", name, sc.Name, len(sc.Phases), sc.Description)
		}
		return tw.Flush()
	},
}

func init() {
	scenariosCmd.Flags().StringVar(&scenariosShow, "show", "", "Print the named scenario as YAML")
}
