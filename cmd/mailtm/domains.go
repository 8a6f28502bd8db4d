package main

import (
	"context"

	"github.com/spf13/cobra"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List domains available for new addresses",
	RunE:  runDomains,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the client version",
	Run: func(cmd *cobra.Command, args []string) {
		printer.Print("mailtm %s", version)
	},
}

func init() {
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runDomains(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	domains, err := client.Domains(context.Background())
	if err != nil {
		return err
	}

	table := NewTable([]string{"DOMAIN", "ACTIVE", "PRIVATE"})
	for _, d := range domains {
		active := ""
		if d.IsActive {
			active = "yes"
		}
		private := ""
		if d.IsPrivate {
			private = "yes"
		}
		table.AddRow([]string{printer.Bold(d.Domain), active, private})
	}
	table.Render()
	return nil
}
