package cli

import (
	"github.com/spf13/cobra"

	"github.com/buildbench/runner/api"
	"github.com/buildbench/runner/charter"
	"github.com/buildbench/runner/metrics"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr        string
		definitions string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve runs, charts and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("definitions") {
				a.cfg.Charts.Definitions = definitions
			}

			defs, err := charter.LoadDefinitions(a.cfg.Charts.Definitions)
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			server := api.NewServer(a.cfg.Server.Addr, store, charter.New(defs, a.log), metrics.NewRecorder(), a.log)
			return api.RunServer(cmd.Context(), server, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&definitions, "definitions", "", "chart definitions YAML (default: built-in charts)")
	return cmd
}
