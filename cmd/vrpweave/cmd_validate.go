package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the topology for structural errors",
	Long: `Validate parses the topology and reports every structural problem at
once: duplicate names, malformed addresses, references to undeclared
VLANs or zones, and dangling link endpoints.

Exit status is non-zero when the topology is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if topologyPath == "" {
			return fmt.Errorf("topology required: use -t <file>")
		}
		var t *topology.Topology
		var err error
		if isCSV(topologyPath) {
			t, err = topology.LoadInventory(topologyPath)
		} else {
			t, err = topology.Load(topologyPath)
		}
		if err != nil {
			var verr *util.ValidationError
			if errors.As(err, &verr) {
				fmt.Println(red(fmt.Sprintf("%d problem(s) found:", len(verr.Errors))))
				for _, msg := range verr.Errors {
					fmt.Printf("  - %s\n", msg)
				}
				return fmt.Errorf("topology invalid")
			}
			return err
		}
		fmt.Printf("%s %d device(s), %d link(s)\n", green("Topology OK:"), len(t.Devices), len(t.Links))
		return nil
	},
}
