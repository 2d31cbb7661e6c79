package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the devices in the topology",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTopology()
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Name", "Family", "Management", "Port", "VLANs", "Interfaces"})
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, d := range t.Devices {
			var vlans []string
			for _, v := range d.VLANs {
				vlans = append(vlans, strconv.Itoa(v.ID))
			}
			table.Append([]string{
				d.Name,
				string(d.Family),
				d.MgmtHost(),
				strconv.Itoa(d.Credentials.Port),
				strings.Join(vlans, " "),
				strconv.Itoa(len(d.Interfaces)),
			})
		}
		table.Render()
		fmt.Printf("\n%d device(s) in topology '%s'\n", len(t.Devices), t.Name)
		return nil
	},
}
