package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var renderOutDir string // -o, --output

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render configuration scripts without connecting",
	Long: `Render produces the exact command sequence that provision would push,
one script per device, without touching the network.

With -o the scripts are written as <device>.cfg files; without it they
print to stdout with a header per device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTopology()
		if err != nil {
			return err
		}
		cat, err := loadCatalogue()
		if err != nil {
			return err
		}

		if renderOutDir != "" {
			if err := os.MkdirAll(renderOutDir, 0o755); err != nil {
				return err
			}
		}

		for _, d := range t.Devices {
			script, err := cat.Render(d)
			if err != nil {
				return err
			}
			if renderOutDir != "" {
				path := filepath.Join(renderOutDir, d.Name+".cfg")
				if err := os.WriteFile(path, []byte(script.String()+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Printf("%s %s (%d commands)\n", green("wrote"), path, len(script.Commands))
				continue
			}
			fmt.Printf("=== %s (%s) ===\n", bold(d.Name), d.Family)
			fmt.Println(script.String())
			fmt.Println()
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutDir, "output", "o", "", "Write scripts to this directory as <device>.cfg")
}
