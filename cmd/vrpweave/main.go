// Vrpweave - Huawei VRP lab provisioning tool
//
// A CLI tool for turning a declarative lab topology into running device
// configuration:
//   - Topology validation (YAML topology or CSV inventory)
//   - Per-family config rendering from built-in or custom templates
//   - Dry-run by default (preview scripts, require -x to push)
//   - Concurrent SSH delivery with per-device outcomes
//
// Examples:
//
//	vrpweave -t lab.yaml validate                 # Check the topology
//	vrpweave -t lab.yaml devices                  # List devices
//	vrpweave -t lab.yaml render                   # Print rendered scripts
//	vrpweave -t lab.yaml render -o out/           # Write <device>.cfg files
//	vrpweave -t lab.yaml provision                # Dry-run all devices
//	vrpweave -t lab.yaml provision -x             # Push to all devices
//	vrpweave -t lab.yaml -d SW1 provision -x      # Push to one device
//	vrpweave commands vlan                        # CLI fragment reference
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vrpweave/vrpweave/pkg/cli"
	"github.com/vrpweave/vrpweave/pkg/template"
	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
	"github.com/vrpweave/vrpweave/pkg/version"
)

var (
	// Context flags (select the topology and optionally one device)
	topologyPath string // -t, --topology
	deviceName   string // -d, --device

	// Option flags
	templateDir string // -T, --templates
	verbose     bool   // -v, --verbose
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "vrpweave",
	Short:             "Huawei VRP Lab Provisioning Tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Vrpweave renders vendor CLI configuration from a declarative lab
topology and delivers it to simulated devices over SSH.

Write commands preview scripts by default — use -x to push.

  vrpweave -t <topology> [-d <device>] <command> [-x]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&topologyPath, "topology", "t", "", "Topology file (YAML, or CSV inventory)")
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "Restrict to one device")
	rootCmd.PersistentFlags().StringVarP(&templateDir, "templates", "T", "", "Directory of <family>.tmpl overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(validateCmd, devicesCmd, renderCmd, provisionCmd, commandsCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("vrpweave dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("vrpweave %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

// loadTopology reads the -t file and applies the -d restriction. CSV files
// load as flat inventories; everything else is parsed as YAML.
func loadTopology() (*topology.Topology, error) {
	if topologyPath == "" {
		return nil, fmt.Errorf("topology required: use -t <file>")
	}
	var t *topology.Topology
	var err error
	if isCSV(topologyPath) {
		t, err = topology.LoadInventory(topologyPath)
	} else {
		t, err = topology.Load(topologyPath)
	}
	if err != nil {
		return nil, err
	}
	if deviceName == "" {
		return t, nil
	}
	d, err := t.GetDevice(deviceName)
	if err != nil {
		return nil, err
	}
	return &topology.Topology{Name: t.Name, Devices: []*topology.Device{d}}, nil
}

func isCSV(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".csv"
}

// loadCatalogue returns the built-in templates with any -T overrides
// compiled on top.
func loadCatalogue() (*template.Catalogue, error) {
	cat := template.Builtin()
	if templateDir != "" {
		if err := cat.LoadDir(templateDir); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Color helpers — delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
