package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/elee1766/playground/src/config"
)

// ConfigCmd shows configuration
type ConfigCmd struct {
	Show  ConfigShowCmd  `cmd:"" default:"1" help:"Print the effective configuration"`
	Paths ConfigPathsCmd `cmd:"" help:"List the config files that are checked"`
}

// ConfigShowCmd prints the merged configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// ConfigPathsCmd lists config file locations
type ConfigPathsCmd struct{}

// Run executes the config paths command
func (c *ConfigPathsCmd) Run(ctx context.Context, cli *CLI) error {
	precedence := config.GetConfigPaths()
	precedence.ExplicitConfig = cli.Config
	printConfigInfo(os.Stdout, config.NewLoader(precedence).Info())
	return nil
}

func printConfigInfo(w io.Writer, info *config.ConfigInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Source\tExists\tPath")
	fmt.Fprintln(tw, "------\t------\t----")
	for _, loc := range info.Locations {
		exists := "no"
		if loc.Exists {
			exists = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", loc.Source, exists, loc.Path)
	}
	tw.Flush()

	if len(info.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range info.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	}
}
