package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elee1766/playground/src/catalog"
)

// ModelCmd manages model operations
type ModelCmd struct {
	List   ModelListCmd   `cmd:"" help:"List installed and pullable models"`
	Pull   ModelPullCmd   `cmd:"" help:"Download and start a model"`
	Stop   ModelStopCmd   `cmd:"" help:"Unload a running model"`
	Select ModelSelectCmd `cmd:"" help:"Choose the model used for new messages"`
}

// ModelListCmd lists available models
type ModelListCmd struct {
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
	All    bool   `help:"Include catalog-only models"`
}

// Run executes the model list command
func (c *ModelListCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap := rt.app.Catalog.Current()
	switch c.Format {
	case "json":
		return printModelsJSON(rt.out, snap)
	default:
		printModelsTable(rt.out, rt.styles, snap, c.All)
		return nil
	}
}

// ModelPullCmd pulls a model
type ModelPullCmd struct {
	Model string `arg:"" help:"Model ID"`
}

// Run executes the model pull command
func (c *ModelPullCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Fprintln(rt.out, rt.styles.Muted.Render("Pulling "+c.Model+"..."))
	msg, err := rt.app.Catalog.Pull(ctx, c.Model)
	if err != nil {
		return err
	}
	printActionResult(rt.out, msg, "Pulled "+c.Model)
	return nil
}

// ModelStopCmd stops a model
type ModelStopCmd struct {
	Model string `arg:"" help:"Model ID"`
}

// Run executes the model stop command
func (c *ModelStopCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	msg, err := rt.app.Catalog.Stop(ctx, c.Model)
	if err != nil {
		return err
	}
	printActionResult(rt.out, msg, "Stopped "+c.Model)
	return nil
}

// ModelSelectCmd records the model selection
type ModelSelectCmd struct {
	Model string `arg:"" help:"Model ID"`
}

// Run executes the model select command
func (c *ModelSelectCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	selectModel(rt, c.Model)
	return nil
}

// selectModel selects a model, warning when the catalog does not list it.
func selectModel(rt *runtime, id string) {
	if _, ok := rt.app.Catalog.Current().Lookup(id); !ok {
		fmt.Fprintln(rt.out, rt.styles.Warning.Render("warning: "+id+" is not in the model catalog"))
	}
	rt.app.Catalog.SelectModel(id)
	fmt.Fprintf(rt.out, "Selected model: %s\n", rt.styles.Selected.Render(rt.app.Catalog.Selected()))
}

func printActionResult(w io.Writer, msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	fmt.Fprintln(w, msg)
}

type modelsOutput struct {
	Selected  string             `json:"selected"`
	Installed []catalog.ModelRef `json:"installed"`
	Pullable  []catalog.ModelRef `json:"pullable"`
	Catalog   []catalog.ModelRef `json:"catalog"`
	Running   []catalog.ModelRef `json:"running"`
}

func printModelsJSON(w io.Writer, snap *catalog.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(modelsOutput{
		Selected:  snap.Selected(),
		Installed: snap.Installed(),
		Pullable:  snap.Pullable(),
		Catalog:   snap.Catalog(),
		Running:   snap.Running(),
	})
}
