package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskdock/taskdock/internal/importer"
	"github.com/taskdock/taskdock/internal/types"
	"github.com/taskdock/taskdock/internal/ui"
)

// exportDoc is the document written by td export.
type exportDoc struct {
	Tasks []*types.Task `json:"tasks" yaml:"tasks"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all tasks to stdout as JSON or YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		tasks, err := app.service.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		doc := exportDoc{Tasks: tasks}

		switch format {
		case "json":
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal tasks: %w", err)
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to marshal tasks: %w", err)
			}
			fmt.Print(string(data))
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", format)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import task files from a drop directory",
	Long: `Import *.json files from a directory as task creates. Each file holds
one {"title", "description", "deadline", "priority"} document and is
removed after a successful import.

With --watch the directory is watched and new files are imported as
they appear.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		dir := args[0]

		if watch {
			w, err := importer.NewWatcher(app.service, dir, nil)
			if err != nil {
				return err
			}
			fmt.Printf("%s Watching %s (ctrl-c to stop)\n", ui.RenderAccent("👀"), dir)
			return w.Run(cmd.Context())
		}

		count, errs := importer.ImportDir(cmd.Context(), app.service, dir)
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Printf("%s Imported %d task(s), %d failure(s)\n", ui.RenderPass("✓"), count, len(errs))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "output format: json or yaml")
	importCmd.Flags().Bool("watch", false, "keep watching the directory")
}
