package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/lander"
	"github.com/3-lines-studio/lander/internal/adapters/archive"
	"github.com/3-lines-studio/lander/internal/adapters/cli"
	"github.com/3-lines-studio/lander/internal/adapters/fs"
	"github.com/3-lines-studio/lander/internal/core"
	"github.com/3-lines-studio/lander/internal/usecase"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		outPath   string
		hintsPath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "export <project.json|project.yaml|bundle.zip>",
		Short: "Export a project to a bundle archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := fs.NewProjectLoader(fs.NewOSFileSystem())

			project, err := loadProject(loader, args[0])
			if err != nil {
				a.output.PrintError("%v", err)
				return err
			}
			hints, err := loader.LoadHints(hintsPath)
			if err != nil {
				a.output.PrintError("%v", err)
				return err
			}

			w, err := wire(a.cfg, a.logger)
			if err != nil {
				a.output.PrintError("%v", err)
				return err
			}
			defer w.Close()

			if !asJSON {
				a.output.PrintHeader("Lander Export")
				a.output.PrintStep("Exporting %s", args[0])
			}

			exporter, err := lander.New(landerConfig(a.cfg), w.options()...)
			if err != nil {
				a.output.PrintError("%v", err)
				return err
			}
			result, err := exporter.Export(cmd.Context(), project, hints)
			if err != nil {
				a.output.PrintError("%v", err)
				return err
			}

			if err := loader.WriteArchive(outPath, result.Archive); err != nil {
				a.output.PrintError("write %s: %v", outPath, err)
				return err
			}

			report := cli.NewExportReport(a.output, a.output.Writer(), outPath)
			if asJSON {
				return report.RenderJSON(result.Report)
			}
			report.Render(result.Report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "bundle.zip", "archive path")
	cmd.Flags().StringVar(&hintsPath, "hints", "", "UI hints file (JSON or YAML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the export report as JSON")

	return cmd
}

// loadProject reads a project document, or the snapshot inside a bundle
// produced by an earlier export.
func loadProject(loader *fs.ProjectLoader, path string) (*core.ProjectDocument, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return loader.LoadProject(path)
	}

	data, err := fs.NewOSFileSystem().ReadFile(path)
	if err != nil {
		return nil, err
	}
	bundle, err := archive.Open(data)
	if err != nil {
		return nil, err
	}
	return fs.NewProjectLoader(fs.NewReadOnlyFileSystem(bundle)).LoadSnapshot(usecase.ProjectFile)
}
