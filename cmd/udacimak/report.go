package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"udacimak/pkg/report"
	"udacimak/pkg/storage"
	"udacimak/pkg/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report <course dir | report file>",
	Short: "Show the failures recorded by the last render of a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, report.FileName)
		}

		r, err := report.Load(storage.NewManager(afero.NewOsFs()), path)
		if err != nil {
			return err
		}

		ui.PrintInfo("Run", r.RunID)
		ui.PrintInfo("Source", r.Source)
		verbose = true
		printReport(*r)
		if len(r.Failures) > 0 {
			fmt.Fprintln(ui.Output)
			for _, f := range r.Failures {
				fmt.Fprintf(ui.Output, "%s %s\n", ui.Dim(f.Time.Format("15:04:05")), f.Message)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
