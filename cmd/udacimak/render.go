package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/report"
	"udacimak/pkg/ui"
)

var (
	// Render command flags
	targetDir      string
	delayYoutube   int
	subtitles      bool
	ytdlpVerbose   bool
	userQuizAnswer bool
	concurrent     int
	ytdlpPath      string
	notify         bool
)

var renderCmd = &cobra.Command{
	Use:   "render <source>",
	Short: "Render a downloaded course or Nanodegree into HTML",
	Long: `Render one downloaded course or Nanodegree folder into static HTML.

The folder must contain the data.json written by the download step. Output is
written to <targetdir>/<course name>/ with one folder per lesson.`,
	Example: `  # Render into the current directory
  udacimak render "./Intro to Go"

  # Render somewhere else, with subtitles and a pause between videos
  udacimak render "./Intro to Go" -t ~/courses --subtitles --delay-youtube 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args[0], false)
	},
}

var renderDirCmd = &cobra.Command{
	Use:   "renderdir <dir>",
	Short: "Render every downloaded course found in a directory",
	Long: `Render each subdirectory of <dir> that holds a downloaded course or Nanodegree.
A course that fails to render is reported and the remaining ones are still rendered.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args[0], true)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(renderDirCmd)

	for _, c := range []*cobra.Command{renderCmd, renderDirCmd} {
		c.Flags().StringVarP(&targetDir, "targetdir", "t", "", "directory the rendered course is written to (default: current directory)")
		c.Flags().IntVar(&delayYoutube, "delay-youtube", 0, "minimum number of seconds between two YouTube downloads")
		c.Flags().BoolVar(&subtitles, "subtitles", false, "download video subtitles")
		c.Flags().BoolVar(&ytdlpVerbose, "ytdlp-verbose", false, "pass --verbose to yt-dlp")
		c.Flags().BoolVar(&userQuizAnswer, "userquizanswer", false, "include your saved answers of programming quizzes")
		c.Flags().IntVar(&concurrent, "concurrent", 0, "number of parallel media downloads per text block")
		c.Flags().StringVar(&ytdlpPath, "ytdlp-path", "", "path to the yt-dlp executable")
		c.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when done")
	}
}

// renderFlags maps the flags the user actually set onto configuration keys
func renderFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags()
	f := cmd.Flags()
	if f.Changed("targetdir") {
		flags["targetdir"] = targetDir
	}
	if f.Changed("delay-youtube") {
		flags["delay-youtube"] = delayYoutube
	}
	if f.Changed("subtitles") {
		flags["subtitles"] = subtitles
	}
	if f.Changed("ytdlp-verbose") {
		flags["ytdlp-verbose"] = ytdlpVerbose
	}
	if f.Changed("userquizanswer") {
		flags["userquizanswer"] = userQuizAnswer
	}
	if f.Changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if f.Changed("ytdlp-path") {
		flags["ytdlp-path"] = ytdlpPath
	}
	return flags
}

func runRender(cmd *cobra.Command, source string, all bool) error {
	cfg, log, err := loadConfig(renderFlags(cmd))
	if err != nil {
		return err
	}

	ui.PrintLogo()

	source, err = filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	target, err := filepath.Abs(cfg.Render.TargetDir)
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}

	ui.PrintInfo("Source", source)
	ui.PrintInfo("Target", target)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := ytdlpRunner(ctx, cfg, log)
	if err != nil {
		return err
	}

	progress := ui.NewProgressDisplay(os.Stderr, "", verbose)
	p, err := newPipeline(afero.NewOsFs(), cfg, runner, progress, log)
	if err != nil {
		return err
	}

	if all {
		err = p.walker.RenderAll(ctx, source, target)
	} else {
		err = p.walker.RenderTree(ctx, source, target)
	}
	progress.Complete()

	notifier := ui.NewNotifier(notify)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Render interrupted")
			return err
		}
		notifier.SendError("Render failed", err.Error())
		return err
	}

	printReport(p.report.Snapshot())
	notifier.SendSuccess("Render complete", filepath.Base(source))
	return nil
}

// printReport prints the totals of the last rendered course and its failures
func printReport(r report.Report) {
	ui.PrintSuccess(r.Summary())
	if len(r.Failures) == 0 {
		return
	}

	ui.PrintWarning(fmt.Sprintf("%d problems recorded, remote addresses were kept where downloads failed", len(r.Failures)))
	shown := r.Failures
	if len(shown) > 10 && !verbose {
		shown = shown[:10]
	}
	for _, f := range shown {
		what := f.URI
		if what == "" {
			what = f.Path
		}
		fmt.Fprintf(ui.Output, "  %s %s %s %s\n", ui.Dim("•"), ui.Yellow(string(f.Kind)), f.Component, what)
	}
	if len(shown) < len(r.Failures) {
		fmt.Fprintf(ui.Output, "  %s and %d more, see %s\n", ui.Dim("•"), len(r.Failures)-len(shown), report.FileName)
	}
	if n := r.CountByKind()[errs.KindVideoPrivate]; n > 0 {
		ui.PrintWarning(fmt.Sprintf("%d videos are private and were linked instead of downloaded", n))
	}
}
