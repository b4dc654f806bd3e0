package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Logo is printed by the CLI banner
const Logo = `
 _   _ ____    _    ____ ___ __  __    _    _  __
| | | |  _ \  / \  / ___|_ _|  \/  |  / \  | |/ /
| | | | | | |/ _ \| |    | || |\/| | / _ \ | ' /
| |_| | |_| / ___ \ |___ | || |  | |/ ___ \| . \
 \___/|____/_/   \_\____|___|_|  |_/_/   \_\_|\_\
      offline renderer for Udacity course trees
`

var colorEnabled = isTerminal(os.Stdout)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(format string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(format, text)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetColor forces coloured output on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

// PrintLogo prints the banner
func PrintLogo() {
	fmt.Fprint(Output, Cyan(Logo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(Output, Red(withArg(msg, args)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(Output, Yellow(withArg(msg, args)))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}

func withArg(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}
