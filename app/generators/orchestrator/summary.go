package orchestrator

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintSummary prints a summary of the generation results
func PrintSummary(w io.Writer, result *Result) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	if result.Written {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen).Sprint("GENERATED"), result.Path)
	} else {
		fmt.Fprintf(w, "%s (dry run)\n", color.New(color.FgYellow).Sprint("RENDERED"))
	}
	fmt.Fprintln(w, rule)

	for _, m := range result.Models {
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint(m.Name))
		for _, b := range result.Routes {
			if b.Model != m.Name {
				continue
			}
			status := color.New(color.FgGreen).Sprint("OK ")
			if b.Unsupported != "" {
				status = color.New(color.FgYellow).Sprint("501")
			}
			fmt.Fprintf(w, "   %s %-6s %s -> %s\n", status, b.Method, b.Path, b.Handler)
		}
	}

	fmt.Fprintf(w, "\nDialect:  %s\n", result.Dialect)
	fmt.Fprintf(w, "Duration: %v\n", result.Duration)
	fmt.Fprintf(w, "Run:      %s\n", result.RunID)

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, color.New(color.FgYellow).Sprint("\nWarnings:"))
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "   • %s\n", warn)
		}
	}
	fmt.Fprintln(w, rule)
}
