package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CraigKelly/nogold/posterior"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (sp *startupParams) title(format string, args ...interface{}) {
	sp.out.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

func (sp *startupParams) warn(format string, args ...interface{}) {
	sp.out.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}

// printSummary writes one line per parameter
func printSummary(sp *startupParams, summary []posterior.Summary) {
	sp.out.Println(headStyle.Render(fmt.Sprintf("%-10s %10s %10s %10s %10s %10s %8s",
		"param", "mean", "sd", "2.5%", "median", "97.5%", "rhat")))
	for _, s := range summary {
		rhat := "-"
		if !math.IsNaN(s.Rhat) {
			rhat = fmt.Sprintf("%8.4f", s.Rhat)
		}
		sp.out.Printf("%-10s %10.5f %10.5f %10.5f %10.5f %10.5f %8s\n",
			s.Name, s.Mean, s.StdDev, s.Lower, s.Median, s.Upper, rhat)
	}
}

// printComparisons writes one line per ordered modality pair
func printComparisons(sp *startupParams, cmps []posterior.Comparison) {
	sp.out.Println(headStyle.Render(fmt.Sprintf("%-32s %8s %8s %8s", "(kind, i, j, omega, p)", "reverse", "ties", "stderr")))
	for _, c := range cmps {
		line := fmt.Sprintf("%-32s %8.4f %8.4f %8.4f", c.String(), c.Reverse, c.Ties, c.StdErr())
		if c.Probability >= 0.95 {
			line = goodStyle.Render(line)
		}
		sp.out.Println(line)
	}
}

func rule(n int) string {
	return strings.Repeat("-", n)
}
