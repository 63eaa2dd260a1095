package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/pipeline"
)

// uiOut receives everything the commands print for the user. Logs go to
// stderr through the logger instead.
var uiOut io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // selection, titles
	colorGreen  = lipgloss.Color("35")  // locked rooms, success
	colorYellow = lipgloss.Color("220") // dirty rooms, warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted text, empty cells
)

var (
	// StyleTitle for world names and headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for room IDs and world names inside messages.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// Room states share their colours between the map editor and the
// printed listings.
var (
	styleLocked = lipgloss.NewStyle().Foreground(colorGreen)
	styleDirty  = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status lines
// =============================================================================

func statusLine(icon string, style lipgloss.Style, msg string) {
	fmt.Fprintln(uiOut, style.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	statusLine(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	statusLine(iconError, styleIconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	statusLine(iconWarning, styleIconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	statusLine(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleKey.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut)
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Layout output
// =============================================================================

// formatPosition renders a layout coordinate the way the editor shows it.
func formatPosition(x, y float64) string {
	return fmt.Sprintf("(%g, %g)", x, y)
}

// layoutSummary describes a pipeline result on one line, for example
// "42 rooms · 57 exits · grid · cached".
func layoutSummary(res *pipeline.Result) string {
	parts := []string{
		plural(res.Stats.NodeCount, "room"),
		plural(len(res.Edges), "exit"),
		res.Engine,
	}
	if res.CacheInfo.LayoutHit {
		parts = append(parts, "cached")
	}
	if s := res.Layout.Stats; s != nil && s.Adjusted > 0 {
		parts = append(parts, fmt.Sprintf("%d detoured", s.Adjusted))
	}
	return strings.Join(parts, " · ")
}

// printLayoutResult reports a finished layout: the summary line, then a
// warning for an engine fallback and for exits still crossing a room.
func printLayoutResult(res *pipeline.Result, requested string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(layoutSummary(res)))
	if res.Fallback {
		printWarning("%s engine failed; grid positions were used", requested)
	}
	if s := res.Layout.Stats; s != nil && s.Blocked > 0 {
		printWarning("%s still cross a room box", plural(s.Blocked, "exit"))
	}
}

// printLockedPositions lists locked rooms in canonical order, followed by
// the dirty ones.
func printLockedPositions(m override.Map, dirty []string) {
	for _, id := range m.IDs() {
		e := m[id]
		fmt.Fprintf(uiOut, "  %s %-12s %s\n", styleLocked.Render("#"), id, StyleDim.Render(formatPosition(e.X, e.Y)))
	}
	for _, id := range dirty {
		fmt.Fprintf(uiOut, "  %s %s\n", styleDirty.Render("*"), id)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
