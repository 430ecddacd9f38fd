package ui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jellyshell/jellyshell/internal/discovery"
	"github.com/jellyshell/jellyshell/internal/display"
	"github.com/jellyshell/jellyshell/internal/formfactor"
	"github.com/jellyshell/jellyshell/internal/servercheck"
)

const boxWidth = 64

// frame holds box drawing glyphs
type frame struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical, teeRight, teeLeft    string
}

var rounded = frame{
	topLeft:     "╭",
	topRight:    "╮",
	bottomLeft:  "╰",
	bottomRight: "╯",
	horizontal:  "─",
	vertical:    "│",
	teeRight:    "├",
	teeLeft:     "┤",
}

// bottomBorder closes a box of the given width
func bottomBorder(color string, width int) string {
	return Color(color, rounded.bottomLeft+strings.Repeat(rounded.horizontal, width-2)+rounded.bottomRight) + "\n"
}

// RenderHeader draws the panel printed when the shell host starts.
func RenderHeader(version string, device *formfactor.DeviceInfo, linkAddr string) string {
	var sb strings.Builder

	sb.WriteString(topBorder(Cyan, fmt.Sprintf(" Jellyshell v%s ", version), boxWidth))
	sb.WriteString(formatCenteredLine("", boxWidth))
	if device != nil {
		sb.WriteString(formatInfoLine(Cyan, "Device", device.DeviceName(), boxWidth))
		sb.WriteString(formatInfoLine(Cyan, "Platform", device.String(), boxWidth))
	}
	sb.WriteString(formatInfoLine(Cyan, "Renderer", "ws://"+linkAddr+"/bridge", boxWidth))
	sb.WriteString(formatCenteredLine("", boxWidth))
	sb.WriteString(bottomBorder(Cyan, boxWidth))

	return sb.String()
}

// RenderServers lists discovered servers as a table
func RenderServers(servers []discovery.Server) string {
	if len(servers) == 0 {
		return Color(Dim, "No servers found") + "\n"
	}

	rows := [][]string{{"NAME", "ADDRESS", "ID"}}
	for _, s := range servers {
		rows = append(rows, []string{s.Name, s.Address, truncate(s.ID, 12)})
	}
	return renderTable(rows)
}

// RenderModes lists display modes, marking the current one
func RenderModes(modes []display.Mode, current display.Mode) string {
	rows := [][]string{{"", "RESOLUTION", "REFRESH", "HDR10", "DV-LL"}}
	for _, m := range modes {
		marker := ""
		if m == current {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			fmt.Sprintf("%dx%d", m.Width, m.Height),
			fmt.Sprintf("%gHz", m.RefreshRate),
			yesNo(m.HDR10),
			yesNo(m.DolbyVisionLowLatency),
		})
	}
	return renderTable(rows)
}

// RenderNegotiation shows the ranked candidates for a negotiation
func RenderNegotiation(hdr display.HdrOption, candidates []display.Mode) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n", Color(Dim, "HDR:"), Color(Bold, hdr.String())))
	if len(candidates) == 0 {
		sb.WriteString(Color(Yellow, "No matching mode, the default mode would be restored"))
		sb.WriteString("\n")
		return sb.String()
	}
	for i, m := range candidates {
		label := m.String()
		if i == 0 {
			label = Color(Green+Bold, label)
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", Color(Dim, fmt.Sprintf("%d.", i+1)), label))
	}
	return sb.String()
}

// RenderCheck draws a card for a server validation result
func RenderCheck(server string, res servercheck.Result) string {
	border := Green
	status := "Reachable"
	if !res.Valid {
		border = Red
		status = "Unavailable"
	} else if res.Deprecated {
		border = Yellow
		status = "Reachable (deprecated version)"
	}

	var sb strings.Builder
	sb.WriteString(topBorder(border, " Server ", boxWidth))
	sb.WriteString(formatInfoLine(border, "URL", truncate(server, boxWidth-10), boxWidth))
	if res.BaseURL != "" && res.BaseURL != server {
		sb.WriteString(formatInfoLine(border, "API", truncate(res.BaseURL, boxWidth-10), boxWidth))
	}
	if res.Version != "" {
		sb.WriteString(formatInfoLine(border, "Version", res.Version, boxWidth))
	}
	sb.WriteString(formatInfoLine(border, "Status", status, boxWidth))

	if res.Message != "" {
		sb.WriteString(Color(border, rounded.teeRight+strings.Repeat(rounded.horizontal, boxWidth-2)+rounded.teeLeft))
		sb.WriteString("\n")
		for _, line := range wrapText(res.Message, boxWidth-4) {
			sb.WriteString(Color(border, rounded.vertical))
			sb.WriteString(" ")
			sb.WriteString(line)
			sb.WriteString(strings.Repeat(" ", max(boxWidth-3-utf8.RuneCountInString(line), 0)))
			sb.WriteString(Color(border, rounded.vertical))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(bottomBorder(border, boxWidth))
	return sb.String()
}

// RenderSettings prints settings as sorted key = value lines
func RenderSettings(values map[string]any) string {
	if len(values) == 0 {
		return Color(Dim, "No settings stored") + "\n"
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%s = %v\n", Color(Cyan, k), values[k]))
	}
	return sb.String()
}

// RenderError formats an error message
func RenderError(err error) string {
	return Color(Red, fmt.Sprintf("Error: %v", err))
}

// RenderSuccess formats a success message
func RenderSuccess(msg string) string {
	return Color(Green, msg)
}

// RenderWarning formats a warning message
func RenderWarning(msg string) string {
	return Color(Yellow, msg)
}

// RenderDim formats text in dim style
func RenderDim(msg string) string {
	return Color(Dim, msg)
}

func topBorder(color, title string, width int) string {
	titleLen := utf8.RuneCountInString(title)
	leftDashes := 3
	rightDashes := max(width-2-leftDashes-titleLen, 0)

	var sb strings.Builder
	sb.WriteString(Color(color, rounded.topLeft))
	sb.WriteString(Color(color, strings.Repeat(rounded.horizontal, leftDashes)))
	sb.WriteString(Color(color+Bold, title))
	sb.WriteString(Color(color, strings.Repeat(rounded.horizontal, rightDashes)))
	sb.WriteString(Color(color, rounded.topRight))
	sb.WriteString("\n")
	return sb.String()
}

// formatCenteredLine creates a centered line within the box
func formatCenteredLine(text string, width int) string {
	visibleLen := visibleLength(text)
	padding := max((width-2-visibleLen)/2, 0)
	rightPadding := max(width-2-padding-visibleLen, 0)

	var sb strings.Builder
	sb.WriteString(Color(Cyan, rounded.vertical))
	sb.WriteString(strings.Repeat(" ", padding))
	sb.WriteString(text)
	sb.WriteString(strings.Repeat(" ", rightPadding))
	sb.WriteString(Color(Cyan, rounded.vertical))
	sb.WriteString("\n")
	return sb.String()
}

func formatInfoLine(color, label, value string, width int) string {
	// " label: value"
	visibleLen := utf8.RuneCountInString(label) + utf8.RuneCountInString(value) + 3
	padding := max(width-2-visibleLen, 0)

	var sb strings.Builder
	sb.WriteString(Color(color, rounded.vertical))
	sb.WriteString(" ")
	sb.WriteString(Color(Dim, label+":"))
	sb.WriteString(" ")
	sb.WriteString(value)
	sb.WriteString(strings.Repeat(" ", padding))
	sb.WriteString(Color(color, rounded.vertical))
	sb.WriteString("\n")
	return sb.String()
}

// renderTable left-aligns columns. The first row is the header.
func renderTable(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], visibleLength(cell))
		}
	}

	var sb strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			padded := cell + strings.Repeat(" ", widths[i]-visibleLength(cell))
			if r == 0 {
				padded = Color(Dim, padded)
			}
			cells[i] = padded
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// visibleLength returns the visible length of a string, ignoring ANSI codes
func visibleLength(s string) int {
	inEscape := false
	visible := 0
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		visible++
	}
	return visible
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// truncate shortens a string if it exceeds maxLen
func truncate(s string, maxLen int) string {
	if maxLen <= 3 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to fit within the specified width
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(s) {
		if current != "" && len(current)+len(word)+1 > width {
			lines = append(lines, current)
			current = word
			continue
		}
		if current != "" {
			current += " "
		}
		current += word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
