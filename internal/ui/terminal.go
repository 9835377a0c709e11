package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const Logo = `
  ___ ___  ___ ___   _ __ _ _ ___ _ __
 (_-<| '_ \(_-<(_-< | '_ \ '_/ -_) '_ \
 /__/| .__//__//__/ | .__/_| \___| .__/
     |_|            |_|          |_|
`

func PrintLogo() {
	fmt.Println(LogoStyle.Render(Logo))
}

func PrintTitle(title string) {
	fmt.Println(TitleStyle.Render(title))
}

func PrintSubtitle(subtitle string) {
	fmt.Println(SubtitleStyle.Render(subtitle))
}

func PrintSuccess(message string) {
	fmt.Println(SuccessStyle.Render("✓ " + message))
}

func PrintError(message string) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+message))
}

func PrintWarning(message string) {
	fmt.Println(WarningStyle.Render("! " + message))
}

func PrintInfo(message string) {
	fmt.Println(InfoStyle.Render(message))
}

func PrintHighlight(message string) {
	fmt.Println(HighlightStyle.Render(message))
}

// PrintBox prints content in a rounded box under a highlighted title
func PrintBox(title string, content string) {
	fmt.Println(RenderBox(title, content))
}

func RenderBox(title string, content string) string {
	titleText := HighlightStyle.Render(title)
	contentText := InfoStyle.Render(content)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleText, contentText))
}

// ExitWithError prints an error message and exits with code 1
func ExitWithError(message string) {
	PrintError(message)
	os.Exit(1)
}

func DisplayTable(headers []string, rows [][]string) {
	fmt.Print(RenderTable(headers, rows))
}

// RenderTable lays out headers and rows in padded columns. Widths are
// measured in terminal cells so non-Latin answers line up.
func RenderTable(headers []string, rows [][]string) string {
	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = lipgloss.Width(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && lipgloss.Width(cell) > colWidths[i] {
				colWidths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder

	headerCells := make([]string, len(headers))
	for i, header := range headers {
		headerCells[i] = TableHeaderStyle.Render(
			lipgloss.PlaceHorizontal(colWidths[i], lipgloss.Left, header),
		)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))
	b.WriteString("\n")

	separator := make([]string, len(headers))
	for i, width := range colWidths {
		separator[i] = strings.Repeat("─", width+2)
	}
	b.WriteString(HighlightStyle.Render(strings.Join(separator, "")))
	b.WriteString("\n")

	for _, row := range rows {
		rowCells := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(colWidths) {
				rowCells = append(rowCells, TableCellStyle.Render(
					lipgloss.PlaceHorizontal(colWidths[i], lipgloss.Left, cell),
				))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rowCells...))
		b.WriteString("\n")
	}
	return b.String()
}

// Truncate shortens s to max cells with an ellipsis
func Truncate(s string, max int) string {
	if max <= 1 || lipgloss.Width(s) <= max {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > max {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
