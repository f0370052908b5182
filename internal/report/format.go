package report

import (
	"fmt"
	"strconv"
	"strings"

	"skyscraper-platform/internal/models"
)

// Asteriskify decorates text with count asterisks on both sides
func Asteriskify(text string, count int) string {
	decor := strings.Repeat("*", count)
	return decor + " " + text + " " + decor
}

// RightJustify numbers a line so that the text of every line of a list
// starts in the same column. width is the digit count of the largest number.
func RightJustify(line string, n, width int) string {
	fill := width - len(strconv.Itoa(n)) + 1
	if fill < 1 {
		fill = 1
	}
	return strconv.Itoa(n) + "." + strings.Repeat(" ", fill) + line
}

// countWidth returns the digit count of n
func countWidth(n int) int {
	return len(strconv.Itoa(n))
}

func formatHeight(h *float64) string {
	if h == nil {
		return "-"
	}
	return strconv.FormatFloat(*h, 'f', -1, 64) + " m"
}

// ratingLine formats a rating with the uncompleted share when there is one
func ratingLine(rating int, percent float64, hasUncompleted bool) string {
	if !hasUncompleted {
		return strconv.Itoa(rating)
	}
	return fmt.Sprintf("%d (%.1f%% uncompleted)", rating, percent)
}

func regionLabel(region *string) string {
	if region == nil {
		return "-"
	}
	return *region
}

func towerNames(towers []*models.Tower) string {
	names := make([]string, 0, len(towers))
	for _, t := range towers {
		names = append(names, t.DisplayName())
	}
	return strings.Join(names, ", ")
}

// fileName turns a display name into a report file name
func fileName(name string) string {
	return strings.ReplaceAll(name, " ", "_") + ".txt"
}
