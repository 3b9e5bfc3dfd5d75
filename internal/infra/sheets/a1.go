package sheets

import (
	"fmt"
	"strings"
)

// ColumnLetter turns a 0-based column index into its A1 letters (0 -> A, 26 -> AA).
func ColumnLetter(col int) string {
	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// CellRef builds a quoted A1 reference for a 1-based row and 0-based column.
func CellRef(sheet string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), ColumnLetter(col), row)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
