// Package workload provides the logical write requests fed to the flash
// translation layer.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// referenceStrings is the fixed corpus of 22 reference strings with 10
// logical addresses each.
var referenceStrings = [][]int{
	{1, 1, 1, 2, 2, 3, 3, 3, 1, 1},
	{2, 2, 2, 2, 2, 10, 11, 11, 12, 1},
	{134, 77, 203, 12, 89, 255, 47, 163, 58, 211},
	{45, 198, 27, 120, 3, 242, 76, 151, 94, 187},
	{222, 54, 11, 193, 65, 144, 239, 37, 200, 18},

	{92, 8, 216, 174, 49, 138, 253, 67, 102, 33},
	{183, 22, 131, 250, 79, 5, 121, 201, 162, 40},
	{9, 111, 170, 63, 230, 142, 32, 184, 93, 217},
	{57, 149, 244, 14, 71, 112, 191, 99, 129, 224},
	{25, 233, 56, 196, 186, 64, 145, 88, 241, 179},

	{152, 115, 19, 227, 84, 2, 205, 46, 108, 159},
	{175, 59, 90, 209, 132, 7, 202, 125, 50, 248},
	{19, 28, 23, 13, 17, 30, 12, 21, 26, 10},
	{22, 18, 25, 27, 15, 29, 24, 11, 16, 20},
	{13, 19, 30, 22, 18, 17, 28, 25, 14, 23},

	{16, 29, 11, 21, 20, 12, 15, 27, 30, 25},
	{24, 10, 17, 28, 19, 22, 16, 13, 26, 18},
	{27, 15, 30, 14, 12, 20, 11, 23, 28, 25},
	{17, 24, 13, 19, 26, 21, 18, 16, 29, 30},
	{20, 28, 11, 25, 23, 14, 12, 19, 27, 18},

	{15, 17, 29, 10, 16, 22, 20, 28, 13, 30},
	{26, 19, 14, 24, 18, 21, 25, 29, 15, 11},
}

// ReferenceSequences returns a copy of the 22 reference strings.
func ReferenceSequences() [][]int {
	out := make([][]int, len(referenceStrings))
	for i, s := range referenceStrings {
		out[i] = append([]int(nil), s...)
	}

	return out
}

// Reference returns the reference strings concatenated in order, 220
// requests in total.
func Reference() []int {
	var out []int
	for _, s := range referenceStrings {
		out = append(out, s...)
	}

	return out
}

// Load parses logical addresses separated by whitespace or commas. Text after
// a '#' is ignored up to the end of the line. Negative values are kept; the
// runner skips them.
func Load(r io.Reader) ([]int, error) {
	var out []int

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.FieldsFunc(line, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t' || c == '\r'
		})

		for _, f := range fields {
			lba, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid logical address %q",
					lineNo, f)
			}

			out = append(out, lba)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// LoadFile reads a workload from the file at path.
func LoadFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return w, nil
}

// Format writes w as one reference string of perLine addresses per line, in
// the form Load reads back.
func Format(out io.Writer, w []int, perLine int) error {
	if perLine <= 0 {
		perLine = len(w)
	}

	for start := 0; start < len(w); start += perLine {
		end := min(start+perLine, len(w))

		parts := make([]string, 0, end-start)
		for _, lba := range w[start:end] {
			parts = append(parts, strconv.Itoa(lba))
		}

		if _, err := fmt.Fprintln(out, strings.Join(parts, ", ")); err != nil {
			return err
		}
	}

	return nil
}
