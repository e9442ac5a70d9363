// Package qr renders QR codes as terminal text for login prompts on
// machines without a graphical session. RFC 8628 section 3.3.1 recommends
// QR codes for non-textual transmission of the verification URI.
package qr

import (
	"fmt"
	"strings"
)

const (
	size      = 25 // Version 2 matrix is 25x25 modules
	quietZone = 2  // Quiet zone width in modules around the matrix

	// MaxTextLength is the Version 2-L alphanumeric capacity. Longer
	// verification URIs fail rendering and callers fall back to showing
	// the plain URL.
	MaxTextLength = 47
)

// Render encodes text into a Version 2 QR code and returns it as lines of
// full-block characters suitable for a terminal. Dark modules are drawn as
// block pairs so the result is roughly square in a monospace font.
func Render(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("empty text")
	}

	matrix, err := buildMatrix(text)
	if err != nil {
		return "", fmt.Errorf("building QR matrix: %w", err)
	}

	var b strings.Builder
	blank := strings.Repeat("  ", size+2*quietZone) + "\n"
	for i := 0; i < quietZone; i++ {
		b.WriteString(blank)
	}
	for y := 0; y < size; y++ {
		b.WriteString(strings.Repeat("  ", quietZone))
		for x := 0; x < size; x++ {
			if matrix[y][x] {
				b.WriteString("██")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteString(strings.Repeat("  ", quietZone))
		b.WriteString("\n")
	}
	for i := 0; i < quietZone; i++ {
		b.WriteString(blank)
	}
	return b.String(), nil
}

// buildMatrix assembles the module matrix: function patterns first, then the
// encoded data in a zig-zag fill.
func buildMatrix(text string) ([][]bool, error) {
	if len(text) > MaxTextLength {
		return nil, fmt.Errorf("text exceeds %d characters", MaxTextLength)
	}

	matrix := make([][]bool, size)
	for i := range matrix {
		matrix[i] = make([]bool, size)
	}

	placeFinder(matrix, 0, 0)      // Top-left
	placeFinder(matrix, 0, size-7) // Top-right
	placeFinder(matrix, size-7, 0) // Bottom-left
	placeAlignment(matrix, size-9, size-9)

	for i := 8; i < size-8; i++ {
		matrix[6][i] = i%2 == 0
		matrix[i][6] = i%2 == 0
	}

	placeFormat(matrix)

	data := encodeAlphanumeric(text)
	if err := placeData(matrix, data); err != nil {
		return nil, err
	}
	return matrix, nil
}

func placeFinder(matrix [][]bool, top, left int) {
	for i := 0; i < 7; i++ {
		matrix[top][left+i] = true
		matrix[top+6][left+i] = true
		matrix[top+i][left] = true
		matrix[top+i][left+6] = true
	}
	for i := 2; i < 5; i++ {
		for j := 2; j < 5; j++ {
			matrix[top+i][left+j] = true
		}
	}
}

func placeAlignment(matrix [][]bool, top, left int) {
	for i := 0; i < 5; i++ {
		matrix[top][left+i] = true
		matrix[top+4][left+i] = true
		matrix[top+i][left] = true
		matrix[top+i][left+4] = true
	}
	matrix[top+2][left+2] = true
}

// placeFormat writes the fixed format bits for Version 2-L, mask 0.
func placeFormat(matrix [][]bool) {
	format := []bool{true, false, true, false, true, false, false, true,
		false, true, true, false, false, true, false}

	for i := 0; i < 6; i++ {
		matrix[8][i] = format[i]
		matrix[i][8] = format[14-i]
	}
	matrix[7][8] = format[6]
	matrix[8][8] = format[7]
	matrix[8][7] = format[8]
}

// encodeAlphanumeric converts text into the QR alphanumeric-mode bit stream:
// mode indicator, 9-bit length, then 11 bits per character pair.
func encodeAlphanumeric(text string) []bool {
	text = strings.ToUpper(text)

	bits := []bool{false, false, true, false} // alphanumeric mode indicator

	length := len(text)
	for i := 8; i >= 0; i-- {
		bits = append(bits, (length&(1<<i)) != 0)
	}

	for i := 0; i < len(text); i += 2 {
		if i+1 < len(text) {
			value := charValue(text[i])*45 + charValue(text[i+1])
			for j := 10; j >= 0; j-- {
				bits = append(bits, (value&(1<<j)) != 0)
			}
		} else {
			value := charValue(text[i])
			for j := 5; j >= 0; j-- {
				bits = append(bits, (value&(1<<j)) != 0)
			}
		}
	}

	for len(bits)%8 != 0 {
		bits = append(bits, false)
	}
	return bits
}

// charValue maps a character to its QR alphanumeric value. Characters
// outside the alphanumeric set map to zero.
func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	case c == ' ':
		return 36
	case c == '$':
		return 37
	case c == '%':
		return 38
	case c == '*':
		return 39
	case c == '+':
		return 40
	case c == '-':
		return 41
	case c == '.':
		return 42
	case c == '/':
		return 43
	case c == ':':
		return 44
	default:
		return 0
	}
}

// placeData fills data bits bottom-right to top-left in the standard
// two-column zig-zag, applying mask pattern 0 and skipping reserved modules.
func placeData(matrix [][]bool, data []bool) error {
	if len(data) == 0 {
		return fmt.Errorf("no data to place")
	}

	x := size - 1
	y := size - 1
	up := true
	index := 0

	if x == 6 {
		x--
	}

	for x >= 0 && index < len(data) {
		if !reserved(x, y) {
			bit := data[index]
			if (x+y)%2 == 0 {
				bit = !bit
			}
			matrix[y][x] = bit
			index++
		}

		if up {
			if y > 0 {
				y--
				if x%2 == 0 {
					x++
				} else {
					x--
				}
			} else {
				x -= 2
				up = false
			}
		} else {
			if y < size-1 {
				y++
				if x%2 == 0 {
					x++
				} else {
					x--
				}
			} else {
				x -= 2
				up = true
			}
		}

		if x == 6 {
			x--
		}
	}

	return nil
}

// reserved reports whether a position belongs to a function pattern.
func reserved(x, y int) bool {
	if (y < 9 && x < 9) || // Top-left finder and format
		(y < 9 && x > size-9) || // Top-right finder
		(y > size-9 && x < 9) { // Bottom-left finder
		return true
	}

	if x >= size-9 && x < size-4 &&
		y >= size-9 && y < size-4 { // Alignment pattern
		return true
	}

	return x == 6 || y == 6 // Timing patterns
}
