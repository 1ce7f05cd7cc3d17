package util

import (
	"fmt"
	"strings"
	"unicode"
)

// EscapeString renders s so that it can be placed between double quotes in
// an assembler string directive. Non-printable bytes use three-digit octal
// escapes, which unlike \x never swallow the characters that follow.
func EscapeString(s string) string {
	sb := strings.Builder{}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if b < unicode.MaxASCII && unicode.IsPrint(rune(b)) {
				sb.WriteByte(b)
			} else {
				sb.WriteString(fmt.Sprintf("\\%03o", b))
			}
		}
	}
	return sb.String()
}
