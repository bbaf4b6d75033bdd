package quizdoc

import (
	"fmt"
	"strings"
	"unicode"
)

// repairJSON rewrites the defects generated JSON most often has so that
// encoding/json accepts it:
//   - single-quoted and typographic-quoted strings become double-quoted,
//     with \' unescaped and bare " escaped
//   - raw newlines, tabs and carriage returns inside strings are escaped
//   - bare-word object keys are quoted
//   - trailing commas before } and ] are removed
//
// Text inside strings is otherwise copied verbatim, so valid JSON comes
// out unchanged.
func repairJSON(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case opensString(r):
			i = writeString(&b, rs, i)
		case r == ',':
			if next := nextSignificant(rs, i+1); next == '}' || next == ']' {
				continue
			}
			b.WriteRune(r)
		case isKeyStart(r):
			j := i
			for j < len(rs) && isKeyPart(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			if nextSignificant(rs, j) == ':' {
				b.WriteByte('"')
				b.WriteString(word)
				b.WriteByte('"')
			} else {
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeString copies the string literal starting at rs[start] as a
// double-quoted JSON string and returns the index of its closing quote.
// An unterminated literal is closed at end of input.
func writeString(b *strings.Builder, rs []rune, start int) int {
	open := rs[start]
	b.WriteByte('"')
	for i := start + 1; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs):
			i++
			if rs[i] == '\'' {
				b.WriteRune('\'')
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(rs[i])
		case closesString(open, r):
			b.WriteByte('"')
			return i
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return len(rs) - 1
}

func opensString(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘':
		return true
	}
	return false
}

// closesString reports whether r terminates a literal opened by open.
// Straight quotes only close straight quotes, so apostrophes and
// typographic quotes inside ordinary strings survive.
func closesString(open, r rune) bool {
	switch open {
	case '"':
		return r == '"'
	case '\'':
		return r == '\''
	case '“', '”':
		return r == '”' || r == '"'
	case '‘':
		return r == '’' || r == '\''
	}
	return false
}

func nextSignificant(rs []rune, from int) rune {
	for i := from; i < len(rs); i++ {
		if !unicode.IsSpace(rs[i]) {
			return rs[i]
		}
	}
	return 0
}

func isKeyStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isKeyPart(r rune) bool {
	return isKeyStart(r) || unicode.IsDigit(r) || r == '-'
}
