package rsyntax

import (
	"slices"
	"strings"
)

const backtick = '`'

var reservedIdentifiers = []string{
	"if",
	"else",
	"repeat",
	"while",
	"function",
	"for",
	"in",
	"next",
	"break",
	"TRUE",
	"FALSE",
	"NULL",
	"Inf",
	"NaN",
	"NA",
	"NA_integer_",
	"NA_real_",
	"NA_complex_",
	"NA_character_",
}

// IsReserved reports whether id is a reserved word of the interpreter.
func IsReserved(id string) bool {
	return slices.Contains(reservedIdentifiers, id)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IdentifierFromReadableName converts a human readable name into an identifier.
// Spaces become underscores. The first character must be an ASCII letter; the rest may be
// letters, digits, underscores or spaces.
func IdentifierFromReadableName(name string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(name))

	for i, r := range name {
		switch {
		case r == ' ':
			if i == 0 {
				return "", startError(name, r)
			}
			sb.WriteByte('_')
		case r == '_' || (r < 0x80 && isDigit(byte(r))):
			if i == 0 {
				return "", startError(name, r)
			}
			sb.WriteRune(r)
		case r < 0x80 && isLetter(byte(r)):
			sb.WriteRune(r)
		default:
			return "", newSyntaxError(name,
				"Name cannot contain '%c'. Legal values are '_', 'a'-'z', 'A'-'Z', '0'-'9' and spaces.", r)
		}
	}

	id := sb.String()
	if IsReserved(id) {
		return "", newSyntaxError(name,
			"The name %q clashes with a reserved identifier. Please change it.", name)
	}
	return id, nil
}

func startError(name string, r rune) *SyntaxError {
	return newSyntaxError(name,
		"Name cannot start with '%c'. Legal starting characters are 'a'-'z' and 'A'-'Z'", r)
}

// ReadableNameFromIdentifier reverses IdentifierFromReadableName.
func ReadableNameFromIdentifier(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}

// ReadableNameError returns the message explaining why name cannot become an identifier,
// or "" if it can.
func ReadableNameError(name string) string {
	if _, err := IdentifierFromReadableName(name); err != nil {
		return err.Error()
	}
	return ""
}

// QuoteIfRequired wraps id in back-ticks when it is reserved or is not a plain identifier.
func QuoteIfRequired(id string) (string, error) {
	if id == "" {
		return "", newSyntaxError(id, "identifier name cannot be empty")
	}
	if strings.IndexByte(id, backtick) >= 0 {
		return "", newSyntaxError(id, "Back-ticks '`' are not permitted in identifier names")
	}

	quote := !isLetter(id[0]) || IsReserved(id)
	for i := 1; i < len(id) && !quote; i++ {
		c := id[i]
		quote = !(isLetter(c) || isDigit(c) || c == '_' || c == '.')
	}

	if quote {
		return string(backtick) + id + string(backtick), nil
	}
	return id, nil
}
