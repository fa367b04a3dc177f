package puzzle

import "strings"

// Token is one ply in standard algebraic notation, e.g. "Qg6+", "Rxg6#", "e8=Q".
type Token string

// Normalize strips trailing check/mate decoration and spells castling and
// promotion the way the rules engine encodes them.
func (t Token) Normalize() Token {
	s := strings.TrimSpace(string(t))
	s = strings.TrimRight(s, "+#")
	switch s {
	case "0-0":
		s = "O-O"
	case "0-0-0":
		s = "O-O-O"
	}
	// e8Q -> e8=Q
	if n := len(s); n >= 3 && strings.ContainsRune("QRBN", rune(s[n-1])) &&
		s[n-2] >= '1' && s[n-2] <= '8' {
		s = s[:n-1] + "=" + s[n-1:]
	}
	return Token(s)
}

// Equivalent reports whether a and b denote the same move once normalized.
// An empty token is never equivalent to anything.
func Equivalent(a, b Token) bool {
	na, nb := a.Normalize(), b.Normalize()
	return na != "" && na == nb
}

func (t Token) String() string { return string(t) }
