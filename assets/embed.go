package assets

import (
	"embed"
)

//go:embed puzzles.pgn
var FS embed.FS

// Puzzles returns the bundled puzzle feed.
func Puzzles() (string, error) {
	b, err := FS.ReadFile("puzzles.pgn")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
