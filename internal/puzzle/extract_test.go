package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMateInOne(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Token
	}{
		{"plain", "1.Qh7#", "Qh7#"},
		{"spaced", "1. Qa8# 1-0", "Qa8#"},
		{"comment first", "{White mates} 1.Rxg6#", "Rxg6#"},
		{"black to move", "1...Qh2# 0-1", "Qh2#"},
		{"promotion", "1.e8=Q#", "e8=Q#"},
		{"castling", "1.O-O-O#", "O-O-O#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := Extract(Record{Category: MateInOne, MoveText: tt.text})
			assert.Equal(t, tt.want, sol.First)
			assert.Empty(t, sol.Reply)
			assert.Empty(t, sol.Mate)
			assert.True(t, sol.Complete(MateInOne))
		})
	}
}

func TestExtractMateInOneNoMatch(t *testing.T) {
	sol := Extract(Record{Category: MateInOne, MoveText: "{no moves here} *"})
	assert.Equal(t, Solution{}, sol)
	assert.False(t, sol.Complete(MateInOne))
	assert.Equal(t, "first move", sol.Missing(MateInOne))
}

func TestExtractMateInTwoVariantsAgree(t *testing.T) {
	want := Solution{First: "Qg6+", Reply: "Kh8", Mate: "Qg7#"}
	variants := map[string]string{
		"plain":                 "1.Qg6+ Kh8 2.Qg7# *",
		"plain spaced":          "1. Qg6+ Kh8 2. Qg7# 1-0",
		"black marker":          "1.Qg6+ 1...Kh8 2.Qg7#",
		"bare ellipsis":         "1.Qg6+ ... Kh8 2.Qg7#",
		"punctuation":           "1.Qg6+! -- Kh8 -- 2.Qg7#",
		"comment between moves": "1.Qg6+ {the only check} Kh8 2.Qg7#",
		"comment remnant":       "1.Qg6+!! ,Kh8 2.Qg7#",
		"variation":             "1.Qg6+ (1.Qd8+ Kh7) Kh8 2.Qg7#",
		"nag":                   "1.Qg6+ $1 Kh8 2.Qg7#",
		"multiline":             "1.Qg6+\nKh8\n2.Qg7#",
		"annotated marker":      "1.Qg6+! 1...Kh8 2.Qg7#",
		"annotated plain":       "1.Qg6+!! Kh8? 2.Qg7#!",
		"annotated ellipsis":    "1.Qg6+?! ... Kh8 2.Qg7#",
	}
	for name, text := range variants {
		t.Run(name, func(t *testing.T) {
			sol := Extract(Record{Category: MateInTwo, MoveText: text})
			assert.Equal(t, want, sol)
			assert.True(t, sol.Complete(MateInTwo))
		})
	}
}

func TestExtractMateInTwoBlackFirst(t *testing.T) {
	sol := Extract(Record{Category: MateInTwo, MoveText: "1...Qg3+ 2.Kh1 Qg2# 0-1"})
	assert.Equal(t, Solution{First: "Qg3+", Reply: "Kh1", Mate: "Qg2#"}, sol)
}

func TestExtractMateInTwoIncomplete(t *testing.T) {
	for _, text := range []string{"1.Qg6+ Kh8", "1.Qg6+", "", "*"} {
		sol := Extract(Record{Category: MateInTwo, MoveText: text})
		assert.Equal(t, Solution{}, sol, text)
		assert.False(t, sol.Complete(MateInTwo))
	}
}

func TestMateInTwoStrategyOrder(t *testing.T) {
	names := make([]string, 0, len(MateInTwoStrategies))
	for _, st := range MateInTwoStrategies {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"plain", "black-to-move-marker", "punctuation-separated", "black-first"}, names)

	// each variant is caught by its own strategy and not by a stricter one
	_, ok := MateInTwoStrategies[0].Match("1.Qg6+ 1...Kh8 2.Qg7#")
	assert.False(t, ok)
	_, ok = MateInTwoStrategies[1].Match("1.Qg6+ 1...Kh8 2.Qg7#")
	assert.True(t, ok)
	_, ok = MateInTwoStrategies[1].Match("1.Qg6+! -- Kh8 -- 2.Qg7#")
	assert.False(t, ok)
	_, ok = MateInTwoStrategies[2].Match("1.Qg6+! -- Kh8 -- 2.Qg7#")
	assert.True(t, ok)
}

func TestCleanMoveText(t *testing.T) {
	got := CleanMoveText("1.Qg6+ {check (forced)} Kh8 ; the king hides\n(1...Kf8 2.Qf7#) 2.Qg7# $3 1-0")
	assert.Equal(t, "1.Qg6+ Kh8 2.Qg7#", got)
	assert.NotContains(t, got, "check")
}

func TestSolutionMissing(t *testing.T) {
	assert.Equal(t, "opponent response", Solution{First: "Qg6+"}.Missing(MateInTwo))
	assert.Equal(t, "mate move", Solution{First: "Qg6+", Reply: "Kh8"}.Missing(MateInTwo))
	assert.Equal(t, "", Solution{First: "Qg6+", Reply: "Kh8", Mate: "Qg7#"}.Missing(MateInTwo))
	assert.Equal(t, "", Solution{First: "Qa8#"}.Missing(MateInOne))
}
