package colorcode

import (
	"errors"
	"testing"
)

func TestLetter(t *testing.T) {
	tests := []struct {
		color  string
		letter string
	}{
		{"White", "E"},
		{"Brown", "C"},
		{"Coal Gray", "K"},
		{"Musket Brown", "M"},
		{"Light Gray", "L"},
		{"Green", "N"},
	}

	for _, tt := range tests {
		got, err := Letter(tt.color)
		if err != nil {
			t.Errorf("Letter(%q) returned error: %v", tt.color, err)
			continue
		}
		if got != tt.letter {
			t.Errorf("Letter(%q) = %q, want %q", tt.color, got, tt.letter)
		}
	}
}

func TestLetterUnknownColor(t *testing.T) {
	for _, color := range []string{"Turquoise", "", "white", "Gray"} {
		_, err := Letter(color)
		if !errors.Is(err, ErrUnknownColor) {
			t.Errorf("Letter(%q) error = %v, want ErrUnknownColor", color, err)
		}
	}
}

func TestItemNumber(t *testing.T) {
	tests := []struct {
		partNumber string
		letter     string
		want       string
	}{
		{"128", "E", "128E"},
		{"  100", "C", "100C"},
		{"340 ", "K", "340K"},
	}

	for _, tt := range tests {
		if got := ItemNumber(tt.partNumber, tt.letter); got != tt.want {
			t.Errorf("ItemNumber(%q, %q) = %q, want %q", tt.partNumber, tt.letter, got, tt.want)
		}
	}
}

func TestKnownCoversTable(t *testing.T) {
	names := Known()
	if len(names) != 14 {
		t.Fatalf("Known() returned %d colors, want 14", len(names))
	}
	for _, name := range names {
		if _, err := Letter(name); err != nil {
			t.Errorf("Known() color %q does not resolve: %v", name, err)
		}
	}
}
