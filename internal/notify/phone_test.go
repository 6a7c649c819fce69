package notify

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"local trunk prefix", "08031234567", "2348031234567"},
		{"e164 with plus", "+2348031234567", "2348031234567"},
		{"already normalized", "2348031234567", "2348031234567"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"internal whitespace stripped", " 0803 123 4567 ", "2348031234567"},
		{"bare plus", "+", ""},
		{"short local number untouched", "0803123", "0803123"},
		{"foreign number untouched", "4915731234567", "4915731234567"},
		{"plus foreign keeps digits", "+4915731234567", "4915731234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
