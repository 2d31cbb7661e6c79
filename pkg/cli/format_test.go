package cli

import "testing"

func TestColorWrapping(t *testing.T) {
	old := colorEnabled
	defer func() { colorEnabled = old }()

	colorEnabled = true
	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"green", Green, "\033[32mok\033[0m"},
		{"yellow", Yellow, "\033[33mok\033[0m"},
		{"red", Red, "\033[31mok\033[0m"},
		{"bold", Bold, "\033[1mok\033[0m"},
	}
	for _, tt := range tests {
		if got := tt.fn("ok"); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}

	colorEnabled = false
	for _, tt := range tests {
		if got := tt.fn("ok"); got != "ok" {
			t.Errorf("%s with colors disabled = %q, want plain text", tt.name, got)
		}
	}
}
