package email

import "testing"

func TestFormatKRW(t *testing.T) {
	tests := []struct {
		price int64
		want  string
	}{
		{0, "0원"},
		{999, "999원"},
		{1000, "1,000원"},
		{450000, "450,000원"},
		{1234567, "1,234,567원"},
	}
	for _, tt := range tests {
		if got := formatKRW(tt.price); got != tt.want {
			t.Errorf("formatKRW(%d) = %q, want %q", tt.price, got, tt.want)
		}
	}
}
