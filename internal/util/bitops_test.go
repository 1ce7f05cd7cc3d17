package util

import "testing"

func TestAlign(t *testing.T) {
	tests := []struct {
		addr      int
		alignment int
		expected  int
	}{
		{0, 16, 0},
		{1, 16, 16},
		{8, 8, 8},
		{16, 16, 16},
		{24, 16, 32},
		{40, 16, 48},
		{9, 8, 16},
	}

	for _, test := range tests {
		result := Align(test.addr, test.alignment)
		if result != test.expected {
			t.Errorf("Align(%d, %d) = %d, expected %d", test.addr, test.alignment, result, test.expected)
		}
	}
}
