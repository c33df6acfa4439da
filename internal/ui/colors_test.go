package ui

import "testing"

func TestColorForRelativeError(t *testing.T) {
	SetCurrentTheme(DarkTheme)
	defer SetCurrentTheme(DarkTheme)

	const ceiling = 1e-2

	cases := []struct {
		name   string
		relErr float64
		want   string
	}{
		{"comfortably under ceiling", 1e-4, ColorGreen()},
		{"within a factor of 10", 2e-3, ColorYellow()},
		{"at ceiling", ceiling, ColorRed()},
		{"beyond ceiling", 1.0, ColorRed()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ColorForRelativeError(tc.relErr, ceiling)
			if got != tc.want {
				t.Errorf("ColorForRelativeError(%v, %v) = %q, want %q", tc.relErr, ceiling, got, tc.want)
			}
		})
	}
}
