package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agbru/fmmeval/internal/evaluator"
	"github.com/agbru/fmmeval/internal/service"
	"github.com/agbru/fmmeval/internal/testutil"
	"github.com/agbru/fmmeval/internal/ui"
	"github.com/agbru/fmmeval/pkg/geom"
)

// TestDisplayResultStripsToPlainText verifies that DisplayResult's colored
// output, once run through testutil.StripAnsiCodes, reads as plain text
// containing the expected body count, mode, kernel, and statistics, the
// same way CLI output assertions in this codebase avoid depending on exact
// escape sequences.
func TestDisplayResultStripsToPlainText(t *testing.T) {
	ui.SetCurrentTheme(ui.DarkTheme)
	defer ui.SetCurrentTheme(ui.DarkTheme)

	res := &service.Result{
		Points:  []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
		Charges: []float64{1, 1},
		Results: []float64{2, 2},
		Stats:   evaluator.Stats{PairsVisited: 1, FarField: 0, P2P: 1},
	}

	var buf bytes.Buffer
	DisplayResult(res, "fmm", "coulomb", 0, true, true, &buf)

	raw := buf.String()
	if !strings.Contains(raw, "\033[") {
		t.Fatalf("expected colored output to contain ANSI escape codes, got %q", raw)
	}

	plain := testutil.StripAnsiCodes(raw)
	if strings.Contains(plain, "\033[") {
		t.Errorf("StripAnsiCodes left an escape code in output: %q", plain)
	}
	for _, want := range []string{"2 bodies", "fmm", "coulomb", "Pairs visited : 1", "Far-field (M2L/M2P) : 0", "Direct (P2P) : 1"} {
		if !strings.Contains(plain, want) {
			t.Errorf("plain output missing %q, got %q", want, plain)
		}
	}
}
