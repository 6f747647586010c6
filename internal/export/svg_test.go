package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/femsim/internal/mesh"
	"github.com/san-kum/femsim/internal/viz"
)

func TestWireframeSVG(t *testing.T) {
	ground := mesh.Ground(1, 0)
	cam := viz.NewCamera()
	cam.Frame([]mesh.Surface{ground})

	var buf bytes.Buffer
	if err := WireframeSVG(&buf, viz.WireframeOf([]mesh.Surface{ground}), cam, 200, 100, "#00ff00"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("not a complete document:\n%s", out)
	}
	if got := strings.Count(out, "<line "); got != 5 {
		t.Errorf("lines = %d, want 5", got)
	}
	if !strings.Contains(out, `width="200" height="100"`) {
		t.Error("size missing")
	}
}

func TestTraceSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := TraceSVG(&buf, []float64{0, 1, 2}, []float64{1, 0, 1}, 100, 50, "red"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Count(out, " L") != 2 {
		t.Errorf("path segments:\n%s", out)
	}
	// x = 0.2/2.4 of the width, y = 50 - 1.1/1.2 of the height
	if !strings.Contains(out, `d="M8.3,4.2`) {
		t.Errorf("first point:\n%s", out)
	}

	if err := TraceSVG(&buf, []float64{0}, []float64{0}, 10, 10, "red"); err == nil {
		t.Error("single point accepted")
	}
}
