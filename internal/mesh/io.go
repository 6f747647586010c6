package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/geom"
)

// ParseError reports a malformed line in a .mesh file.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mesh: line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalid
}

// Read parses the .mesh text format. Tetrahedron indices are range-checked
// against the vertices read from the whole file.
func Read(r io.Reader) (Mesh, error) {
	var m Mesh
	type pending struct {
		line int
		tet  geom.Tet
	}
	var tets []pending

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			if len(fields) != 4 {
				return Mesh{}, &ParseError{Line: line, Reason: "vertex needs 3 coordinates"}
			}
			var v mgl64.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return Mesh{}, &ParseError{Line: line, Reason: err.Error()}
				}
				v[i] = f
			}
			m.Vertices = append(m.Vertices, v)
		case "t":
			if len(fields) != 5 {
				return Mesh{}, &ParseError{Line: line, Reason: "tetrahedron needs 4 indices"}
			}
			var t geom.Tet
			for i := 0; i < 4; i++ {
				n, err := strconv.Atoi(fields[i+1])
				if err != nil {
					return Mesh{}, &ParseError{Line: line, Reason: err.Error()}
				}
				t[i] = n
			}
			tets = append(tets, pending{line: line, tet: t})
		default:
			return Mesh{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown record %q", fields[0])}
		}
	}
	if err := sc.Err(); err != nil {
		return Mesh{}, fmt.Errorf("mesh: read: %w", err)
	}

	for _, p := range tets {
		for _, n := range p.tet {
			if n < 0 || n >= len(m.Vertices) {
				return Mesh{}, &ParseError{Line: p.line, Reason: fmt.Sprintf("index %d out of range", n)}
			}
		}
		m.Tets = append(m.Tets, p.tet)
	}
	if len(m.Tets) == 0 {
		return Mesh{}, fmt.Errorf("%w: no tetrahedra", ErrInvalid)
	}
	return m, nil
}

func Load(path string) (Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mesh{}, err
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return Mesh{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Write emits m in the .mesh text format.
func Write(w io.Writer, m Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
	}
	for _, t := range m.Tets {
		fmt.Fprintf(bw, "t %d %d %d %d\n", t[0], t[1], t[2], t[3])
	}
	return bw.Flush()
}

func Save(path string, m Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
