package analysis

import (
	"strings"
)

// SweepPoint is the response observed for one parameter value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

// Probe runs one experiment at param and returns its response values.
type Probe func(param float64) ([]float64, error)

// Sweep evaluates probe at steps evenly spaced values in [min, max]. It
// stops at the first probe error and returns the points gathered so far.
func Sweep(min, max float64, steps int, probe Probe) ([]SweepPoint, error) {
	if steps <= 1 {
		steps = 2
	}
	step := (max - min) / float64(steps-1)

	results := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		param := min + float64(i)*step
		values, err := probe(param)
		if err != nil {
			return results, err
		}
		results = append(results, SweepPoint{Param: param, Values: values})
	}
	return results, nil
}

// DistinctValues quantizes series to the given resolution and keeps the
// first value of each bucket, in order.
func DistinctValues(series []float64, resolution float64) []float64 {
	if resolution <= 0 {
		resolution = 1e-3
	}
	values := make([]float64, 0)
	seen := make(map[int64]bool)
	for _, v := range series {
		key := int64(v / resolution)
		if !seen[key] {
			seen[key] = true
			values = append(values, v)
		}
	}
	return values
}

// SweepToASCII plots every value of every point, one column per parameter.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newCanvas(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return render(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	return canvas
}

func render(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
