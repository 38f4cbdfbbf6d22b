package features

import (
	"fmt"
	"sort"

	"github.com/fraudline-dev/fraudline/internal/frame"
	"github.com/fraudline-dev/fraudline/internal/schema"
)

// ExplodeCategoricals replaces every string column c with 0/1 indicator
// columns named c_<value>, one per distinct value in sorted order, appended
// at the end of the table. Names pass through schema.FeatureName so they
// match the names a trained model records. With keepNA an extra c_nan indicator marks
// missing cells; without it missing cells are all-zero.
//
// Indicator names may collide with existing columns (a literal "nan"
// category next to the c_nan indicator, for example). Collisions are kept
// as duplicate columns for the caller to resolve.
func ExplodeCategoricals(t *frame.Table, keepNA bool) (*frame.Table, error) {
	var categorical []*frame.Column
	for _, c := range t.Columns() {
		if c.Kind == frame.String {
			categorical = append(categorical, c)
		}
	}
	if len(categorical) == 0 {
		return t, nil
	}

	names := make([]string, len(categorical))
	for i, c := range categorical {
		names[i] = c.Name
	}
	out := t.Drop(names...)

	for _, c := range categorical {
		for _, d := range dummies(c, keepNA) {
			if err := out.Append(d); err != nil {
				return nil, fmt.Errorf("exploding %q: %w", c.Name, err)
			}
		}
	}
	return out, nil
}

func dummies(c *frame.Column, keepNA bool) []*frame.Column {
	seen := make(map[string]bool)
	var levels []string
	for i, v := range c.Str {
		if c.Missing[i] || seen[v] {
			continue
		}
		seen[v] = true
		levels = append(levels, v)
	}
	sort.Strings(levels)

	pos := make(map[string]int, len(levels))
	cols := make([][]float64, len(levels))
	for k, v := range levels {
		pos[v] = k
		cols[k] = make([]float64, len(c.Str))
	}
	var na []float64
	if keepNA {
		na = make([]float64, len(c.Str))
	}

	for i, v := range c.Str {
		if c.Missing[i] {
			if keepNA {
				na[i] = 1
			}
			continue
		}
		cols[pos[v]][i] = 1
	}

	out := make([]*frame.Column, 0, len(levels)+1)
	for k, v := range levels {
		out = append(out, frame.NumericColumn(schema.FeatureName(c.Name+"_"+v), cols[k]))
	}
	if keepNA {
		out = append(out, frame.NumericColumn(c.Name+"_nan", na))
	}
	return out
}
