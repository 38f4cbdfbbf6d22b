// Package schema holds the feature contract between a trained classifier and
// the tables scored against it.
package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fraudline-dev/fraudline/internal/frame"
)

// ErrSchemaMismatch means a table could not be conformed to a feature list.
// It is never retried; the run must stop.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Report lists what Reconcile had to change.
type Report struct {
	Filled  []string // in the list, absent from the table; zero-filled
	Dropped []string // in the table, absent from the list
}

// Reconcile conforms t to fl: absent features become all-zero numeric
// columns, columns outside fl are dropped, and the result is ordered exactly
// as fl. t is not modified.
//
// Column names in t must be unique. A duplicated name survives as two
// columns and trips the final width check.
func Reconcile(t *frame.Table, fl FeatureList) (*frame.Table, Report, error) {
	var rep Report
	if err := fl.Validate(); err != nil {
		return nil, rep, err
	}

	pos := fl.Index()
	present := make(map[string]bool, len(fl))
	var kept []*frame.Column
	for _, c := range t.Columns() {
		if _, ok := pos[c.Name]; !ok {
			rep.Dropped = append(rep.Dropped, c.Name)
			continue
		}
		present[c.Name] = true
		kept = append(kept, c)
	}

	for _, name := range fl {
		if present[name] {
			continue
		}
		rep.Filled = append(rep.Filled, name)
		kept = append(kept, frame.NumericColumn(name, make([]float64, t.Rows())))
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return pos[kept[i].Name] < pos[kept[j].Name]
	})

	if len(kept) != len(fl) {
		return nil, rep, fmt.Errorf("reconciled %d columns for %d features (duplicates: %v): %w",
			len(kept), len(fl), t.Duplicates(), ErrSchemaMismatch)
	}

	out := frame.New(t.Rows())
	for _, c := range kept {
		if err := out.Add(c); err != nil {
			return nil, rep, fmt.Errorf("reconciling: %w", err)
		}
	}
	return out, rep, nil
}
