package frame

import (
	"fmt"
	"strconv"
)

// JoinKind selects which side's rows survive a Merge.
type JoinKind string

const (
	Inner JoinKind = "inner"
	Left  JoinKind = "left"
	Right JoinKind = "right"
)

// Merge joins left and right on the key column.
//
// Output columns are left's columns followed by right's non-key columns. Any
// other name present on both sides gets an "_x" (left) or "_y" (right)
// suffix. Row order follows left for inner and left joins and right for
// right joins; a key matching several rows yields one output row per pair.
// Missing keys never match.
func Merge(left, right *Table, key string, how JoinKind) (*Table, error) {
	lkey, ok := left.Column(key)
	if !ok {
		return nil, fmt.Errorf("merging: left %q: %w", key, ErrUnknownColumn)
	}
	rkey, ok := right.Column(key)
	if !ok {
		return nil, fmt.Errorf("merging: right %q: %w", key, ErrUnknownColumn)
	}

	var li, ri []int
	switch how {
	case Inner, Left:
		index := keyIndex(rkey)
		for i := 0; i < left.rows; i++ {
			matches := lookup(index, lkey, i)
			if len(matches) == 0 && how == Left {
				li, ri = append(li, i), append(ri, -1)
			}
			for _, j := range matches {
				li, ri = append(li, i), append(ri, j)
			}
		}
	case Right:
		index := keyIndex(lkey)
		for j := 0; j < right.rows; j++ {
			matches := lookup(index, rkey, j)
			if len(matches) == 0 {
				li, ri = append(li, -1), append(ri, j)
			}
			for _, i := range matches {
				li, ri = append(li, i), append(ri, j)
			}
		}
	default:
		return nil, fmt.Errorf("merging: unknown join %q", how)
	}

	shared := make(map[string]bool)
	for _, c := range left.cols {
		if c.Name != key && right.Has(c.Name) {
			shared[c.Name] = true
		}
	}

	out := New(len(li))
	for _, c := range left.cols {
		if c.Name == key {
			out.cols = append(out.cols, mergeKey(lkey, rkey, li, ri))
			continue
		}
		col := c.gather(li)
		if shared[c.Name] {
			col = col.rename(c.Name + "_x")
		}
		out.cols = append(out.cols, col)
	}
	for _, c := range right.cols {
		if c.Name == key {
			continue
		}
		col := c.gather(ri)
		if shared[c.Name] {
			col = col.rename(c.Name + "_y")
		}
		out.cols = append(out.cols, col)
	}
	return out, nil
}

// mergeKey takes each key from whichever side matched the row.
func mergeKey(lkey, rkey *Column, li, ri []int) *Column {
	fromLeft := lkey.gather(li)
	fromRight := rkey.gather(ri)
	if fromLeft.Kind != fromRight.Kind {
		return fromLeft
	}
	for i := range li {
		if li[i] >= 0 {
			continue
		}
		if fromLeft.Kind == String {
			fromLeft.Str[i] = fromRight.Str[i]
			fromLeft.Missing[i] = fromRight.Missing[i]
		} else {
			fromLeft.Num[i] = fromRight.Num[i]
		}
	}
	return fromLeft
}

func keyIndex(c *Column) map[string][]int {
	index := make(map[string][]int, c.Len())
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		k := keyString(c, i)
		index[k] = append(index[k], i)
	}
	return index
}

func lookup(index map[string][]int, c *Column, i int) []int {
	if c.IsMissing(i) {
		return nil
	}
	return index[keyString(c, i)]
}

func keyString(c *Column, i int) string {
	if c.Kind == String {
		return c.Str[i]
	}
	return strconv.FormatFloat(c.Num[i], 'f', -1, 64)
}
