package cleaning

import "github.com/KaramelBytes/tidyset-cli/internal/table"

// RemoveDuplicates keeps the first occurrence of every distinct row and
// returns the number of rows removed. Missing cells compare equal to each other.
func RemoveDuplicates(t *table.Table) (*table.Table, int) {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		k := t.RowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	return t.SelectRows(keep), t.NumRows() - len(keep)
}
