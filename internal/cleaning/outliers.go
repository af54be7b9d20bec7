package cleaning

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

const outlierZ = 3.0

// DetectOutliers counts values with |z| > 3 in every numeric column of t
// that has no missing cells. Constant columns are skipped and columns with
// no outliers are omitted from the result.
func DetectOutliers(t *table.Table, types map[string]ColumnType) map[string]int {
	out := map[string]int{}
	for _, c := range t.Columns() {
		if types[c.Name] != Numeric || c.Kind != table.KindNumber {
			continue
		}
		if c.NullCount() > 0 || c.Len() == 0 {
			continue
		}
		if n := countOutliers(c.Floats()); n > 0 {
			out[c.Name] = n
		}
	}
	return out
}

func countOutliers(vals []float64) int {
	mean, std := stat.PopMeanStdDev(vals, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	n := 0
	for _, v := range vals {
		if math.Abs((v-mean)/std) > outlierZ {
			n++
		}
	}
	return n
}
