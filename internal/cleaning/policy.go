package cleaning

// Policy is the action chosen for a column from its missing percentage.
type Policy string

const (
	PolicyNone    Policy = "none"
	PolicyImpute  Policy = "impute"
	PolicyExclude Policy = "exclude"
	PolicyDrop    Policy = "drop"
)

const (
	dropAbove       = 70.0
	excludeAbove    = 40.0
	highMissingFrom = 10.0
)

// PolicyDecision records the policy for one column and the inputs it was
// derived from.
type PolicyDecision struct {
	Column         string     `json:"column" yaml:"column"`
	Policy         Policy     `json:"policy" yaml:"policy"`
	Reason         string     `json:"reason" yaml:"reason"`
	MissingPercent float64    `json:"missing_percent" yaml:"missing_percent"`
	ColumnType     ColumnType `json:"column_type" yaml:"column_type"`
	HighMissing    bool       `json:"high_missing_warning" yaml:"high_missing_warning"`
}

// policyBand is one mutually exclusive slice of [0, 100]. Bands are checked
// in order; boundary values fall into the lower band.
type policyBand struct {
	Policy Policy
	Reason string
	Match  func(pct float64) bool
}

var policyBands = []policyBand{
	{PolicyDrop, "more than 70% missing", func(p float64) bool { return p > dropAbove }},
	{PolicyExclude, "40-70% missing, unreliable for visualization", func(p float64) bool { return p > excludeAbove }},
	{PolicyNone, "no missing values", func(p float64) bool { return p == 0 }},
	{PolicyImpute, "missing values filled", func(float64) bool { return true }},
}

// Decide maps a missing percentage and column type to a policy. It is a pure
// function of its arguments.
func Decide(column string, pct float64, typ ColumnType) PolicyDecision {
	d := PolicyDecision{Column: column, MissingPercent: pct, ColumnType: typ}
	for _, b := range policyBands {
		if b.Match(pct) {
			d.Policy = b.Policy
			d.Reason = b.Reason
			break
		}
	}
	if d.Policy == PolicyImpute {
		d.HighMissing = pct >= highMissingFrom
		if typ == Identifier {
			d.Reason = "identifier column, imputation not meaningful"
		}
	}
	return d
}
