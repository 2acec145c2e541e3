package quality

import (
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// MaxPartialUnexpected caps the sample of failing values kept per outcome.
const MaxPartialUnexpected = 20

// Outcome is the evaluation of one assertion.
type Outcome struct {
	Kind              string   `json:"expectation_type" bson:"expectation_type"`
	Column            string   `json:"column" bson:"column"`
	Success           bool     `json:"success" bson:"success"`
	ElementCount      int      `json:"element_count" bson:"element_count"`
	UnexpectedCount   int      `json:"unexpected_count" bson:"unexpected_count"`
	UnexpectedPercent float64  `json:"unexpected_percent" bson:"unexpected_percent"`
	PartialUnexpected []string `json:"partial_unexpected_list,omitempty" bson:"partial_unexpected_list,omitempty"`
	Error             string   `json:"error,omitempty" bson:"error,omitempty"`
}

// Result is one validation of one batch against one suite.
type Result struct {
	ID          string    `json:"id" bson:"_id"`
	Suite       string    `json:"suite" bson:"suite"`
	Engine      string    `json:"engine" bson:"engine"`
	Success     bool      `json:"success" bson:"success"`
	Skipped     bool      `json:"skipped,omitempty" bson:"skipped,omitempty"`
	Evaluated   int       `json:"evaluated_expectations" bson:"evaluated_expectations"`
	Failed      int       `json:"unsuccessful_expectations" bson:"unsuccessful_expectations"`
	RowCount    int       `json:"row_count" bson:"row_count"`
	Outcomes    []Outcome `json:"results" bson:"results"`
	EvaluatedAt time.Time `json:"evaluated_at" bson:"evaluated_at"`
}

// FailedOutcomes returns the outcomes that did not succeed.
func (r *Result) FailedOutcomes() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Evaluate runs every assertion of s against b. It only reads b.
func Evaluate(s Suite, b *models.Batch) *Result {
	res := &Result{
		ID:          uuid.NewString(),
		Suite:       s.Name,
		Success:     true,
		RowCount:    b.Len(),
		Outcomes:    make([]Outcome, 0, len(s.Assertions)),
		EvaluatedAt: time.Now().UTC(),
	}
	for _, a := range s.Assertions {
		o := evaluate(a, b)
		res.Outcomes = append(res.Outcomes, o)
		res.Evaluated++
		if !o.Success {
			res.Failed++
			res.Success = false
		}
	}
	return res
}

func evaluate(a Assertion, b *models.Batch) Outcome {
	o := Outcome{Kind: a.Kind(), Column: a.Target()}

	switch v := a.(type) {
	case ColumnExists:
		o.Success = b.HasColumn(v.Column)
		if !o.Success {
			o.Error = "column not found"
		}
		return o

	case ValueInSet:
		if !b.HasColumn(v.Column) {
			o.Error = "column not found"
			return o
		}
		allowed := make(map[string]bool, len(v.Values))
		for _, s := range v.Values {
			allowed[s] = true
		}
		countValues(&o, b.Column(v.Column), func(s string) bool { return !allowed[s] })

	case NotMatchesPattern:
		if !b.HasColumn(v.Column) {
			o.Error = "column not found"
			return o
		}
		if v.Pattern == nil {
			o.Error = "no pattern"
			return o
		}
		countValues(&o, b.Column(v.Column), v.Pattern.MatchString)

	default:
		o.Error = "unsupported assertion"
		return o
	}

	o.Success = o.UnexpectedCount == 0
	return o
}

// countValues fills the counters of o. Nil values are not counted.
func countValues(o *Outcome, values []interface{}, unexpected func(string) bool) {
	for _, v := range values {
		if v == nil {
			continue
		}
		o.ElementCount++
		s := utils.ToText(v)
		if !unexpected(s) {
			continue
		}
		o.UnexpectedCount++
		if len(o.PartialUnexpected) < MaxPartialUnexpected {
			o.PartialUnexpected = append(o.PartialUnexpected, s)
		}
	}
	if o.ElementCount > 0 {
		o.UnexpectedPercent = 100 * float64(o.UnexpectedCount) / float64(o.ElementCount)
	}
}
