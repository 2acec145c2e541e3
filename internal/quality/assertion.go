// Package quality evaluates observe-only data quality assertions over a
// transformed batch and records the results.
package quality

import (
	"fmt"
	"regexp"

	"github.com/BartekS5/flightetl/pkg/models"
)

// Assertion kinds as they appear in stored suites and results.
const (
	KindColumnExists      = "expect_column_to_exist"
	KindValueInSet        = "expect_column_values_to_be_in_set"
	KindNotMatchesPattern = "expect_column_values_to_not_match_regex"
)

// Assertion is one expectation about a batch. The set of implementations is
// closed; Evaluate handles each of them explicitly.
type Assertion interface {
	Kind() string
	Target() string
	sealed()
}

// ColumnExists expects Column to be present in the batch.
type ColumnExists struct {
	Column string
}

// ValueInSet expects every non-null value of Column to be one of Values.
type ValueInSet struct {
	Column string
	Values []string
}

// NotMatchesPattern expects no non-null value of Column to match Pattern.
type NotMatchesPattern struct {
	Column  string
	Pattern *regexp.Regexp
}

func (ColumnExists) Kind() string      { return KindColumnExists }
func (ValueInSet) Kind() string        { return KindValueInSet }
func (NotMatchesPattern) Kind() string { return KindNotMatchesPattern }

func (a ColumnExists) Target() string      { return a.Column }
func (a ValueInSet) Target() string        { return a.Column }
func (a NotMatchesPattern) Target() string { return a.Column }

func (ColumnExists) sealed()      {}
func (ValueInSet) sealed()        {}
func (NotMatchesPattern) sealed() {}

// NewNotMatchesPattern compiles expr for column.
func NewNotMatchesPattern(column, expr string) (NotMatchesPattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return NotMatchesPattern{}, fmt.Errorf("column %s: invalid pattern %q: %w", column, expr, err)
	}
	return NotMatchesPattern{Column: column, Pattern: re}, nil
}

// Suite is a named, ordered list of assertions.
type Suite struct {
	Name       string
	Assertions []Assertion
}

// separatorPattern matches any value still carrying a path separator.
var separatorPattern = regexp.MustCompile(`.*/.*`)

// FlightSuite is the fixed suite for transformed flight batches: every
// canonical column exists, the status is a known value, and delimiter fields
// hold no '/'.
func FlightSuite(name string) Suite {
	s := Suite{Name: name}
	for _, c := range models.FlightColumns {
		s.Assertions = append(s.Assertions, ColumnExists{Column: c})
	}
	s.Assertions = append(s.Assertions, ValueInSet{Column: models.FlightStatus, Values: models.FlightStatuses})
	for _, c := range models.DelimiterFields {
		s.Assertions = append(s.Assertions, NotMatchesPattern{Column: c, Pattern: separatorPattern})
	}
	return s
}

// Definition is the stored form of an assertion.
type Definition struct {
	Kind    string   `json:"expectation_type" bson:"expectation_type"`
	Column  string   `json:"column" bson:"column"`
	Values  []string `json:"value_set,omitempty" bson:"value_set,omitempty"`
	Pattern string   `json:"regex,omitempty" bson:"regex,omitempty"`
}

// SuiteDefinition is the stored form of a suite.
type SuiteDefinition struct {
	Name         string       `json:"expectation_suite_name" bson:"name"`
	Expectations []Definition `json:"expectations" bson:"expectations"`
}

// Describe renders a suite in its stored form.
func Describe(s Suite) SuiteDefinition {
	def := SuiteDefinition{Name: s.Name, Expectations: make([]Definition, 0, len(s.Assertions))}
	for _, a := range s.Assertions {
		d := Definition{Kind: a.Kind(), Column: a.Target()}
		switch v := a.(type) {
		case ValueInSet:
			d.Values = append([]string(nil), v.Values...)
		case NotMatchesPattern:
			if v.Pattern != nil {
				d.Pattern = v.Pattern.String()
			}
		}
		def.Expectations = append(def.Expectations, d)
	}
	return def
}

// Build turns a stored definition back into a suite.
func Build(def SuiteDefinition) (Suite, error) {
	s := Suite{Name: def.Name}
	for i, d := range def.Expectations {
		switch d.Kind {
		case KindColumnExists:
			s.Assertions = append(s.Assertions, ColumnExists{Column: d.Column})
		case KindValueInSet:
			s.Assertions = append(s.Assertions, ValueInSet{Column: d.Column, Values: append([]string(nil), d.Values...)})
		case KindNotMatchesPattern:
			a, err := NewNotMatchesPattern(d.Column, d.Pattern)
			if err != nil {
				return Suite{}, fmt.Errorf("expectation %d: %w", i, err)
			}
			s.Assertions = append(s.Assertions, a)
		default:
			return Suite{}, fmt.Errorf("expectation %d: unknown kind %q", i, d.Kind)
		}
	}
	return s, nil
}
