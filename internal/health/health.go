// Package health runs the pre-flight checks for the pipeline: database
// reachable with its table in place, quality data dir writable, and API
// credential configured.
package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check is one named probe. A nil error means healthy.
type Check struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
}

// Status is the outcome of one check.
type Status struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report collects all statuses in check order.
type Report struct {
	OK       bool     `json:"ok"`
	Statuses []Status `json:"checks"`
}

// Failed returns the statuses that did not pass.
func (r Report) Failed() []Status {
	var out []Status
	for _, s := range r.Statuses {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}

// Run executes every check concurrently. A failing check does not cancel
// the others.
func Run(ctx context.Context, checks ...Check) Report {
	statuses := make([]Status, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			statuses[i] = runOne(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{OK: true, Statuses: statuses}
	for _, s := range statuses {
		if !s.OK {
			report.OK = false
		}
	}
	return report
}

func runOne(ctx context.Context, c Check) (st Status) {
	start := time.Now()
	st.Name = c.Name
	defer func() {
		if r := recover(); r != nil {
			st.OK = false
			st.Detail = fmt.Sprintf("panic: %v", r)
		}
		st.Duration = time.Since(start)
	}()

	detail, err := c.Run(ctx)
	if err != nil {
		st.Detail = err.Error()
		return st
	}
	st.OK = true
	st.Detail = detail
	return st
}

// ErrNoCredential is reported by CredentialCheck when the key is empty.
var ErrNoCredential = errors.New("AVIATIONSTACK_API_KEY is not set")

// Pinger is satisfied by every destination store.
type Pinger interface {
	Ping(ctx context.Context) error
	EnsureTable(ctx context.Context) error
}

// DatabaseCheck pings the store and creates the destination table if needed.
func DatabaseCheck(p Pinger) Check {
	return Check{Name: "database", Run: func(ctx context.Context) (string, error) {
		if err := p.Ping(ctx); err != nil {
			return "", fmt.Errorf("ping: %w", err)
		}
		if err := p.EnsureTable(ctx); err != nil {
			return "", fmt.Errorf("ensure table: %w", err)
		}
		return "reachable, table ready", nil
	}}
}

// DataDirCheck verifies dir exists or can be created and is writable.
func DataDirCheck(dir string, writable func(string) error) Check {
	return Check{Name: "data_dir", Run: func(ctx context.Context) (string, error) {
		if err := writable(dir); err != nil {
			return "", err
		}
		return dir + " writable", nil
	}}
}

// CredentialCheck verifies the API key is configured.
func CredentialCheck(key string) Check {
	return Check{Name: "api_credential", Run: func(ctx context.Context) (string, error) {
		if key == "" {
			return "", ErrNoCredential
		}
		return "configured", nil
	}}
}
