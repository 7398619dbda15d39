package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/spin"
)

// Sweep runs the same scan at several field strengths concurrently. Each
// run gets its own simulator and metric set from newMetrics.
type Sweep struct {
	field      spin.Config
	newMetrics func() []Metric
}

func NewSweep(field spin.Config, newMetrics func() []Metric) *Sweep {
	return &Sweep{field: field, newMetrics: newMetrics}
}

// Run returns one result per field strength, in input order.
func (w *Sweep) Run(ctx context.Context, st scanner.State, cfg Config, fields []float64) ([]*Result, error) {
	results := make([]*Result, len(fields))
	g, ctx := errgroup.WithContext(ctx)

	for i, b0 := range fields {
		i, b0 := i, b0
		g.Go(func() error {
			s := New(spin.NewField(w.field))
			if w.newMetrics != nil {
				for _, m := range w.newMetrics() {
					s.AddMetric(m)
				}
			}
			run := st
			run.FieldStrength = b0
			res, err := s.Run(ctx, run, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
