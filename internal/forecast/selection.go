package forecast

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// Supported information criteria.
const (
	CriterionAIC = "aic"
	CriterionBIC = "bic"
)

// candidate is one (p, q) point of the order grid.
type candidate struct {
	p, q  int
	model *armaModel
	score float64
	err   error
}

// gridSpec describes the search over ARMA orders on an already centred series.
type gridSpec struct {
	maxP, maxQ  int
	includeMean bool
	criterion   string
	workers     int
	fit         fitSettings
}

// effectiveOrders caps the configured maximum orders so every candidate keeps
// at least three observations per lag.
func effectiveOrders(n, maxP, maxQ int) (int, int) {
	limit := (n - 1) / 3
	if limit < 0 {
		limit = 0
	}
	return min(maxP, limit), min(maxQ, limit)
}

// fitGrid fits every (p, q) candidate concurrently. Results keep grid order regardless
// of scheduling, so selection is deterministic. Only context errors abort the grid.
func fitGrid(ctx context.Context, wc []float64, spec gridSpec) ([]candidate, error) {
	maxP, maxQ := effectiveOrders(len(wc), spec.maxP, spec.maxQ)
	start := maxP

	cands := make([]candidate, 0, (maxP+1)*(maxQ+1))
	for p := 0; p <= maxP; p++ {
		for q := 0; q <= maxQ; q++ {
			cands = append(cands, candidate{p: p, q: q})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if spec.workers > 0 {
		g.SetLimit(spec.workers)
	}
	for i := range cands {
		c := &cands[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model, err := fitARMA(gctx, wc, c.p, c.q, start, spec.includeMean, spec.fit)
			if err != nil {
				c.err = err
				return nil
			}
			c.model = model
			c.score = criterionValue(model, spec.criterion, spec.includeMean)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return cands, nil
}

func criterionValue(m *armaModel, name string, includeMean bool) float64 {
	if name == CriterionBIC {
		return m.bic(includeMean)
	}
	return m.aic(includeMean)
}

// selectBest returns the index of the lowest-criterion stable candidate, or -1 when
// none qualifies. Criteria within a relative 1e-9 tie; ties prefer fewer parameters,
// then a lower AR order.
func selectBest(cands []candidate) int {
	best := -1
	for i, c := range cands {
		if c.err != nil || c.model == nil || !c.model.stable {
			continue
		}
		if math.IsNaN(c.score) || math.IsInf(c.score, 0) {
			continue
		}
		if best < 0 || better(c, cands[best]) {
			best = i
		}
	}
	return best
}

func better(a, b candidate) bool {
	if !scoresTie(a.score, b.score) {
		return a.score < b.score
	}
	if a.p+a.q != b.p+b.q {
		return a.p+a.q < b.p+b.q
	}
	return a.p < b.p
}

func scoresTie(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-9*scale
}

// anyFeasible reports whether at least one candidate could be estimated at all.
func anyFeasible(cands []candidate) bool {
	for _, c := range cands {
		if c.err == nil && c.model != nil {
			return true
		}
	}
	return false
}
