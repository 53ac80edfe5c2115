package run

import "github.com/kadlec/drover/internal/model"

// aggregator folds terminal scenarios into the run totals. Purely additive
// and commutative across scenarios; collect is called exactly once per
// scenario regardless of skip, success or failure.
type aggregator struct {
	res model.RunResult
}

func (a *aggregator) collect(s *model.Scenario) {
	a.res.Collect(s)
}

// finalize seals the result. Called exactly once at run end.
func (a *aggregator) finalize() *model.RunResult {
	return &a.res
}
