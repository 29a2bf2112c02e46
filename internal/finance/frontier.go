package finance

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ErrNoFeasibleFrontier is returned when no sweep target converges under the
// current constraints; callers surface it as a "relax constraints" message.
var ErrNoFeasibleFrontier = errors.New("no feasible frontier points under current constraints")

// FrontierConfig carries the user-adjustable parameters of one sweep.
type FrontierConfig struct {
	Years      int     // history length in years
	RiskFree   float64 // annual risk-free rate as a decimal, Sharpe only
	AllowShort bool    // toggles bounds between (0,1) and (-1,1)
	BTCCap     float64 // upper bound override for the BTC weight
	Points     int     // sweep resolution, >= 1
}

// DefaultConfig mirrors the default control positions.
func DefaultConfig() FrontierConfig {
	return FrontierConfig{Years: 5, RiskFree: 0, AllowShort: false, BTCCap: 0.65, Points: 60}
}

// Clamp forces every parameter into its supported range.
func (c FrontierConfig) Clamp() FrontierConfig {
	if c.Years < 2 {
		c.Years = 2
	}
	if c.Years > 10 {
		c.Years = 10
	}
	if c.RiskFree < 0 {
		c.RiskFree = 0
	}
	if c.RiskFree > 0.10 {
		c.RiskFree = 0.10
	}
	if c.BTCCap < 0 {
		c.BTCCap = 0
	}
	if c.BTCCap > 0.65 {
		c.BTCCap = 0.65
	}
	if c.Points < 1 {
		c.Points = 1
	}
	if c.Points > 120 {
		c.Points = 120
	}
	return c
}

// FrontierPoint is the result of one converged target: a weight vector that
// sums to one within tolerance, with its annualized return, volatility and
// Sharpe ratio. Sharpe is NaN when volatility is zero.
type FrontierPoint struct {
	Weights    []float64
	Return     float64
	Volatility float64
	Sharpe     float64
}

// AssetPoint is a single asset's own (volatility, return) pair, plotted as a
// baseline reference; it carries no feasibility constraint.
type AssetPoint struct {
	Label      string
	Return     float64
	Volatility float64
}

// FrontierSet is the ordered-by-volatility collection of accepted points for
// one parameter configuration, plus the tangency index and a count of sweep
// targets that were dropped for non-convergence.
type FrontierSet struct {
	Labels   []string
	Points   []FrontierPoint
	Tangency int // index into Points of the max-Sharpe portfolio
	Dropped  int
	Assets   []AssetPoint
}

const (
	maxSolverIterations = 10000
	penaltyWeight       = 1e5
	feasTol             = 1e-3
)

// ComputeFrontier sweeps evenly spaced target returns between the smallest
// and largest asset mean and solves a minimum-volatility portfolio for each.
// Targets that fail to converge are dropped and counted, never fatal.
func ComputeFrontier(stats *ReturnStats, cfg FrontierConfig) (*FrontierSet, error) {
	cfg = cfg.Clamp()
	n := len(stats.Mu)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 assets, have %d", n)
	}

	bounds := boundsFor(stats.Labels, cfg.AllowShort, cfg.BTCCap)
	sigma := symFromCov(stats.Cov)

	targets := sweepTargets(stats.Mu, cfg.Points)

	set := &FrontierSet{Labels: append([]string(nil), stats.Labels...)}
	for _, t := range targets {
		w, ok := minVolAtTarget(stats.Mu, sigma, bounds, t)
		if !ok {
			set.Dropped++
			log.Printf("frontier: dropped target %.4f (no convergence)", t)
			continue
		}
		r := dot(stats.Mu, w)
		v := math.Sqrt(math.Max(quadForm(sigma, w), 0))
		s := math.NaN()
		if v > 0 {
			s = (r - cfg.RiskFree) / v
		}
		set.Points = append(set.Points, FrontierPoint{Weights: w, Return: r, Volatility: v, Sharpe: s})
	}

	if len(set.Points) == 0 {
		return nil, ErrNoFeasibleFrontier
	}

	// The sweep covers [min mu, max mu] without filtering the inefficient
	// branch below the minimum-variance point; ordering by volatility keeps
	// the chart a readable curve.
	sort.SliceStable(set.Points, func(i, j int) bool {
		return set.Points[i].Volatility < set.Points[j].Volatility
	})

	set.Tangency = -1
	for i, p := range set.Points {
		if math.IsNaN(p.Sharpe) {
			continue
		}
		if set.Tangency < 0 || p.Sharpe > set.Points[set.Tangency].Sharpe {
			set.Tangency = i
		}
	}
	if set.Tangency < 0 {
		// every accepted point had zero volatility; fall back to the first
		set.Tangency = 0
	}

	set.Assets = assetPoints(stats)
	return set, nil
}

// sweepTargets generates evenly spaced targets in [min(mu), max(mu)]. A
// degenerate range (all means equal) or a single-point sweep collapses to one
// target; the spacing divisor is never zero.
func sweepTargets(mu []float64, nPts int) []float64 {
	tMin, tMax := mu[0], mu[0]
	for _, m := range mu[1:] {
		if m < tMin {
			tMin = m
		}
		if m > tMax {
			tMax = m
		}
	}
	if nPts <= 1 || tMax == tMin {
		return []float64{tMin}
	}
	step := (tMax - tMin) / float64(nPts-1)
	targets := make([]float64, nPts)
	for i := range targets {
		targets[i] = tMin + step*float64(i)
	}
	targets[nPts-1] = tMax
	return targets
}

// boundsFor derives per-asset box bounds from the shorting flag and the BTC
// allocation cap.
func boundsFor(labels []string, allowShort bool, btcCap float64) [][2]float64 {
	bounds := make([][2]float64, len(labels))
	for i, label := range labels {
		lo, hi := 0.0, 1.0
		if allowShort {
			lo, hi = -1.0, 1.0
		}
		if label == "BTC" && btcCap < hi {
			hi = btcCap
		}
		bounds[i] = [2]float64{lo, hi}
	}
	return bounds
}

// minVolAtTarget solves: minimize w'Σw subject to sum(w)=1, mu.w=target and
// box bounds. The equalities enter as quadratic penalties and the bounds as
// clamp projection inside the objective; Nelder-Mead from the equal-weight
// start, BFGS as fallback. Returns the projected weights and whether the
// solution is both converged and feasible within tolerance.
func minVolAtTarget(mu []float64, sigma *mat.SymDense, bounds [][2]float64, target float64) ([]float64, bool) {
	n := len(mu)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)
			obj := quadForm(sigma, w)
			sum := 0.0
			ret := 0.0
			for i := 0; i < n; i++ {
				sum += w[i]
				ret += mu[i] * w[i]
			}
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)
			obj += penaltyWeight * (ret - target) * (ret - target)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToBounds(x, bounds)
			sum := 0.0
			ret := 0.0
			for i := 0; i < n; i++ {
				sum += w[i]
				ret += mu[i] * w[i]
			}
			for i := 0; i < n; i++ {
				g := 0.0
				for j := 0; j < n; j++ {
					g += 2 * sigma.At(i, j) * w[j]
				}
				g += 2 * penaltyWeight * (sum - 1.0)
				g += 2 * penaltyWeight * (ret - target) * mu[i]
				grad[i] = g
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	settings := &optimize.Settings{MajorIterations: maxSolverIterations}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
		if err != nil || !converged(result.Status) {
			return nil, false
		}
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, false
	}

	w := projectToBounds(result.X, bounds)
	sum := 0.0
	ret := 0.0
	for i := 0; i < n; i++ {
		sum += w[i]
		ret += mu[i] * w[i]
	}
	if math.Abs(sum-1.0) > feasTol {
		return nil, false
	}
	if math.Abs(ret-target) > feasTol*(1.0+math.Abs(target)) {
		return nil, false
	}
	return w, true
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.StepConvergence:
		return true
	}
	return false
}

// projectToBounds clamps each coordinate into its box.
func projectToBounds(x []float64, bounds [][2]float64) []float64 {
	w := make([]float64, len(x))
	for i, v := range x {
		if v < bounds[i][0] {
			v = bounds[i][0]
		}
		if v > bounds[i][1] {
			v = bounds[i][1]
		}
		w[i] = v
	}
	return w
}

// assetPoints computes each single asset's own (volatility, return) pair from
// the mu vector and covariance diagonal.
func assetPoints(stats *ReturnStats) []AssetPoint {
	out := make([]AssetPoint, len(stats.Labels))
	for i, label := range stats.Labels {
		out[i] = AssetPoint{
			Label:      label,
			Return:     stats.Mu[i],
			Volatility: math.Sqrt(math.Max(stats.Cov[i][i], 0)),
		}
	}
	return out
}

func symFromCov(cov [][]float64) *mat.SymDense {
	n := len(cov)
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, cov[i][j])
		}
	}
	return s
}

func quadForm(sigma *mat.SymDense, w []float64) float64 {
	n := len(w)
	acc := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			acc += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return acc
}

func dot(a, b []float64) float64 {
	acc := 0.0
	for i := range a {
		acc += a[i] * b[i]
	}
	return acc
}
