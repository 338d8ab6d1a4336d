package sampler

import (
	"math"
	mrand "math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/nogold/model"
)

// Gibbs is a Metropolis-within-Gibbs kernel for the linear no gold standard
// model. One sweep visits the free variables of the model graph in
// topological order:
//
//	x[i]    independence Metropolis, proposing from the likelihood
//	a[m]    conjugate normal (jointly with b[m] when glm is on)
//	b[m]    conjugate normal
//	tau[m]  conjugate gamma
//
// and then tries a shift and a scale move along the directions that leave
// every a[m]*x[i]+b[m] unchanged. Those two moves carry the chain along the
// likelihood ridge, which the one-variable updates barely move on when the
// noise is small.
type Gibbs struct {
	graph *model.Graph
	free  []*model.Variable
	glm   bool

	src    mrand.Source
	rng    *mrand.Rand
	priors []model.LinearPrior
	pop    model.Dist
	popLP  distuv.RandLogProber

	cols   [][]float64 // cols[m][i] = y[i,m]
	colSum []float64

	x, a, b, tau []float64
	lpx          []float64 // population log density of each x[i]
	proposed     []float64 // scratch for the ridge moves

	shift, scale *affineMove
}

// NewGibbs creates a kernel with a starting state drawn from src. The model
// must already conform to the observations.
func NewGibbs(src mrand.Source, m *model.Model, obs *model.Observations, glm bool) (*Gibbs, error) {
	if src == nil {
		return nil, errors.New("No random source supplied")
	}
	if m == nil || obs == nil {
		return nil, errors.New("A model and observations are required")
	}

	subjects, modalities := obs.Dims()
	if modalities != m.Modalities {
		return nil, errors.Wrapf(model.ErrDimensionMismatch,
			"model %s has %d modalities but data has %d columns", m.Name, m.Modalities, modalities)
	}

	graph, err := m.Graph(subjects)
	if err != nil {
		return nil, err
	}
	free, err := graph.FreeVars()
	if err != nil {
		return nil, err
	}

	g := &Gibbs{
		graph:    graph,
		free:     free,
		glm:      glm,
		src:      src,
		rng:      mrand.New(src),
		priors:   append([]model.LinearPrior(nil), m.Priors...),
		pop:      m.Population,
		popLP:    m.Population.Distribution(src),
		cols:     make([][]float64, modalities),
		colSum:   make([]float64, modalities),
		x:        make([]float64, subjects),
		a:        make([]float64, modalities),
		b:        make([]float64, modalities),
		tau:      make([]float64, modalities),
		lpx:      make([]float64, subjects),
		proposed: make([]float64, subjects),
		shift:    newAffineMove("shift", 0.01),
		scale:    newAffineMove("scale", 0.01),
	}
	for j := range g.cols {
		g.cols[j] = obs.Column(j)
		g.colSum[j] = floats.Sum(g.cols[j])
	}

	g.initialize()
	return g, nil
}

// initialize starts at the ideal linear map (a=1, b=0, tau=1) with a little
// chain specific jitter. Each x[i] starts at its subject's mean reading,
// or the population mean when that falls outside the population support.
func (g *Gibbs) initialize() {
	for j := range g.a {
		g.a[j] = model.Slope.Ideal() * math.Exp(0.05*g.rng.NormFloat64())
		g.b[j] = model.Intercept.Ideal() + 0.01*g.rng.NormFloat64()
		g.tau[j] = math.Exp(0.1 * g.rng.NormFloat64())
	}

	for i := range g.x {
		var sum float64
		for j, col := range g.cols {
			sum += (col[i] - g.b[j]) / g.a[j]
		}
		xi := sum / float64(len(g.cols))
		if !g.pop.InSupport(xi) || math.IsInf(g.logPop(xi), -1) {
			xi = g.pop.Mean()
		}
		g.x[i] = xi
		g.lpx[i] = g.logPop(xi)
	}
}

// Dims returns (subjects, modalities)
func (g *Gibbs) Dims() (int, int) {
	return len(g.x), len(g.a)
}

// Graph is the dependency graph the kernel walks
func (g *Gibbs) Graph() *model.Graph {
	return g.graph
}

// Adapt turns step size tuning of the shift and scale moves on or off
func (g *Gibbs) Adapt(on bool) {
	g.shift.adapt = on
	g.scale.adapt = on
}

// Moves reports the state of the ridge moves
func (g *Gibbs) Moves() []MoveStats {
	return []MoveStats{g.shift.stats(), g.scale.stats()}
}

// Value returns the current value of a parameter, NaN if out of range
func (g *Gibbs) Value(kind model.Kind, index int) float64 {
	i := index - 1
	var src []float64
	switch kind {
	case model.Slope:
		src = g.a
	case model.Intercept:
		src = g.b
	case model.Precision, model.StdDev:
		src = g.tau
	case model.Latent:
		src = g.x
	}
	if i < 0 || i >= len(src) {
		return math.NaN()
	}
	if kind == model.StdDev {
		return model.TauToSigma(src[i])
	}
	return src[i]
}

// Step performs one full sweep
func (g *Gibbs) Step() error {
	for _, v := range g.free {
		var err error
		switch v.Role {
		case model.RoleLatent:
			g.updateLatent(v.Subject)
		case model.RoleSlope:
			if g.glm {
				err = g.updateLinear(v.Modality)
			} else {
				g.updateSlope(v.Modality)
			}
		case model.RoleIntercept:
			if !g.glm {
				g.updateIntercept(v.Modality)
			}
		case model.RolePrecision:
			err = g.updatePrecision(v.Modality)
		default:
			err = errors.Errorf("no update for role %d", int(v.Role))
		}
		if err != nil {
			return errors.Wrapf(err, "Could not update %s", v.Name)
		}
	}

	g.shiftMove()
	g.scaleMove()

	return g.check()
}

func (g *Gibbs) check() error {
	for j := range g.a {
		a, b, tau := g.a[j], g.b[j], g.tau[j]
		if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) ||
			!(tau > 0) || math.IsInf(tau, 0) {
			return errors.Errorf("modality %d left the parameter space: a=%g b=%g tau=%g", j+1, a, b, tau)
		}
	}
	return nil
}

func (g *Gibbs) logPop(v float64) float64 {
	if !g.pop.InSupport(v) {
		return math.Inf(-1)
	}
	return g.popLP.LogProb(v)
}

// accept is the Metropolis test for a log acceptance ratio
func (g *Gibbs) accept(logr float64) bool {
	if math.IsNaN(logr) {
		return false
	}
	return logr >= 0 || math.Log(g.rng.Float64()) < logr
}

// updateLatent proposes x[i] from the normal the likelihood alone implies
// (precision P = sum tau*a^2) so only the population prior enters the
// acceptance ratio. With no information in the likelihood it draws straight
// from the population.
func (g *Gibbs) updateLatent(i int) {
	var prec, h float64
	for j, col := range g.cols {
		ta := g.tau[j] * g.a[j]
		prec += ta * g.a[j]
		h += ta * (col[i] - g.b[j])
	}

	if !(prec > 1e-300) || math.IsInf(prec, 0) {
		xi := g.popLP.Rand()
		g.x[i], g.lpx[i] = xi, g.logPop(xi)
		return
	}

	prop := h/prec + g.rng.NormFloat64()/math.Sqrt(prec)
	lp := g.logPop(prop)
	if math.IsInf(lp, -1) {
		return
	}
	if g.accept(lp - g.lpx[i]) {
		g.x[i], g.lpx[i] = prop, lp
	}
}

// updateLinear draws (a[m], b[m]) together from their bivariate normal
// full conditional
func (g *Gibbs) updateLinear(m int) error {
	p := g.priors[m]
	tau := g.tau[m]
	col := g.cols[m]

	n := float64(len(g.x))
	sx := floats.Sum(g.x)
	sxx := floats.Dot(g.x, g.x)
	sxy := floats.Dot(g.x, col)

	prec := mat.NewSymDense(2, []float64{
		tau*sxx + p.Slope.P2, tau * sx,
		tau * sx, tau*n + p.Intercept.P2,
	})
	rhs := mat.NewVecDense(2, []float64{
		tau*sxy + p.Slope.P2*p.Slope.P1,
		tau*g.colSum[m] + p.Intercept.P2*p.Intercept.P1,
	})

	var chol mat.Cholesky
	if ok := chol.Factorize(prec); !ok {
		return errors.Errorf("conditional precision of modality %d is not positive definite", m+1)
	}
	var mean mat.VecDense
	if err := chol.SolveVecTo(&mean, rhs); err != nil {
		return errors.Wrapf(err, "modality %d conditional mean", m+1)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return errors.Wrapf(err, "modality %d conditional covariance", m+1)
	}

	dist, ok := distmv.NewNormal(mean.RawVector().Data, &cov, g.src)
	if !ok {
		return errors.Errorf("conditional covariance of modality %d is not positive definite", m+1)
	}
	draw := dist.Rand(nil)
	g.a[m], g.b[m] = draw[0], draw[1]
	return nil
}

func (g *Gibbs) updateSlope(m int) {
	p := g.priors[m].Slope
	tau, b, col := g.tau[m], g.b[m], g.cols[m]

	var sxr float64
	for i, xi := range g.x {
		sxr += xi * (col[i] - b)
	}
	prec := p.P2 + tau*floats.Dot(g.x, g.x)
	mean := (p.P2*p.P1 + tau*sxr) / prec
	g.a[m] = mean + g.rng.NormFloat64()/math.Sqrt(prec)
}

func (g *Gibbs) updateIntercept(m int) {
	p := g.priors[m].Intercept
	tau, a := g.tau[m], g.a[m]

	resid := g.colSum[m] - a*floats.Sum(g.x)
	prec := p.P2 + tau*float64(len(g.x))
	mean := (p.P2*p.P1 + tau*resid) / prec
	g.b[m] = mean + g.rng.NormFloat64()/math.Sqrt(prec)
}

func (g *Gibbs) updatePrecision(m int) error {
	p := g.priors[m].Precision
	a, b, col := g.a[m], g.b[m], g.cols[m]

	var sse float64
	for i, xi := range g.x {
		r := col[i] - model.Mean(a, b, xi)
		sse += r * r
	}

	gamma := distuv.Gamma{
		Alpha: p.P1 + float64(len(g.x))/2,
		Beta:  p.P2 + sse/2,
		Src:   g.src,
	}
	tau := gamma.Rand()
	if !(tau > 0) || math.IsInf(tau, 0) {
		return errors.Errorf("precision draw %g for modality %d (sse %g)", tau, m+1, sse)
	}
	g.tau[m] = tau
	return nil
}

// shiftMove proposes x' = x + d, b' = b - a*d. The proposal is symmetric
// with unit Jacobian, so only the priors enter the ratio.
func (g *Gibbs) shiftMove() {
	d := g.shift.step * g.rng.NormFloat64()

	var logr float64
	lp := g.proposed
	for i, xi := range g.x {
		lp[i] = g.logPop(xi + d)
		if math.IsInf(lp[i], -1) {
			g.shift.record(false)
			return
		}
		logr += lp[i] - g.lpx[i]
	}
	for j, p := range g.priors {
		logr += normalKernel(p.Intercept, g.b[j]-g.a[j]*d) - normalKernel(p.Intercept, g.b[j])
	}

	ok := g.accept(logr)
	g.shift.record(ok)
	if !ok {
		return
	}
	for i := range g.x {
		g.x[i] += d
		g.lpx[i] = lp[i]
	}
	for j := range g.b {
		g.b[j] -= g.a[j] * d
	}
}

// scaleMove proposes x' = c*x, a' = a/c with log c symmetric. The map has
// Jacobian c^(n-M).
func (g *Gibbs) scaleMove() {
	logc := g.scale.step * g.rng.NormFloat64()
	c := math.Exp(logc)

	logr := float64(len(g.x)-len(g.a)) * logc
	lp := g.proposed
	for i, xi := range g.x {
		lp[i] = g.logPop(c * xi)
		if math.IsInf(lp[i], -1) {
			g.scale.record(false)
			return
		}
		logr += lp[i] - g.lpx[i]
	}
	for j, p := range g.priors {
		logr += normalKernel(p.Slope, g.a[j]/c) - normalKernel(p.Slope, g.a[j])
	}

	ok := g.accept(logr)
	g.scale.record(ok)
	if !ok {
		return
	}
	for i := range g.x {
		g.x[i] *= c
		g.lpx[i] = lp[i]
	}
	for j := range g.a {
		g.a[j] /= c
	}
}

// normalKernel is the normal log density without its constant
func normalKernel(d model.Dist, v float64) float64 {
	r := v - d.P1
	return -0.5 * d.P2 * r * r
}
