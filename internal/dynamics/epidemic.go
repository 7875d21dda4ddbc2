package dynamics

import (
	"math"
	"math/rand/v2"

	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/sparse"
)

// Status is the SIS compartment of a vertex.
type Status uint8

const (
	Susceptible Status = 0
	Infected    Status = 1
)

// EpidemicParams configures an SIS run.
type EpidemicParams struct {
	// Beta is the per-contact infection probability.
	Beta float64

	// Gamma is the per-tick recovery probability of an infected vertex.
	Gamma float64

	// Initial is the number of vertices infected at tick zero.
	Initial int

	// Ticks is the total number of steps, burn-in included.
	Ticks int

	// Trim is the number of leading steps discarded as burn-in.
	Trim int
}

// EpidemicResult holds the measured part of an SIS run.
type EpidemicResult struct {
	Infections     []int64 // New infections per vertex over the measured ticks
	LastInfections int     // New infections in the final tick
}

// InitialStatus infects i0 distinct vertices chosen uniformly at random.
// i0 is clamped to [0, n].
func InitialStatus(n, i0 int, rng *rand.Rand) []Status {
	status := make([]Status, n)
	i0 = min(max(i0, 0), n)
	for _, v := range rng.Perm(n)[:i0] {
		status[v] = Infected
	}
	return status
}

// Epidemic is the SIS state for one snapshot.
type Epidemic struct {
	a        *sparse.Matrix
	beta     float64
	gamma    float64
	status   []Status
	infected []bool
	kin      []int64
	newly    []bool
}

// NewEpidemic builds the operator for g and seeds the initial infection.
func NewEpidemic(g *graph.Digraph, p EpidemicParams, rng *rand.Rand) *Epidemic {
	n := g.NumVertices()
	return &Epidemic{
		a:        sparse.FromGraph(g),
		beta:     p.Beta,
		gamma:    p.Gamma,
		status:   InitialStatus(n, p.Initial, rng),
		infected: make([]bool, n),
		kin:      make([]int64, n),
		newly:    make([]bool, n),
	}
}

// Step runs one recovery phase followed by one infection phase and
// returns the number of vertices newly infected.
//
// Recovery draws one uniform per infected vertex in index order. Infection
// counts infected in-neighbors after recovery; a susceptible vertex with
// kin > 0 draws one uniform and is infected iff it falls below
// 1-(1-beta)^kin. A vertex with kin = 0 makes no draw.
func (e *Epidemic) Step(rng *rand.Rand) int {
	for v, s := range e.status {
		if s == Infected && rng.Float64() < e.gamma {
			e.status[v] = Susceptible
		}
		e.infected[v] = e.status[v] == Infected
	}

	e.a.Propagate(e.infected, e.kin)

	q := 1 - e.beta
	count := 0
	for v := range e.status {
		e.newly[v] = false
		if e.infected[v] || e.kin[v] == 0 {
			continue
		}
		p := 1 - math.Pow(q, float64(e.kin[v]))
		if p <= 0 {
			continue
		}
		if rng.Float64() < p {
			e.status[v] = Infected
			e.newly[v] = true
			count++
		}
	}
	return count
}

// Newly returns the newly-infected mask of the last step. The slice is
// owned by the Epidemic and is overwritten by the next Step.
func (e *Epidemic) Newly() []bool { return e.newly }

// Status returns a copy of the current status vector.
func (e *Epidemic) Status() []Status {
	out := make([]Status, len(e.status))
	copy(out, e.status)
	return out
}

// NumInfected returns the number of infected vertices.
func (e *Epidemic) NumInfected() int {
	count := 0
	for _, s := range e.status {
		if s == Infected {
			count++
		}
	}
	return count
}

// InfectionStep applies one SIS step to a copy of status and returns the
// new status with the per-vertex newly-infected mask.
func InfectionStep(a *sparse.Matrix, status []Status, beta, gamma float64, rng *rand.Rand) ([]Status, []bool) {
	n := len(status)
	e := &Epidemic{
		a:        a,
		beta:     beta,
		gamma:    gamma,
		status:   make([]Status, n),
		infected: make([]bool, n),
		kin:      make([]int64, n),
		newly:    make([]bool, n),
	}
	copy(e.status, status)
	e.Step(rng)
	return e.status, e.newly
}

// SIS runs the epidemic on g: p.Trim burn-in steps followed by
// p.Ticks-p.Trim measured steps.
func SIS(g *graph.Digraph, p EpidemicParams, rng *rand.Rand) EpidemicResult {
	e := NewEpidemic(g, p, rng)
	last := 0
	for i := 0; i < p.Trim; i++ {
		last = e.Step(rng)
	}

	infections := make([]int64, g.NumVertices())
	for i := p.Trim; i < p.Ticks; i++ {
		last = e.Step(rng)
		for v, x := range e.newly {
			if x {
				infections[v]++
			}
		}
	}
	return EpidemicResult{Infections: infections, LastInfections: last}
}
