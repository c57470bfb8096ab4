package registry

import "github.com/lightpath-network/nrm/pkg/ilp"

// Projection is the in-use overlay derived from the live reservation
// set: a reference count per tuple for both the x and c variable
// spaces, so adding and removing a reservation are both O(len(solution))
// rather than a full registry scan.
type Projection struct {
	x map[ilp.Tuple]int
	c map[ilp.Tuple]int
}

// NewProjection returns an empty projection.
func NewProjection() *Projection {
	return &Projection{x: map[ilp.Tuple]int{}, c: map[ilp.Tuple]int{}}
}

// Add folds sol into the projection (on reserve/load).
func (p *Projection) Add(sol Solution) {
	for _, t := range sol.X {
		p.x[t]++
	}
	for _, t := range sol.C {
		p.c[t]++
	}
}

// Remove unfolds sol from the projection (on terminate).
func (p *Projection) Remove(sol Solution) {
	for _, t := range sol.X {
		p.x[t]--
		if p.x[t] <= 0 {
			delete(p.x, t)
		}
	}
	for _, t := range sol.C {
		p.c[t]--
		if p.c[t] <= 0 {
			delete(p.c, t)
		}
	}
}

// Rebuild discards the current projection and refolds it from scratch,
// the escape hatch used after a bulk change (TERMINATEALL).
func (p *Projection) Rebuild(reservations []*Reservation) {
	p.x = map[ilp.Tuple]int{}
	p.c = map[ilp.Tuple]int{}
	for _, r := range reservations {
		p.Add(r.Solution)
	}
}

// InUseX returns inuse_X: true for every tuple with at least one live
// reservation selecting it.
func (p *Projection) InUseX() map[ilp.Tuple]bool {
	out := make(map[ilp.Tuple]bool, len(p.x))
	for t, n := range p.x {
		if n > 0 {
			out[t] = true
		}
	}
	return out
}

// InUseC returns inuse_C: the raw activation count per tuple. Dividing
// by the ILP's c_divider (32) happens inside the model itself; the
// projection only stores the integer count.
func (p *Projection) InUseC() map[ilp.Tuple]int {
	out := make(map[ilp.Tuple]int, len(p.c))
	for t, n := range p.c {
		out[t] = n
	}
	return out
}
