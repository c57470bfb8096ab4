package registry

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

// Registry is the single owner of live Reservations, guarded by a
// readers-writer lock: terminate/TERMINATEALL/writeDB take the writer
// lock for the duration of one call; pathfind/query take the reader
// lock. reserve holds the writer lock across its whole read-solve-
// commit sequence via Lock/InUseLocked/ReserveLocked, since the
// snapshot InUse reads must still be current when Reserve commits.
type Registry struct {
	mu           sync.RWMutex
	reservations map[string]*Reservation
	nextShortID  int
	proj         *Projection
}

// New returns an empty registry with shortIds starting at 1.
func New() *Registry {
	return &Registry{
		reservations: map[string]*Reservation{},
		nextShortID:  1,
		proj:         NewProjection(),
	}
}

// Reserve commits a new Reservation and updates the in-use projection.
func (r *Registry) Reserve(req Request, sol Solution, routeText string) *Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserveLocked(req, sol, routeText)
}

// Lock acquires the registry's exclusive writer lock for a caller that
// must hold it across more than one registry call — a reserve
// request's read-solve-commit sequence reads InUseLocked, runs the
// solver with the lock still held, then commits via ReserveLocked, so
// no concurrent reserve can solve against the same stale snapshot.
// Every Lock must be paired with a deferred Unlock.
func (r *Registry) Lock() { r.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (r *Registry) Unlock() { r.mu.Unlock() }

// ReserveLocked is Reserve for a caller already holding the lock via
// Lock; calling it without holding the lock races with every other
// Registry method.
func (r *Registry) ReserveLocked(req Request, sol Solution, routeText string) *Reservation {
	return r.reserveLocked(req, sol, routeText)
}

func (r *Registry) reserveLocked(req Request, sol Solution, routeText string) *Reservation {
	res := &Reservation{
		GlobalID:     uuid.NewString(),
		ShortID:      r.nextShortID,
		Request:      req,
		Solution:     sol,
		CreationTime: time.Now(),
		Bidi:         req.Bidi,
		WDMSA:        req.WDMSA,
		RouteText:    routeText,
	}
	r.nextShortID++
	r.reservations[res.GlobalID] = res
	r.proj.Add(sol)
	return res
}

// Terminate removes the reservation matching id (a globalId or shortId
// string) and unfolds it from the projection.
func (r *Registry) Terminate(id string) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.lookupLocked(id)
	if !ok {
		return nil, &nrmerr.RegistryConflictError{ID: id}
	}
	delete(r.reservations, res.GlobalID)
	r.proj.Remove(res.Solution)
	return res, nil
}

// TerminateAll atomically clears every live reservation.
func (r *Registry) TerminateAll() []*Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		all = append(all, res)
	}
	r.reservations = map[string]*Reservation{}
	r.proj.Rebuild(nil)
	return all
}

// Query looks up a reservation by globalId or shortId without mutating
// state.
func (r *Registry) Query(id string) (*Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.lookupLocked(id)
	if !ok {
		return nil, &nrmerr.RegistryConflictError{ID: id}
	}
	return res, nil
}

// All returns every live reservation, ordered by shortId.
func (r *Registry) All() []*Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, res)
	}
	sortByShortID(out)
	return out
}

// InUse returns a snapshot of the current in-use projection.
func (r *Registry) InUse() (map[ilp.Tuple]bool, map[ilp.Tuple]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.proj.InUseX(), r.proj.InUseC()
}

// InUseLocked is InUse for a caller already holding the lock via Lock.
func (r *Registry) InUseLocked() (map[ilp.Tuple]bool, map[ilp.Tuple]int) {
	return r.proj.InUseX(), r.proj.InUseC()
}

// CheckConsistency reports a ConsistencyError for every live
// reservation with an x-set tuple isValid no longer accepts, i.e. the
// topology changed underneath a loaded reservation.
func (r *Registry) CheckConsistency(isValid func(ilp.Tuple) bool) []error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, res := range r.reservations {
		for _, t := range res.Solution.X {
			if !isValid(t) {
				errs = append(errs, &nrmerr.ConsistencyError{
					ReservationID: res.GlobalID,
					Detail:        fmt.Sprintf("tuple %s no longer valid under current topology", t.String()),
				})
				break
			}
		}
	}
	return errs
}

func (r *Registry) lookupLocked(id string) (*Reservation, bool) {
	if res, ok := r.reservations[id]; ok {
		return res, true
	}
	for _, res := range r.reservations {
		if strconv.Itoa(res.ShortID) == id {
			return res, true
		}
	}
	return nil, false
}

func sortByShortID(rs []*Reservation) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j-1].ShortID > rs[j].ShortID; j-- {
			rs[j-1], rs[j] = rs[j], rs[j-1]
		}
	}
}
