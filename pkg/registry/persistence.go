package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

// WriteDB atomically replaces path with the current reservation set, a
// JSON array ordered by shortId. Missing directories are created.
func (r *Registry) WriteDB(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]*Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		records = append(records, res)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ShortID < records[j].ShortID })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &nrmerr.PersistenceError{Path: path, Err: err}
	}
	if err := atomicWrite(path, data); err != nil {
		return &nrmerr.PersistenceError{Path: path, Err: err}
	}
	return nil
}

// LoadDB reads a reservation store written by WriteDB. A missing file
// is equivalent to an empty registry. shortIds are re-assigned in
// creation-time order, since they are never persisted.
func LoadDB(path string) (*Registry, error) {
	reg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, &nrmerr.PersistenceError{Path: path, Err: err}
	}

	var records []*Reservation
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &nrmerr.PersistenceError{Path: path, Err: err}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreationTime.Before(records[j].CreationTime) })

	for _, res := range records {
		res.ShortID = reg.nextShortID
		reg.nextShortID++
		reg.reservations[res.GlobalID] = res
		reg.proj.Add(res.Solution)
	}
	return reg, nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".reserved-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
