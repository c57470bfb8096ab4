package acbuilder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/solver"
	"github.com/lightpath-network/nrm/pkg/topology"
	"github.com/lightpath-network/nrm/pkg/util"
)

// Options configures one Build run.
type Options struct {
	OutDir        string // where <component>.conn.txt / <component>.model land
	TmpDir        string // forwarded to the Solver Driver for .data/.sol scratch files
	MaxIterations int    // safety cap per (inPort, outPort) pair; 0 = unbounded, relies on the solver reporting infeasible
	Templates     *TemplateSet
}

// Build enumerates comp's feasible internal transitions against its
// model template and writes <OutDir>/<comp.Name>.conn.txt and
// <OutDir>/<comp.Name>.model.
//
// Enumeration proceeds per (inPort, outPort) pair that could plausibly
// connect (one can receive flow, the other can send it, and they share
// at least one channel table): repeatedly solve the component's model
// against a growing set of no-good cuts, each forbidding the exact
// activation set of the previous solution, until the solver reports
// infeasible.
func Build(ctx context.Context, model *topology.Model, comp *topology.Component, driver solver.Driver, opts Options) (*ConnectionSet, error) {
	log := util.WithComponent(comp.Name)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, &nrmerr.PersistenceError{Path: opts.OutDir, Err: err}
	}

	tableID, ok := primaryChannelTable(model, comp)
	if !ok {
		log.Debug("component has no channel-bearing ports, skipping enumeration")
		return &ConnectionSet{Component: comp.Name}, nil
	}

	tmpl := comp.ModelTemplate
	if tmpl == "" && opts.Templates != nil && comp.ModelKind != "" {
		resolved, found, err := opts.Templates.Resolve(comp.ModelKind)
		if err != nil {
			return nil, err
		}
		if found {
			tmpl = resolved
			log.WithField("kind", comp.ModelKind).Debug("resolved model template from templates.yaml")
		}
	}

	modelFile := filepath.Join(opts.OutDir, comp.Name+".model")
	rendered := tmpl.RenderChannels(tableID)
	if err := os.WriteFile(modelFile, []byte(rendered), 0o644); err != nil {
		return nil, &nrmerr.PersistenceError{Path: modelFile, Err: err}
	}

	cs := &ConnectionSet{Component: comp.Name}
	ports := model.PortsOf(comp)

	for _, inPort := range ports {
		if inPort.IO == topology.PortOutput {
			continue
		}
		for _, outPort := range ports {
			if outPort.IO == topology.PortInput || outPort == inPort {
				continue
			}
			if !model.SharesChannelTable(inPort, outPort) {
				continue
			}

			conns, err := enumeratePair(ctx, model, comp, inPort, outPort, driver, modelFile, opts, log)
			if err != nil {
				return nil, err
			}
			cs.Conns = append(cs.Conns, conns...)
		}
	}

	cs.sortStable()

	connFile := filepath.Join(opts.OutDir, comp.Name+".conn.txt")
	if err := os.WriteFile(connFile, []byte(cs.ConnFileText()), 0o644); err != nil {
		return nil, &nrmerr.PersistenceError{Path: connFile, Err: err}
	}

	return cs, nil
}

// primaryChannelTable picks the first channel table supported by any of
// comp's ports, the table whose "Channels" placeholder the component's
// model template is rendered against.
func primaryChannelTable(model *topology.Model, comp *topology.Component) (string, bool) {
	for _, p := range model.PortsOf(comp) {
		if len(p.SupPortChannel) > 0 {
			return p.SupPortChannel[0], true
		}
	}
	return "", false
}

// enumeratePair runs the cutting-plane loop for one (inPort, outPort)
// candidate and returns every Connection discovered.
func enumeratePair(
	ctx context.Context,
	model *topology.Model,
	comp *topology.Component,
	inPort, outPort *topology.Port,
	driver solver.Driver,
	modelFile string,
	opts Options,
	log *logrus.Entry,
) ([]Connection, error) {
	sharedTables := sharedTableIDs(inPort, outPort)
	vt := ilp.NewVarTable()
	var sets []ilp.SetDef

	for _, tableID := range sharedTables {
		ct, ok := model.ChannelTable(tableID)
		if !ok {
			continue
		}
		var members []string
		for _, ch := range ct.Channels {
			members = append(members, ch.Name())
		}
		sets = append(sets, ilp.SetDef{Name: "Channels_" + tableID, Members: members})

		for _, inCh := range ct.Channels {
			for _, outCh := range ct.Channels {
				vt.Assign(ilp.Tuple{
					Component:    comp.Name,
					InChannel:    inCh.Name(),
					OutComponent: outPort.Name,
					OutChannel:   outCh.Name(),
				})
			}
		}
	}

	if vt.NumVars() == 0 {
		return nil, nil
	}

	var conns []Connection
	var cutRows []ilp.TableRow

	for iteration := 1; opts.MaxIterations == 0 || iteration <= opts.MaxIterations; iteration++ {
		data := &ilp.DataFile{
			Params: []ilp.Param{{Name: "NUM_VARS", Value: strconv.Itoa(vt.NumVars())}},
			Sets:   sets,
		}
		if len(cutRows) > 0 {
			data.Tables = []ilp.TableDef{{Name: "NoGood", Rows: cutRows}}
		}

		workID := uuid.NewString()
		sol, err := driver.Solve(ctx, modelFile, data, opts.TmpDir, workID)
		if err != nil {
			if errors.Is(err, nrmerr.ErrNoFeasibleSolution) {
				log.WithField("iterations", iteration).Debugf("enumeration complete for %s->%s", inPort.Name, outPort.Name)
				break
			}
			return nil, fmt.Errorf("component %s ports %s->%s: %w", comp.Name, inPort.Name, outPort.Name, err)
		}

		var chosenIDs []int
		for id := 1; id <= vt.NumVars(); id++ {
			if sol.Chosen(id) {
				chosenIDs = append(chosenIDs, id)
			}
		}
		if len(chosenIDs) == 0 {
			break
		}

		for _, id := range chosenIDs {
			tuple, _ := vt.TupleForID(id)
			conns = append(conns, Connection{
				InPort:     inPort.Name,
				InChannel:  tuple.InChannel,
				OutPort:    outPort.Name,
				OutChannel: tuple.OutChannel,
			})
		}

		cutRows = append(cutRows, ilp.TableRow{
			Keys:  []string{strconv.Itoa(len(cutRows) + 1)},
			Value: joinInts(chosenIDs),
		})
	}

	return conns, nil
}

// sharedTableIDs returns the channel tables both a and b support, in
// a deterministic (sorted) order.
func sharedTableIDs(a, b *topology.Port) []string {
	bSet := make(map[string]struct{}, len(b.SupPortChannel))
	for _, id := range b.SupPortChannel {
		bSet[id] = struct{}{}
	}
	var out []string
	for _, id := range a.SupPortChannel {
		if _, ok := bSet[id]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
