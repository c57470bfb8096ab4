package topology

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

// xmlDoc mirrors the semantic shape of a topology document: channel
// tables, components (with a model template and ports), and
// inter-component port-pairs.
type xmlDoc struct {
	XMLName       xml.Name         `xml:"topology"`
	ChannelTables []xmlChannelTbl  `xml:"channelTables>channelTable"`
	Components    []xmlComponent   `xml:"components>component"`
	PortPairs     []xmlPortPair    `xml:"portPairs>pair"`
}

type xmlChannelTbl struct {
	ID      string      `xml:"id,attr"`
	Type    string      `xml:"type,attr"`
	Channel []xmlChannel `xml:"channel"`
}

type xmlChannel struct {
	No string `xml:"no,attr"`
}

type xmlComponent struct {
	Ref        string    `xml:"ref,attr"`
	Cost       string    `xml:"cost,attr"`
	Controller string    `xml:"controller,attr"`
	Socket     string    `xml:"socket,attr"`
	OutOfSvc   string    `xml:"outOfService,attr"`
	Model      string    `xml:"model"`
	Kind       string    `xml:"kind,attr"`
	Ports      []xmlPort `xml:"port"`
}

type xmlPort struct {
	Number         string   `xml:"number,attr"`
	Name           string   `xml:"name,attr"`
	IO             string   `xml:"io,attr"`
	SupPortChannel []string `xml:"supPortChannel"`
}

type xmlPortPair struct {
	NetPair string        `xml:"net.pair,attr"`
	NetCode string        `xml:"net.code,attr"`
	Cost    string        `xml:"cost,attr"`
	Endpoint []xmlEndpoint `xml:"endpoint"`
}

type xmlEndpoint struct {
	Port string `xml:"port,attr"`
}

// Load reads and parses a topology document. Non-fatal problems (a
// non-optical channel table, a malformed port-pair) are returned as
// nrmerr.Warning values alongside a usable Model; a missing required
// attribute is a fatal *nrmerr.TopologyError.
func Load(path string) (*Model, []*nrmerr.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &nrmerr.TopologyError{Context: path, Detail: err.Error()}
	}
	return Parse(data)
}

// Parse builds a Model from already-read topology document bytes.
func Parse(data []byte) (*Model, []*nrmerr.Warning, error) {
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &nrmerr.TopologyError{Context: "document", Detail: err.Error()}
	}

	var b nrmerr.Builder
	m := &Model{
		channelTables: make(map[string]*ChannelTable),
		componentIx:   make(map[string]int),
		portIx:        make(map[string]int),
	}

	if err := loadChannelTables(&doc, m, &b); err != nil {
		return nil, nil, err
	}
	if err := loadComponents(&doc, m); err != nil {
		return nil, nil, err
	}
	if err := loadPortPairs(&doc, m, &b); err != nil {
		return nil, nil, err
	}

	return m, b.Warnings(), nil
}

func loadChannelTables(doc *xmlDoc, m *Model, b *nrmerr.Builder) error {
	for _, xct := range doc.ChannelTables {
		if xct.ID == "" {
			return &nrmerr.TopologyError{Context: "channelTable", Detail: "missing required attribute: id"}
		}
		typ := ChannelTableType(xct.Type)
		if typ != ChannelTableOptical {
			b.Addf("channelTable "+xct.ID, "non-optical channel table type %q dropped", xct.Type)
			continue
		}

		ct := &ChannelTable{ID: xct.ID, Type: typ}
		for _, xc := range xct.Channel {
			if xc.No == "" {
				return &nrmerr.TopologyError{Context: "channel in " + xct.ID, Detail: "missing required attribute: no"}
			}
			no, err := strconv.Atoi(xc.No)
			if err != nil {
				return &nrmerr.TopologyError{Context: "channel in " + xct.ID, Detail: "non-numeric no: " + xc.No}
			}
			ct.Channels = append(ct.Channels, Channel{TableID: xct.ID, No: no})
		}
		sort.Slice(ct.Channels, func(i, j int) bool { return ct.Channels[i].No < ct.Channels[j].No })
		m.channelTables[xct.ID] = ct
	}
	return nil
}

func loadComponents(doc *xmlDoc, m *Model) error {
	for _, xc := range doc.Components {
		if xc.Ref == "" {
			return &nrmerr.TopologyError{Context: "component", Detail: "missing required attribute: ref"}
		}
		cost := 0.0
		if xc.Cost != "" {
			v, err := strconv.ParseFloat(xc.Cost, 64)
			if err != nil {
				return &nrmerr.TopologyError{Context: "component " + xc.Ref, Detail: "non-numeric cost: " + xc.Cost}
			}
			cost = v
		}

		comp := Component{
			idx:                    len(m.components),
			Name:                   xc.Ref,
			ModelTemplate:          ilp.Template(xc.Model),
			ModelKind:              xc.Kind,
			IntermediateController: xc.Controller != "" && xc.Socket != "",
			Cost:                   cost,
			OutOfService:           xc.OutOfSvc == "true",
		}

		for _, xp := range xc.Ports {
			if xp.Number == "" {
				return &nrmerr.TopologyError{Context: "port on " + xc.Ref, Detail: "missing required attribute: number"}
			}
			portName := fmt.Sprintf("%s_%s", xc.Ref, xp.Number)
			display := xp.Name
			if display == "" {
				display = portName
			}

			io := PortIO(xp.IO)
			if xp.IO == "" {
				io = inferDirection(display)
			}

			p := Port{
				idx:            len(m.ports),
				componentIx:    comp.idx,
				Name:           portName,
				DisplayName:    display,
				IO:             io,
				SupPortChannel: append([]string(nil), xp.SupPortChannel...),
			}
			m.portIx[p.Name] = p.idx
			if _, taken := m.portIx[p.DisplayName]; !taken {
				m.portIx[p.DisplayName] = p.idx
			}
			comp.PortIdx = append(comp.PortIdx, p.idx)
			m.ports = append(m.ports, p)
		}

		m.componentIx[comp.Name] = comp.idx
		m.components = append(m.components, comp)
	}
	return nil
}

// inferDirection derives a port's direction from a trailing IN/OUT
// substring of its display name when the io attribute is absent.
func inferDirection(display string) PortIO {
	upper := strings.ToUpper(display)
	switch {
	case strings.HasSuffix(upper, "IN"):
		return PortInput
	case strings.HasSuffix(upper, "OUT"):
		return PortOutput
	default:
		return PortBidi
	}
}

func loadPortPairs(doc *xmlDoc, m *Model, b *nrmerr.Builder) error {
	for _, xp := range doc.PortPairs {
		if xp.NetPair == "" {
			return &nrmerr.TopologyError{Context: "portPair", Detail: "missing required attribute: net.pair"}
		}
		key := xp.NetPair
		if i := strings.Index(key, "-"); i >= 0 {
			key = key[:i]
		}

		if len(xp.Endpoint) != 2 {
			b.Addf("portPair net.code="+xp.NetCode, "expected exactly 2 endpoints, found %d; pair dropped", len(xp.Endpoint))
			continue
		}

		var idxs [2]int
		ok := true
		for i, ep := range xp.Endpoint {
			pidx, found := m.portIx[ep.Port]
			if !found {
				b.Addf("portPair net.code="+xp.NetCode, "endpoint references unknown port %q; pair dropped", ep.Port)
				ok = false
				break
			}
			idxs[i] = pidx
		}
		if !ok {
			continue
		}

		cost := 0.0
		if xp.Cost != "" {
			v, err := strconv.ParseFloat(xp.Cost, 64)
			if err != nil {
				return &nrmerr.TopologyError{Context: "portPair net.code=" + xp.NetCode, Detail: "non-numeric cost: " + xp.Cost}
			}
			cost = v
		}

		m.portPairs = append(m.portPairs, PortPair{
			idx:       len(m.portPairs),
			Key:       key,
			NetCode:   xp.NetCode,
			Cost:      cost,
			Endpoints: idxs,
		})
	}
	return nil
}
