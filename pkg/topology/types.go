// Package topology holds the immutable in-memory representation of an
// optical network: channel tables, components, ports, and port-pairs
// parsed once from a topology document. Once Load returns, a Model is
// never mutated — every exported method is safe for concurrent readers
// without additional locking.
package topology

import (
	"fmt"

	"github.com/lightpath-network/nrm/pkg/ilp"
)

// ChannelTableType distinguishes the one retained kind ("optical") from
// everything else, which produces a TopologyWarning and is dropped.
type ChannelTableType string

const (
	ChannelTableOptical ChannelTableType = "optical"
	ChannelTableOther   ChannelTableType = "other"
)

// Channel is one numbered wavelength slot within a ChannelTable.
type Channel struct {
	TableID string
	No      int
}

// Name renders the channel's canonical "{tableId}_{no}" identifier.
func (c Channel) Name() string {
	return fmt.Sprintf("%s_%d", c.TableID, c.No)
}

// ChannelTable is an ordered (by Channel.No) set of channels of one kind.
type ChannelTable struct {
	ID       string
	Type     ChannelTableType
	Channels []Channel // sorted by No
}

// PortIO is the direction of a Port.
type PortIO string

const (
	PortInput  PortIO = "input"
	PortOutput PortIO = "output"
	PortBidi   PortIO = "bidi"
)

// Port is one physical or logical connection point on a Component.
type Port struct {
	idx         int
	componentIx int

	Name           string // "{Component.Name}_{number}"
	DisplayName    string
	IO             PortIO
	SupPortChannel []string // channel-table ids this port supports
}

// Component is one switching element: a cost, an optional model
// template (GLPK constraint fragments with a "Channels" placeholder),
// an intermediate-controller flag, and its Ports.
type Component struct {
	idx int

	Name                   string
	ModelTemplate          ilp.Template
	ModelKind              string // optional kind key into acbuilder's templates.yaml, used when ModelTemplate is empty
	IntermediateController bool   // true iff both Controller and Socket attrs present
	Cost                   float64
	OutOfService           bool // set when the component's outOfService attribute is "true"
	PortIdx                []int
}

// SolvecEligible reports whether this component participates in
// per-device decomposition (solvec mode): only components with an
// intermediate controller do.
func (c *Component) SolvecEligible() bool {
	return c.IntermediateController
}

// PortPair is an inter-component edge keyed by the textual prefix before
// "-" in the topology document's net.pair attribute.
type PortPair struct {
	idx int

	Key        string // prefix before "-" in net.pair
	NetCode    string // net.code, used to key warnings about malformed pairs
	Cost       float64
	Endpoints  [2]int // port indices; exactly 2 after a successful parse
}
