// Package registry holds the live Reservation set, the derived
// in-use projection (inuse_X / inuse_C), and durable persistence of
// the reservation store.
package registry

import (
	"time"

	"github.com/lightpath-network/nrm/pkg/ilp"
)

// Request is the canonical request behind a Reservation: src, dst, an
// optional ERO, the channel trial set, and the bidi flag.
type Request struct {
	Src      string   `json:"src"`
	Dst      string   `json:"dst"`
	Ero      []string `json:"ero,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Bidi     bool     `json:"bidi"`
	WDMSA    bool     `json:"wdmsa"`
}

// Solution is the selected x set (chosen 4-tuples) and c set (chosen
// component/concentrator activations), both indexed in vt's tuple
// space.
type Solution struct {
	X []ilp.Tuple `json:"x"`
	C []ilp.Tuple `json:"c"`
}

// Reservation is an immutable record of one committed request.
type Reservation struct {
	GlobalID     string    `json:"globalId"`
	ShortID      int       `json:"-"` // re-assigned on every DB load, never persisted
	Request      Request   `json:"request"`
	Solution     Solution  `json:"solution"`
	CreationTime time.Time `json:"creationTime"`
	Bidi         bool      `json:"bidi"`
	WDMSA        bool      `json:"wdmsa"`
	RouteText    string    `json:"routeText"`
}
