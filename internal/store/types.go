// Package store holds the subscriber profile model the S6a handlers
// read and update, and the SubscriberStore interface that decouples
// them from any particular backing database.
package store

// ODB is a subscriber's operator-determined barring category.
type ODB int

const (
	ODBNone ODB = iota
	ODBAllAPN
	ODBHPLMNAPN
	ODBVPLMNAPN
)

// Tri is a tri-state boolean: unknown when a capability was never
// reported rather than explicitly false.
type Tri int

const (
	TriUnknown Tri = iota
	TriFalse
	TriTrue
)

// APN is a provisioned access-point profile, keyed by ContextID.
type APN struct {
	ContextID     uint32
	ServiceSelection string
	PDNType       uint32
	QCI           uint32
	PriorityLevel uint32
	AMBRMaxUL     uint64
	AMBRMaxDL     uint64
}

// MIP6 is the dynamic P-GW binding for one APN context. It is created
// empty and populated only by a successful Notify.
type MIP6 struct {
	ContextID        uint32
	ServiceSelection string
	DestinationRealm string
	DestinationHost  string
}

// Bound reports whether both destination fields have been populated.
func (m MIP6) Bound() bool {
	return m.DestinationRealm != "" && m.DestinationHost != ""
}

// Subscriber is one IMSI's EPS subscription record.
type Subscriber struct {
	IMSI   string
	MSISDN string
	STNSR  string

	K   []byte
	OPc []byte
	AMF []byte
	SQN uint64

	RoamingAllowed bool
	ODB            ODB
	SCHAR          int

	AMBRMaxUL uint64
	AMBRMaxDL uint64

	DefaultAPN uint32
	APNs       []APN
	MIP6s      []MIP6

	MMEHostname    string
	MMERealm       string
	UESRVCCSupport Tri
}

// FindAPN looks up a provisioned APN by context id.
func (s *Subscriber) FindAPN(contextID uint32) (APN, bool) {
	for _, a := range s.APNs {
		if a.ContextID == contextID {
			return a, true
		}
	}
	return APN{}, false
}

// FindMIP6 looks up the MIP6 row paired with an APN context id.
func (s *Subscriber) FindMIP6(contextID uint32) (MIP6, bool) {
	for _, m := range s.MIP6s {
		if m.ContextID == contextID {
			return m, true
		}
	}
	return MIP6{}, false
}

// DefaultAPNRow returns the APN row named by DefaultAPN.
func (s *Subscriber) DefaultAPNRow() (APN, bool) {
	return s.FindAPN(s.DefaultAPN)
}
