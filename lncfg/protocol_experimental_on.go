//go:build dev
// +build dev

package lncfg

// ExperimentalProtocol is a sub-config that houses any experimental protocol
// features that also require a build-tag to activate.
type ExperimentalProtocol struct {
	CustomRecord []uint64 `long:"custom-record" description:"a protocol record type below the custom range to allow in payment records"`
}

// CustomRecordOverrides returns the set of protocol record types below the
// custom range that we allow to be sent as custom payment records.
func (p ExperimentalProtocol) CustomRecordOverrides() []uint64 {
	return p.CustomRecord
}
