package settings

import (
	"errors"
	"time"
)

var (
	// ErrConfigLoad reports a missing or unreadable blob that was replaced by defaults
	ErrConfigLoad = errors.New("config load failed, defaults applied")

	// ErrPersistWrite reports a blob write that failed; the domain stays dirty
	ErrPersistWrite = errors.New("config write failed")
)

// DefaultSaveWindow is how long a domain must stay unchanged before it is written
const DefaultSaveWindow = 120 * time.Second

// Blob names
const (
	PersistentBlob = "/cntlr_config.jsn"
	VariableBlob   = "/cntlr_var.jsn"
	BoardBlob      = "/board_config.jsn"
	BoardFileDir   = "/boards/"
)

// DomainID selects one of the independently persisted groups of fields
type DomainID uint8

const (
	DomainPersistent DomainID = iota
	DomainVariable
	DomainBoard
	numDomains
)

func (d DomainID) String() string {
	switch d {
	case DomainPersistent:
		return "persistent"
	case DomainVariable:
		return "variable"
	case DomainBoard:
		return "board"
	default:
		return "unknown"
	}
}

// BlobName returns the blob a domain is stored in
func (d DomainID) BlobName() string {
	switch d {
	case DomainVariable:
		return VariableBlob
	case DomainBoard:
		return BoardBlob
	default:
		return PersistentBlob
	}
}

// domain tracks the debounce state of one group of fields
type domain struct {
	dirty       bool
	lastChanged time.Duration
	lastErr     error
	writes      int
}

// due reports whether the domain should be flushed at now. A clock that went
// backwards (now before lastChanged) counts as due.
func (d *domain) due(now, window time.Duration) bool {
	if !d.dirty {
		return false
	}
	return now < d.lastChanged || now-d.lastChanged >= window
}
