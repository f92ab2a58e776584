package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gofocus/blob"
	"gofocus/core"
)

// BoardOverrides reports which board file fields the compiled configuration
// overrides for a board number
type BoardOverrides struct {
	StepsPerRev   bool
	FixedStepMode bool
}

// Options configures a Store
type Options struct {
	// BoardNumber is the board this firmware was built for
	BoardNumber int

	// SaveWindow defaults to DefaultSaveWindow
	SaveWindow time.Duration

	// BoardDefaults returns the compiled board config for a number, false when unknown
	BoardDefaults func(number int) (Board, bool)

	// Overrides returns which compiled values win over an imported board file
	Overrides func(number int) BoardOverrides
}

// Store holds the three configuration domains in memory and writes each one
// to its blob once it has been left unchanged for the save window.
// All methods are main-loop only.
type Store struct {
	blobs blob.Store
	clock core.Clock
	opts  Options

	persistent Persistent
	variable   Variable
	board      Board

	domains [numDomains]domain
}

// NewStore creates a store holding defaults. Call Load to read the blobs.
func NewStore(blobs blob.Store, clock core.Clock, opts Options) *Store {
	if opts.SaveWindow <= 0 {
		opts.SaveWindow = DefaultSaveWindow
	}
	s := &Store{
		blobs: blobs,
		clock: clock,
		opts:  opts,
	}
	s.persistent = DefaultPersistent()
	s.variable = DefaultVariable()
	s.board = s.compiledBoard()
	return s
}

func (s *Store) compiledBoard() Board {
	if s.opts.BoardDefaults != nil {
		if b, ok := s.opts.BoardDefaults(s.opts.BoardNumber); ok {
			return b
		}
	}
	return UnknownBoard(s.opts.BoardNumber)
}

// SetField writes v into field and marks domain d changed when it differs.
// Returns whether the value changed.
func SetField[T comparable](s *Store, d DomainID, field *T, v T) bool {
	if *field == v {
		return false
	}
	*field = v
	s.touch(d)
	return true
}

func (s *Store) touch(d DomainID) {
	dom := &s.domains[d]
	dom.dirty = true
	dom.lastChanged = s.clock.Now()
}

// Tick writes every domain whose save window has elapsed. Domains are
// independent: a failure in one does not hold back the others.
func (s *Store) Tick(now time.Duration) {
	for d := DomainID(0); d < numDomains; d++ {
		if s.domains[d].due(now, s.opts.SaveWindow) {
			s.flush(d)
		}
	}
}

// SaveNow writes all three domains regardless of their dirty state
func (s *Store) SaveNow() error {
	var errs []error
	for d := DomainID(0); d < numDomains; d++ {
		if err := s.flush(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// flush writes domain d. On failure the domain is left dirty so Tick retries it.
func (s *Store) flush(d DomainID) error {
	dom := &s.domains[d]
	data, err := s.encode(d)
	if err == nil {
		err = s.blobs.Write(d.BlobName(), data)
	}
	if err != nil {
		dom.dirty = true
		dom.lastErr = fmt.Errorf("%w: %s: %v", ErrPersistWrite, d.BlobName(), err)
		core.RecordTiming(core.EvtPersistFail, int32(d), 0)
		core.DebugPrintln("[CFG] save " + d.String() + " failed: " + err.Error())
		return dom.lastErr
	}
	dom.dirty = false
	dom.lastErr = nil
	dom.writes++
	core.RecordTiming(core.EvtPersistFlush, int32(d), int32(len(data)))
	return nil
}

func (s *Store) encode(d DomainID) ([]byte, error) {
	switch d {
	case DomainVariable:
		return json.Marshal(&s.variable)
	case DomainBoard:
		return json.Marshal(&s.board)
	default:
		return json.Marshal(&s.persistent)
	}
}

// Dirty reports whether domain d has unsaved changes
func (s *Store) Dirty(d DomainID) bool {
	return s.domains[d].dirty
}

// LastError returns the error of the most recent failed write of d, nil after a success
func (s *Store) LastError(d DomainID) error {
	return s.domains[d].lastErr
}

// Writes returns how many times domain d has been written
func (s *Store) Writes(d DomainID) int {
	return s.domains[d].writes
}

// Load reads all three domains. A missing or unreadable blob is replaced by
// defaults that are written back immediately; the returned error wraps
// ErrConfigLoad for each such domain and is informational only.
func (s *Store) Load() error {
	var errs []error

	p := DefaultPersistent()
	if err := s.read(PersistentBlob, &p); err != nil {
		errs = append(errs, s.defaulted(DomainPersistent, err))
		s.persistent = DefaultPersistent()
		s.flush(DomainPersistent)
	} else {
		p.sanitize()
		s.persistent = p
		s.domains[DomainPersistent].dirty = false
	}

	b := s.compiledBoard()
	if err := s.read(BoardBlob, &b); err != nil {
		errs = append(errs, s.defaulted(DomainBoard, err))
		if ierr := s.ImportBoardFile(s.opts.BoardNumber); ierr != nil {
			s.board = s.compiledBoard()
			s.board.sanitize()
			s.flush(DomainBoard)
		}
	} else {
		b.sanitize()
		s.board = b
		s.domains[DomainBoard].dirty = false
	}

	v := DefaultVariable()
	if err := s.read(VariableBlob, &v); err != nil {
		errs = append(errs, s.defaulted(DomainVariable, err))
		s.variable = DefaultVariable()
		s.flush(DomainVariable)
	} else {
		s.variable = v
		s.domains[DomainVariable].dirty = false
	}
	s.variable.Position = clamp32(s.variable.Position, 0, s.persistent.MaxStep)

	return errors.Join(errs...)
}

func (s *Store) read(name string, v any) error {
	data, err := s.blobs.Read(name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) defaulted(d DomainID, cause error) error {
	core.RecordTiming(core.EvtConfigDefault, int32(d), 0)
	core.DebugPrintln("[CFG] " + d.BlobName() + " defaulted: " + cause.Error())
	return fmt.Errorf("%w: %s: %v", ErrConfigLoad, d.BlobName(), cause)
}

// BoardFileName returns the board definition blob for a board number
func BoardFileName(number int) string {
	return BoardFileDir + strconv.Itoa(number) + ".jsn"
}

// ImportBoardFile loads /boards/<number>.jsn into the board domain and writes
// the board blob. Steps per revolution and fixed step mode keep their compiled
// values where the wiring dictates them.
func (s *Store) ImportBoardFile(number int) error {
	data, err := s.blobs.Read(BoardFileName(number))
	if err != nil {
		return err
	}
	return s.CreateBoardConfigFromJSON(data)
}

// CreateBoardConfigFromJSON replaces the board domain from a JSON board
// definition and writes it. Invalid JSON leaves the board unchanged. A failed
// write is not returned; it is kept in LastError and retried by Tick.
func (s *Store) CreateBoardConfigFromJSON(data []byte) error {
	compiled := s.compiledBoard()
	b := compiled
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("board definition: %w", err)
	}

	if s.opts.Overrides != nil {
		o := s.opts.Overrides(s.opts.BoardNumber)
		if o.StepsPerRev {
			b.StepsPerRev = compiled.StepsPerRev
		}
		if o.FixedStepMode {
			b.FixedStepMode = compiled.FixedStepMode
		}
	}
	b.sanitize()
	s.board = b
	s.touch(DomainBoard)
	s.flush(DomainBoard)
	return nil
}

// SetFocuserDefaults removes all three blobs and regenerates factory defaults
func (s *Store) SetFocuserDefaults() error {
	for d := DomainID(0); d < numDomains; d++ {
		if err := s.blobs.Remove(d.BlobName()); err != nil && !errors.Is(err, blob.ErrNotExist) {
			core.DebugPrintln("[CFG] remove " + d.BlobName() + ": " + err.Error())
		}
	}
	err := s.Load()
	if errors.Is(err, ErrConfigLoad) {
		// every domain was just removed, so defaulting is expected
		err = nil
	}
	return s.firstWriteError(err)
}

func (s *Store) firstWriteError(err error) error {
	if err != nil {
		return err
	}
	for d := range s.domains {
		if e := s.domains[d].lastErr; e != nil {
			return e
		}
	}
	return nil
}
