package progress

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Verbosity controls how much progress state is rendered.
type Verbosity int

const (
	// None renders nothing.
	None Verbosity = iota
	// Total renders only the aggregate files-completed bar.
	Total
	// PerFile renders the aggregate bar plus one bar per in-flight file.
	PerFile
)

// ErrSessionActive is returned when a second Session is opened while one is
// still live in this process.
var ErrSessionActive = errors.New("progress session already active")

var active atomic.Bool

type slotState struct {
	label string
	total int64
	done  int64
	inUse bool
}

// Session multiplexes progress from many concurrent workers: a bounded pool
// of per-file slots plus one aggregate files-completed counter. It owns the
// display refresh. At most one Session may be active per process.
type Session struct {
	verbosity Verbosity
	numSlots  int
	free      chan int

	mu         sync.Mutex
	slots      []slotState
	totalFiles int64
	label      string

	completed atomic.Int64
	bytes     atomic.Int64

	program  *tea.Program
	uiDone   chan struct{}
	stopOnce sync.Once
}

// NewSession opens the process-wide progress session with the given number
// of per-file slots. It fails if another session is still active.
func NewSession(numSlots int, verbosity Verbosity) (*Session, error) {
	if !active.CompareAndSwap(false, true) {
		return nil, ErrSessionActive
	}
	if numSlots < 0 {
		numSlots = 0
	}

	s := &Session{
		verbosity: verbosity,
		numSlots:  numSlots,
		free:      make(chan int, numSlots),
		slots:     make([]slotState, numSlots),
	}
	for i := 0; i < numSlots; i++ {
		s.free <- i
	}

	if verbosity != None && term.IsTerminal(int(os.Stderr.Fd())) {
		s.startUI()
	}

	return s, nil
}

// SetTotal sets the aggregate file count and its display label.
func (s *Session) SetTotal(files int, label string) {
	s.mu.Lock()
	s.totalFiles = int64(files)
	s.label = label
	s.mu.Unlock()
}

// Acquire blocks until a per-file slot frees and returns it. Sessions with
// zero slots hand out a slot with no render state immediately so callers
// never block on a pool that does not exist; such slots still feed the
// aggregate byte counter.
func (s *Session) Acquire() *Slot {
	if s.numSlots == 0 {
		return &Slot{session: s, idx: -1}
	}
	idx := <-s.free
	return &Slot{session: s, idx: idx}
}

// FileDone bumps the aggregate completed-files counter. Called exactly once
// per finished job regardless of outcome, so the aggregate stays monotonic
// even on early abort.
func (s *Session) FileDone() {
	s.completed.Add(1)
}

// Completed returns the number of finished jobs so far.
func (s *Session) Completed() int64 {
	return s.completed.Load()
}

// Bytes returns the total bytes streamed through all slots so far.
func (s *Session) Bytes() int64 {
	return s.bytes.Load()
}

// Close tears the session down and releases the process-wide lease. Safe to
// call more than once.
func (s *Session) Close() error {
	s.stopOnce.Do(func() {
		if s.program != nil {
			s.program.Quit()
			<-s.uiDone
		}
		active.Store(false)
	})
	return nil
}

// snapshot copies the renderable state under the session lock.
func (s *Session) snapshot() snapshotMsg {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := snapshotMsg{
		label:      s.label,
		totalFiles: s.totalFiles,
		completed:  s.completed.Load(),
		bytes:      s.bytes.Load(),
	}
	if s.verbosity == PerFile {
		for _, st := range s.slots {
			if st.inUse {
				msg.active = append(msg.active, st)
			}
		}
	}
	return msg
}

// Slot is one renderable unit of per-file progress, held by a single worker
// for the duration of one job. Release must run on every exit path; callers
// defer it immediately after Acquire.
type Slot struct {
	session  *Session
	idx      int
	released bool
}

// Start labels the slot and sets its total byte count.
func (sl *Slot) Start(label string, total int64) {
	if sl.idx < 0 {
		return
	}
	s := sl.session
	s.mu.Lock()
	s.slots[sl.idx] = slotState{label: label, total: total, inUse: true}
	s.mu.Unlock()
}

// Add records n more bytes transferred through this slot. The aggregate
// byte counter advances even when the slot has no per-file render state.
func (sl *Slot) Add(n int64) {
	s := sl.session
	s.bytes.Add(n)
	if sl.idx < 0 {
		return
	}
	s.mu.Lock()
	s.slots[sl.idx].done += n
	s.mu.Unlock()
}

// Release clears the slot and returns it to the pool. Idempotent.
func (sl *Slot) Release() {
	if sl.idx < 0 || sl.released {
		return
	}
	sl.released = true

	s := sl.session
	s.mu.Lock()
	s.slots[sl.idx] = slotState{}
	s.mu.Unlock()
	s.free <- sl.idx
}
