package implementation

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-backoffice/internal/platform/idle"
)

// autosaveTimeout bounds one flush against the draft store.
const autosaveTimeout = 10 * time.Second

// pendingEdit is the field values buffered for one draft and step.
type pendingEdit struct {
	step   Step
	fields map[string]string
	timer  *idle.Timer
	// dropped is set under Autosaver.mu when a submit supersedes the edit
	// after its flush started.
	dropped bool
}

// draftLock serialises flushes and submissions of one draft.
type draftLock struct {
	mu   sync.Mutex
	refs int
}

// Autosaver buffers partial step input per draft and writes it to the
// draft store once the user pauses typing.
type Autosaver struct {
	store  DraftStore
	quiet  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending  map[uuid.UUID]*pendingEdit
	flushing map[uuid.UUID]*pendingEdit
	locks    map[uuid.UUID]*draftLock
	closed  bool
	// flushed is called after every flush; tests use it to synchronise.
	flushed func(id uuid.UUID, err error)
}

func NewAutosaver(store DraftStore, quiet time.Duration, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		store:   store,
		quiet:   quiet,
		logger:  logger,
		pending:  map[uuid.UUID]*pendingEdit{},
		flushing: map[uuid.UUID]*pendingEdit{},
		locks:    map[uuid.UUID]*draftLock{},
	}
}

// Queue buffers fields for the draft and restarts its quiet period. A
// change of step flushes the previous step's edits first.
func (a *Autosaver) Queue(id uuid.UUID, step Step, fields map[string]string) bool {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false
	}
	p := a.pending[id]
	if p != nil && p.step != step {
		a.mu.Unlock()
		p.timer.Flush()
		a.mu.Lock()
		p = a.pending[id]
	}
	if p == nil {
		p = &pendingEdit{step: step, fields: map[string]string{}}
		p.timer = idle.New(a.quiet, func() { a.flush(id) })
		a.pending[id] = p
	}
	for k, v := range fields {
		p.fields[k] = v
	}
	timer := p.timer
	a.mu.Unlock()
	timer.Touch()
	return true
}

// Discard drops buffered edits, used when a step is submitted normally.
func (a *Autosaver) Discard(id uuid.UUID) {
	a.mu.Lock()
	p := a.pending[id]
	delete(a.pending, id)
	if f := a.flushing[id]; f != nil {
		f.dropped = true
	}
	a.mu.Unlock()
	if p != nil {
		p.timer.Stop()
	}
}

// Hold discards the draft's buffered edits and keeps its flushes out until
// release is called. A flush already writing the draft is waited for, so
// nothing the autosaver read before Hold can be stored after it.
func (a *Autosaver) Hold(id uuid.UUID) (release func()) {
	a.Discard(id)
	return a.lock(id)
}

func (a *Autosaver) lock(id uuid.UUID) func() {
	a.mu.Lock()
	l := a.locks[id]
	if l == nil {
		l = &draftLock{}
		a.locks[id] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, id)
		}
		a.mu.Unlock()
	}
}

// Close flushes every buffered edit and refuses new ones.
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	timers := make([]*idle.Timer, 0, len(a.pending))
	for _, p := range a.pending {
		timers = append(timers, p.timer)
	}
	a.mu.Unlock()
	for _, t := range timers {
		t.Flush()
		t.Stop()
	}
}

func (a *Autosaver) flush(id uuid.UUID) {
	a.mu.Lock()
	p := a.pending[id]
	delete(a.pending, id)
	if p != nil {
		a.flushing[id] = p
	}
	a.mu.Unlock()
	if p == nil {
		return
	}
	defer a.doneFlushing(id, p)
	if len(p.fields) == 0 {
		return
	}

	unlock := a.lock(id)
	defer unlock()
	a.mu.Lock()
	dropped := p.dropped
	a.mu.Unlock()
	if dropped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	err := a.apply(ctx, id, p.step, p.fields)
	if err != nil {
		a.logger.Warn("autosave failed", slog.String("draft", id.String()), slog.Int("step", int(p.step)), slog.Any("error", err))
	}
	if a.flushed != nil {
		a.flushed(id, err)
	}
}

func (a *Autosaver) doneFlushing(id uuid.UUID, p *pendingEdit) {
	a.mu.Lock()
	if a.flushing[id] == p {
		delete(a.flushing, id)
	}
	a.mu.Unlock()
}

// apply overlays fields onto the step's carried values and stores the
// result without validating it.
func (a *Autosaver) apply(ctx context.Context, id uuid.UUID, step Step, fields map[string]string) error {
	draft, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	current, err := draft.Params.Payload(step)
	if err != nil {
		return err
	}
	values := formFor(step, current).values()
	overlay(values, fields)
	payload, err := parseStepForm(step, values).payload(true)
	if err != nil {
		return err
	}
	if err := draft.Params.Put(step, payload); err != nil {
		return err
	}
	_, err = a.store.Save(ctx, draft)
	return err
}

func overlay(values url.Values, fields map[string]string) {
	for k, v := range fields {
		if k == "csrf_token" {
			continue
		}
		values.Set(k, v)
	}
}
