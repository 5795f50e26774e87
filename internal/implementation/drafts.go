package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDraftNotFound is returned for an unknown or purged draft id.
var ErrDraftNotFound = errors.New("implementation: draft not found")

// Draft is the server-side home of a wizard's carried parameters.
type Draft struct {
	ID        uuid.UUID
	Step      Step
	Params    Params
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DraftStore persists drafts. Concurrent saves of one draft are last write wins.
type DraftStore interface {
	Create(ctx context.Context, params Params) (Draft, error)
	Get(ctx context.Context, id uuid.UUID) (Draft, error)
	Save(ctx context.Context, draft Draft) (Draft, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// PurgeBefore deletes drafts last updated before cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PgDraftStore keeps drafts in the implementation_drafts table.
type PgDraftStore struct {
	pool *pgxpool.Pool
}

func NewPgDraftStore(pool *pgxpool.Pool) *PgDraftStore {
	return &PgDraftStore{pool: pool}
}

func (s *PgDraftStore) Create(ctx context.Context, params Params) (Draft, error) {
	raw, err := encodeParams(params)
	if err != nil {
		return Draft{}, err
	}
	d := Draft{ID: uuid.New(), Step: StepShopInfo}
	err = s.pool.QueryRow(ctx, `INSERT INTO implementation_drafts (id, step, params)
VALUES ($1, $2, $3)
RETURNING params, created_at, updated_at`, d.ID, int16(d.Step), raw).Scan(&raw, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("implementation: insert draft: %w", err)
	}
	if d.Params, err = decodeParams(raw); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *PgDraftStore) Get(ctx context.Context, id uuid.UUID) (Draft, error) {
	var (
		d    = Draft{ID: id}
		step int16
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT step, params, created_at, updated_at
FROM implementation_drafts WHERE id = $1`, id).Scan(&step, &raw, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("implementation: get draft: %w", err)
	}
	d.Step = Step(step)
	if d.Params, err = decodeParams(raw); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *PgDraftStore) Save(ctx context.Context, draft Draft) (Draft, error) {
	raw, err := encodeParams(draft.Params)
	if err != nil {
		return Draft{}, err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE implementation_drafts
SET step = $2, params = $3, updated_at = now()
WHERE id = $1`, draft.ID, int16(draft.Step), raw)
	if err != nil {
		return Draft{}, fmt.Errorf("implementation: save draft: %w", pgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return Draft{}, ErrDraftNotFound
	}
	return s.Get(ctx, draft.ID)
}

func (s *PgDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM implementation_drafts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("implementation: delete draft: %w", err)
	}
	return nil
}

func (s *PgDraftStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM implementation_drafts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("implementation: purge drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// pgErr adds the SQLSTATE to driver errors.
func pgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
	}
	return err
}

func encodeParams(p Params) ([]byte, error) {
	if p == nil {
		p = Params{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("implementation: encode params: %w", err)
	}
	return raw, nil
}

func decodeParams(raw []byte) (Params, error) {
	p := Params{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("implementation: decode params: %w", err)
	}
	return p, nil
}

// MemoryDraftStore keeps drafts in process. It backs single-instance
// deployments without Postgres and the tests.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
	now    func() time.Time
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: map[uuid.UUID]Draft{}, now: time.Now}
}

func (s *MemoryDraftStore) Create(_ context.Context, params Params) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	d := Draft{ID: uuid.New(), Step: StepShopInfo, Params: params.Clone(), CreatedAt: now, UpdatedAt: now}
	s.drafts[d.ID] = d
	return copyDraft(d), nil
}

func (s *MemoryDraftStore) Get(_ context.Context, id uuid.UUID) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return copyDraft(d), nil
}

func (s *MemoryDraftStore) Save(_ context.Context, draft Draft) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.drafts[draft.ID]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	cur.Step = draft.Step
	cur.Params = draft.Params.Clone()
	cur.UpdatedAt = s.now().UTC()
	s.drafts[draft.ID] = cur
	return copyDraft(cur), nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

func (s *MemoryDraftStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, d := range s.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(s.drafts, id)
			n++
		}
	}
	return n, nil
}

func copyDraft(d Draft) Draft {
	d.Params = d.Params.Clone()
	return d
}
