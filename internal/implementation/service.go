package implementation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

// Records is the cached implementation record repository.
type Records = shared.Repository[Record]

func NewRecords(client *api.Client, cache *querycache.Cache) Records {
	return shared.NewRepository(api.NewResource[Record](client, Resource), cache)
}

// Service drives the wizard: drafts carry the parameters between steps
// and each step submission writes its fragment to the backend.
type Service struct {
	records *shared.Service[Record]
	drafts  DraftStore
	logger  *slog.Logger
}

func NewService(records *shared.Service[Record], drafts DraftStore, logger *slog.Logger) *Service {
	return &Service{records: records, drafts: drafts, logger: logger}
}

// Records exposes the record list, delete and export operations.
func (s *Service) Records() *shared.Service[Record] { return s.records }

// StartDraft opens an empty draft.
func (s *Service) StartDraft(ctx context.Context) (Draft, error) {
	return s.drafts.Create(ctx, Params{})
}

// ImportDraft opens a draft positioned at step from parameters carried in
// an address.
func (s *Service) ImportDraft(ctx context.Context, params Params, step Step) (Draft, error) {
	draft, err := s.drafts.Create(ctx, params)
	if err != nil || step == draft.Step {
		return draft, err
	}
	draft.Step = step
	return s.drafts.Save(ctx, draft)
}

// EditRecord opens a draft seeded from an existing record.
func (s *Service) EditRecord(ctx context.Context, id int64) (Draft, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	return s.drafts.Create(ctx, Params{}.Merge(rec))
}

func (s *Service) Draft(ctx context.Context, id uuid.UUID) (Draft, error) {
	return s.drafts.Get(ctx, id)
}

// StepForm decodes the form of step from the draft's parameters.
func (s *Service) StepForm(draft Draft, step Step) (stepForm, error) {
	payload, err := draft.Params.Payload(step)
	if err != nil {
		return nil, err
	}
	return formFor(step, payload), nil
}

// SubmitStep validates the submitted step and saves its fragment: step 1
// without a carried id creates the record, everything else patches it.
// The server's answer is merged into the draft, which moves on to the next
// step. The returned form is the parsed submission for re-rendering.
func (s *Service) SubmitStep(ctx context.Context, draftID uuid.UUID, step Step, values url.Values) (Draft, stepForm, error) {
	form := parseStepForm(step, values)
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return Draft{}, form, err
	}
	if err := form.Validate().Err(); err != nil {
		return draft, form, err
	}

	var id int64
	create := step == StepShopInfo && !draft.Params.HasRecordID()
	if !create {
		if id, err = draft.Params.RecordID(); err != nil {
			return draft, form, err
		}
	}

	payload, err := form.payload(false)
	if err != nil {
		return draft, form, err
	}
	if err := draft.Params.Put(step, payload); err != nil {
		return draft, form, err
	}

	var rec Record
	if create {
		rec, err = s.records.Create(ctx, submission{form: form})
	} else {
		rec, err = s.records.Update(ctx, id, submission{form: form})
	}
	if err != nil {
		// Keep what was typed so a retry or reload starts from it.
		if _, saveErr := s.drafts.Save(ctx, draft); saveErr != nil {
			s.logger.Warn("keep draft after failed save", slog.String("draft", draftID.String()), slog.Any("error", saveErr))
		}
		return draft, form, err
	}
	if create && rec.ID <= 0 {
		return draft, form, fmt.Errorf("%w: create returned no id", api.ErrUpstream)
	}

	draft.Params = draft.Params.Merge(rec)
	if next, ok := step.Next(); ok {
		draft.Step = next
	} else {
		draft.Step = step
	}
	saved, err := s.drafts.Save(ctx, draft)
	if err != nil {
		return draft, form, err
	}
	s.logger.Info("implementation step saved", slog.Int("step", int(step)), slog.Int64("record_id", rec.ID), slog.String("draft", draftID.String()))
	return saved, form, nil
}

// Summary returns the record of a draft: the backend copy when one exists,
// otherwise what the draft carries.
func (s *Service) Summary(ctx context.Context, draft Draft) (Record, error) {
	id, err := draft.Params.RecordID()
	if errors.Is(err, ErrMissingRecordID) {
		return draft.Params.Record()
	}
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
