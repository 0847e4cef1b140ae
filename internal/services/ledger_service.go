package services

import (
	"context"
	"iter"
	"log/slog"

	"igreja/internal/core"
)

// LedgerService records tithes and offerings with one entry per member and
// competency month.
type LedgerService struct {
	store    LedgerStore
	notifier ChangeNotifier
}

func NewLedgerService(store LedgerStore, notifier ChangeNotifier) *LedgerService {
	return &LedgerService{store: store, notifier: notifier}
}

// RecordContribution stores a contribution, overwriting the entry that
// already exists for the same member and month.
func (s *LedgerService) RecordContribution(ctx context.Context, canWrite bool, c core.Contribution) (core.RecordOutcome, error) {
	if !canWrite {
		return "", core.ErrReadOnly
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	e := c.Entry()
	outcome := core.OutcomeCreated
	saved, err := s.store.InsertEntry(ctx, e)
	if core.IsDuplicate(err, core.ConstraintLedgerCompetency) {
		outcome = core.OutcomeUpdated
		saved, err = s.store.UpdateEntryByKey(ctx, e)
	}
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Contribution recorded",
		"entry_id", saved.ID,
		"member_id", saved.MemberID,
		"competency", saved.Competency.String(),
		"outcome", outcome)

	notify(ctx, s.notifier, saved.Competency.Year)
	return outcome, nil
}

// DeleteEntry removes one entry. Deleting an absent entry is a NotFoundError.
func (s *LedgerService) DeleteEntry(ctx context.Context, canWrite bool, id int64) error {
	if !canWrite {
		return core.ErrReadOnly
	}
	deleted, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}
	notify(ctx, s.notifier, deleted.Competency.Year)
	return nil
}

// ListEntries returns a lazy sequence of the matching entries. Nothing is
// read until the sequence is ranged, and each range reads afresh.
func (s *LedgerService) ListEntries(ctx context.Context, f core.EntryFilter) iter.Seq2[core.LedgerEntry, error] {
	return s.store.Entries(ctx, f)
}
