// Package primary owns the primary caregiver recorded on each elder and the
// append-only log of changes to it.
package primary

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/caremetrics"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the elder store plus its transfer log. CommitPrimaryChange must
// write the elder and the log record atomically.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Elder, error)
	SetPrimary(ctx context.Context, elderID primitive.ObjectID, ref models.PrimaryRef, actorID primitive.ObjectID, at time.Time) error
	CommitPrimaryChange(ctx context.Context, change models.PrimaryChange, rec models.PrimaryCaregiverTransfer) error
	ListTransfers(ctx context.Context, elderID primitive.ObjectID) ([]models.PrimaryCaregiverTransfer, error)
}

// Change kinds reported to metrics.
const (
	kindSet      = "set"
	kindTransfer = "transfer"
	kindRemove   = "remove"
)

type Registry struct {
	store  Store
	locker locks.Locker
	audit  *auditlog.Logger
	log    *zap.Logger
	now    func() time.Time
}

func New(store Store, locker locks.Locker, audit *auditlog.Logger, logger *zap.Logger) *Registry {
	if locker == nil {
		locker = locks.NewLocal()
	}
	return &Registry{
		store:  store,
		locker: locker,
		audit:  audit,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Conflict reports an elder that already has a different primary caregiver.
type Conflict struct {
	ElderID                     primitive.ObjectID `json:"elder_id"`
	ElderName                   string             `json:"elder_name"`
	CurrentPrimaryCaregiverID   primitive.ObjectID `json:"current_primary_caregiver_id"`
	CurrentPrimaryCaregiverName string             `json:"current_primary_caregiver_name"`
	NewCaregiverID              primitive.ObjectID `json:"new_caregiver_id"`
	NewCaregiverName            string             `json:"new_caregiver_name"`
}

// ConflictError is returned by Claim when, without force, the elder is held
// by another caregiver at the time of the write.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is now the primary caregiver for %s; resend with force_transfer to replace them",
		e.Conflict.CurrentPrimaryCaregiverName, e.Conflict.ElderName)
}

// Transfer describes a primary change. From is what the caller believes the
// current primary to be; nil means "whatever is recorded now".
type Transfer struct {
	ElderID primitive.ObjectID
	From    *models.PrimaryRef
	To      models.PrimaryRef
	Reason  string
}

func (r *Registry) lock(ctx context.Context, elderID primitive.ObjectID) (locks.Unlock, error) {
	return r.locker.Lock(ctx, locks.Key("elder", elderID.Hex()))
}

func (r *Registry) load(ctx context.Context, elderID primitive.ObjectID) (models.Elder, error) {
	e, err := r.store.GetByID(ctx, elderID)
	if err != nil {
		return models.Elder{}, apperr.FromStore(err, "elder")
	}
	return e, nil
}

// SetPrimary overwrites the elder's primary caregiver. It writes no transfer
// record.
func (r *Registry) SetPrimary(ctx context.Context, elderID primitive.ObjectID, ref models.PrimaryRef, actorID primitive.ObjectID) error {
	if ref.CaregiverID.IsZero() {
		return apperr.Validation("caregiver_id is required")
	}
	unlock, err := r.lock(ctx, elderID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := r.load(ctx, elderID); err != nil {
		return err
	}
	return r.set(ctx, elderID, ref, actorID)
}

func (r *Registry) set(ctx context.Context, elderID primitive.ObjectID, ref models.PrimaryRef, actorID primitive.ObjectID) error {
	if err := r.store.SetPrimary(ctx, elderID, ref, actorID, r.now()); err != nil {
		return apperr.FromStore(err, "elder")
	}
	caremetrics.PrimaryChange(kindSet)
	return nil
}

// CheckConflicts lists elders whose recorded primary differs from newID.
// It returns nothing when assignAsPrimary is false.
func (r *Registry) CheckConflicts(ctx context.Context, elderIDs []primitive.ObjectID, newID primitive.ObjectID, newName string, assignAsPrimary bool) ([]Conflict, error) {
	if !assignAsPrimary {
		return nil, nil
	}
	var out []Conflict
	for _, id := range elderIDs {
		e, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !e.HasPrimary() || *e.PrimaryCaregiverID == newID {
			continue
		}
		out = append(out, Conflict{
			ElderID:                     e.ID,
			ElderName:                   e.Name,
			CurrentPrimaryCaregiverID:   *e.PrimaryCaregiverID,
			CurrentPrimaryCaregiverName: e.PrimaryCaregiverName,
			NewCaregiverID:              newID,
			NewCaregiverName:            newName,
		})
	}
	return out, nil
}

// TransferPrimary moves the primary to t.To and appends a transfer record in
// one atomic write. A stale t.From is rejected.
func (r *Registry) TransferPrimary(ctx context.Context, t Transfer, actorID primitive.ObjectID) error {
	if t.ElderID.IsZero() {
		return apperr.Validation("elder_id is required")
	}
	if t.To.CaregiverID.IsZero() {
		return apperr.Validation("to caregiver_id is required")
	}
	unlock, err := r.lock(ctx, t.ElderID)
	if err != nil {
		return err
	}
	defer unlock()

	e, err := r.load(ctx, t.ElderID)
	if err != nil {
		return err
	}
	return r.transfer(ctx, e, t, actorID)
}

func (r *Registry) transfer(ctx context.Context, e models.Elder, t Transfer, actorID primitive.ObjectID) error {
	from := t.From
	if from != nil {
		if !e.HasPrimary() || *e.PrimaryCaregiverID != from.CaregiverID {
			return apperr.Validation("primary caregiver for %s has changed; reload and try again", e.Name)
		}
	} else if e.HasPrimary() {
		from = &models.PrimaryRef{CaregiverID: *e.PrimaryCaregiverID, Name: e.PrimaryCaregiverName}
	}

	at := r.now()
	to := t.To
	toID := to.CaregiverID
	rec := models.PrimaryCaregiverTransfer{
		ElderID:         e.ID,
		AgencyID:        e.AgencyID,
		ToCaregiverID:   &toID,
		ToCaregiverName: to.Name,
		ActorID:         actorID,
		Timestamp:       at,
	}
	var fromID *primitive.ObjectID
	if from != nil {
		id := from.CaregiverID
		fromID = &id
		rec.FromCaregiverID = fromID
		rec.FromCaregiverName = from.Name
	}

	change := models.PrimaryChange{ElderID: e.ID, Next: &to, ActorID: actorID, At: at}
	if err := r.store.CommitPrimaryChange(ctx, change, rec); err != nil {
		r.log.Error("primary transfer failed",
			zap.String("elder_id", e.ID.Hex()),
			zap.String("to_caregiver_id", toID.Hex()),
			zap.Error(err))
		return apperr.FromStore(err, "elder")
	}
	caremetrics.PrimaryChange(kindTransfer)
	r.audit.PrimaryTransferred(ctx, e.AgencyID, e.ID, fromID, toID, actorID, t.Reason)
	return nil
}

// RemovePrimary clears the primary and logs a "removed" record. It reports
// false, with no writes, when the elder had no primary.
func (r *Registry) RemovePrimary(ctx context.Context, elderID, actorID primitive.ObjectID) (bool, error) {
	unlock, err := r.lock(ctx, elderID)
	if err != nil {
		return false, err
	}
	defer unlock()

	e, err := r.load(ctx, elderID)
	if err != nil {
		return false, err
	}
	if !e.HasPrimary() {
		return false, nil
	}

	at := r.now()
	prev := *e.PrimaryCaregiverID
	rec := models.PrimaryCaregiverTransfer{
		ElderID:           e.ID,
		AgencyID:          e.AgencyID,
		FromCaregiverID:   &prev,
		FromCaregiverName: e.PrimaryCaregiverName,
		ActorID:           actorID,
		Timestamp:         at,
		Action:            models.TransferActionRemoved,
	}
	change := models.PrimaryChange{ElderID: e.ID, ActorID: actorID, At: at}
	if err := r.store.CommitPrimaryChange(ctx, change, rec); err != nil {
		return false, apperr.FromStore(err, "elder")
	}
	caremetrics.PrimaryChange(kindRemove)
	r.audit.PrimaryRemoved(ctx, e.AgencyID, e.ID, prev, actorID)
	return true, nil
}

// History returns the elder's transfer records, newest first.
func (r *Registry) History(ctx context.Context, elderID primitive.ObjectID) ([]models.PrimaryCaregiverTransfer, error) {
	if _, err := r.load(ctx, elderID); err != nil {
		return nil, err
	}
	recs, err := r.store.ListTransfers(ctx, elderID)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.PrimaryCaregiverTransfer{}
	}
	return recs, nil
}

// Claim makes ref the elder's primary under a single elder lock. When
// another caregiver holds the elder, force routes the change through the
// transfer log; without force the elder is left untouched and a
// *ConflictError is returned. It reports whether a transfer was recorded.
func (r *Registry) Claim(ctx context.Context, elderID primitive.ObjectID, ref models.PrimaryRef, actorID primitive.ObjectID, force bool) (bool, error) {
	unlock, err := r.lock(ctx, elderID)
	if err != nil {
		return false, err
	}
	defer unlock()

	e, err := r.load(ctx, elderID)
	if err != nil {
		return false, err
	}
	if e.HasPrimary() && *e.PrimaryCaregiverID != ref.CaregiverID {
		if !force {
			return false, &ConflictError{Conflict: Conflict{
				ElderID:                     e.ID,
				ElderName:                   e.Name,
				CurrentPrimaryCaregiverID:   *e.PrimaryCaregiverID,
				CurrentPrimaryCaregiverName: e.PrimaryCaregiverName,
				NewCaregiverID:              ref.CaregiverID,
				NewCaregiverName:            ref.Name,
			}}
		}
		if err := r.transfer(ctx, e, Transfer{ElderID: elderID, To: ref, Reason: "forced assignment"}, actorID); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, r.set(ctx, elderID, ref, actorID)
}
