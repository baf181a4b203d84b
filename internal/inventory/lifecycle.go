package inventory

import (
	"context"
	"math"
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
)

// Operation names a lifecycle transition applied to samples
type Operation string

const (
	OpCheckout      Operation = "checkout"
	OpActivate      Operation = "activate"
	OpFinish        Operation = "finish"
	OpNotFound      Operation = "not-found"
	OpMakeAvailable Operation = "make-available"
	OpRefresh       Operation = "refresh"
)

// ParseOperation validates an operation name received from a caller
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpCheckout, OpActivate, OpFinish, OpNotFound, OpMakeAvailable, OpRefresh:
		return op, nil
	}
	return "", validationError("operation", "unknown operation %q", s)
}

// errPrecondition marks a sample that is not eligible for a transition.
// Bulk runs count such samples as skipped.
var errPrecondition = errors.NewStd("precondition not met")

// transition carries one sample through one lifecycle step inside a transaction.
type transition struct {
	r          repos
	sample     *entities.Sample
	user       *entities.User
	volumeUsed float64
	at         time.Time
}

func (t *transition) apply(ctx context.Context, op Operation) (EventType, error) {
	switch op {
	case OpCheckout:
		return EventCheckout, t.checkout(ctx)
	case OpActivate:
		return EventActivateUse, t.activateUse(ctx)
	case OpFinish:
		return EventFinish, t.finish(ctx)
	case OpNotFound:
		return EventNotFound, t.markNotFound(ctx)
	case OpMakeAvailable, OpRefresh:
		return EventMakeAvailable, t.makeAvailable(ctx)
	}
	return "", errPrecondition
}

// checkout reserves an available sample for the user and opens a ledger entry.
func (t *transition) checkout(ctx context.Context) error {
	if t.sample.InUse {
		return errPrecondition
	}
	t.sample.InUse = true
	t.sample.ActiveUse = false
	t.sample.NotFound = false
	t.sample.CurrentUserID = &t.user.ID
	if err := t.r.samples.Save(ctx, t.sample); err != nil {
		return err
	}
	return t.ensureOpenLog(ctx)
}

func (t *transition) ensureOpenLog(ctx context.Context) error {
	_, err := t.r.logs.FindOpen(ctx, t.sample.ID, t.user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUsageLogNotFound) {
		return err
	}
	_, err = t.r.logs.Open(ctx, t.sample.ID, t.user.ID, t.at)
	return err
}

// activateUse moves a reserved sample of the user to in use.
func (t *transition) activateUse(ctx context.Context) error {
	if !t.sample.HeldBy(t.user.ID) {
		return errPrecondition
	}
	t.sample.ActiveUse = true
	if err := t.r.samples.Save(ctx, t.sample); err != nil {
		return err
	}

	entry, err := t.r.logs.FindOpen(ctx, t.sample.ID, t.user.ID)
	if errors.Is(err, repository.ErrUsageLogNotFound) {
		entry, err = t.r.logs.Open(ctx, t.sample.ID, t.user.ID, t.at)
	}
	if err != nil {
		return err
	}
	return t.r.logs.MarkActiveUse(ctx, entry.ID, t.at)
}

// finish returns the sample, deducting the used volume and closing the ledger entry.
func (t *transition) finish(ctx context.Context) error {
	if !t.sample.HeldBy(t.user.ID) {
		return errPrecondition
	}

	entry, err := t.r.logs.FindOpen(ctx, t.sample.ID, t.user.ID)
	switch {
	case err == nil:
		if err := t.r.logs.Close(ctx, entry.ID, t.volumeUsed, false, t.at); err != nil {
			return err
		}
	case !errors.Is(err, repository.ErrUsageLogNotFound):
		return err
	}

	t.sample.VolumeRemaining = deductVolume(t.sample.VolumeRemaining, t.volumeUsed)
	release(t.sample)
	return t.r.samples.Save(ctx, t.sample)
}

// markNotFound releases a sample the holder cannot locate.
func (t *transition) markNotFound(ctx context.Context) error {
	if !t.sample.HeldBy(t.user.ID) {
		return errPrecondition
	}
	if _, err := t.r.logs.CloseAllOpen(ctx, t.sample.ID, t.user.ID, true, t.at); err != nil {
		return err
	}
	release(t.sample)
	t.sample.NotFound = true
	return t.r.samples.Save(ctx, t.sample)
}

// makeAvailable is the operator override; volume and ledger stay untouched.
func (t *transition) makeAvailable(ctx context.Context) error {
	release(t.sample)
	return t.r.samples.Save(ctx, t.sample)
}

func release(s *entities.Sample) {
	s.InUse = false
	s.ActiveUse = false
	s.NotFound = false
	s.CurrentUserID = nil
	s.CurrentUser = nil
}

// deductVolume subtracts used from remaining, floored at zero.
func deductVolume(remaining, used float64) float64 {
	return math.Max(0, remaining-used)
}

// applyVolumeEdit shifts remaining by the change in total volume, keeping
// it within [0, newTotal].
func applyVolumeEdit(oldTotal, newTotal, remaining float64) float64 {
	if newTotal == oldTotal {
		return remaining
	}
	remaining += newTotal - oldTotal
	return math.Min(newTotal, math.Max(0, remaining))
}
