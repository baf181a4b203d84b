package inventory

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// BulkRequest selects the samples and parameters of a bulk transition
type BulkRequest struct {
	Operation  Operation
	SampleIDs  []uint
	Actor      Actor
	VolumeUsed float64 // finish only
}

// BulkResult reports the outcome of a bulk transition. Ineligible samples
// are skipped silently; Errors holds the first messages of real failures.
type BulkResult struct {
	Affected   int      `json:"affected"`
	Skipped    int      `json:"skipped"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors,omitempty"`
}

func (r *BulkResult) addError(limit int, msg string) {
	r.ErrorCount++
	if len(r.Errors) < limit {
		r.Errors = append(r.Errors, msg)
	}
}

// Bulk applies one transition to every sample independently. Each sample
// commits in its own transaction; one failure never aborts its siblings.
func (s *Service) Bulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if req.VolumeUsed < 0 {
		return nil, validationError("volume_used", "volume used cannot be negative")
	}
	if _, err := ParseOperation(string(req.Operation)); err != nil {
		return nil, err
	}
	if normalizeName(req.Actor.Username) == "" {
		return nil, validationError("user", "acting user is required")
	}

	ids := req.SampleIDs
	if req.Operation == OpRefresh {
		user, err := s.actorUser(ctx, req.Actor)
		if err != nil {
			return nil, err
		}
		ids, err = s.read().samples.RefreshCandidates(ctx, user.ID)
		if err != nil {
			return nil, databaseError(err, "bulk_refresh")
		}
	}

	started := time.Now()
	result := &BulkResult{}
	var events []Event
	for _, id := range ids {
		event, err := s.transitionOne(ctx, req, id)
		switch {
		case err == nil:
			result.Affected++
			events = append(events, event)
		case errors.Is(err, errPrecondition), errors.Is(err, ErrSampleNotFound):
			result.Skipped++
		default:
			result.addError(s.settings.ImportErrorLimit, fmt.Sprintf("sample %d: %v", id, err))
			s.log.Warn("bulk transition failed",
				logger.String("operation", string(req.Operation)),
				logger.Uint("sample_id", id),
				logger.Error(err))
		}
	}

	s.metrics.RecordBulk(string(req.Operation), result.Affected, result.Skipped)
	s.metrics.RecordOperation("bulk_"+string(req.Operation), started, nil)
	if result.Affected > 0 {
		s.invalidate(dashboardCacheKey)
		s.publish(ctx, events...)
	}
	s.log.Info("bulk transition",
		logger.String("operation", string(req.Operation)),
		logger.String("user", req.Actor.Username),
		logger.Int("requested", len(ids)),
		logger.Int("affected", result.Affected),
		logger.Int("skipped", result.Skipped),
		logger.Int("errors", result.ErrorCount))
	return result, nil
}

// actorUser resolves the acting user in its own short transaction.
func (s *Service) actorUser(ctx context.Context, actor Actor) (*entities.User, error) {
	var user *entities.User
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		u, err := s.resolveUser(ctx, newRepos(tx), actor)
		user = u
		return err
	})
	return user, databaseError(err, "resolve_user")
}

func (s *Service) transitionOne(ctx context.Context, req BulkRequest, id uint) (Event, error) {
	var event Event
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		r := newRepos(tx)
		user, err := s.resolveUser(ctx, r, req.Actor)
		if err != nil {
			return err
		}
		sample, err := r.samples.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapRepoError(err, id)
		}

		t := &transition{r: r, sample: sample, user: user, volumeUsed: req.VolumeUsed, at: s.now()}
		eventType, err := t.apply(ctx, req.Operation)
		if err != nil {
			return err
		}
		event = s.newEvent(eventType, sample.ID, sample.InternalNumber, user.Username)
		if eventType == EventFinish {
			event.VolumeUsed = req.VolumeUsed
		}
		return nil
	})
	return event, err
}
