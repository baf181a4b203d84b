package inventory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// OverdueSample is one line of an overdue reminder
type OverdueSample struct {
	ID             uint      `json:"id"`
	InternalNumber string    `json:"internal_number"`
	ActiveUse      bool      `json:"active_use"`
	LastModified   time.Time `json:"last_modified"`
}

// OverdueUser groups the overdue samples held by one user
type OverdueUser struct {
	UserID   uint            `json:"user_id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Reserved []OverdueSample `json:"reserved"`
	InUse    []OverdueSample `json:"in_use"`
}

// Samples returns every overdue sample of the user
func (u *OverdueUser) Samples() []OverdueSample {
	return slices.Concat(u.Reserved, u.InUse)
}

// OverdueCutoff is the instant before which an untouched checkout is overdue.
func (s *Service) OverdueCutoff() time.Time {
	return s.now().AddDate(0, 0, -s.settings.OverdueDays)
}

// Overdue groups in-use samples not modified within the holding period by
// holder. It only reads; sending reminders is up to the caller.
func (s *Service) Overdue(ctx context.Context) ([]OverdueUser, error) {
	samples, err := s.read().samples.Overdue(ctx, s.OverdueCutoff())
	if err != nil {
		return nil, databaseError(err, "overdue")
	}

	byUser := make(map[uint]*OverdueUser)
	var order []uint
	for i := range samples {
		sample := &samples[i]
		if sample.CurrentUser == nil {
			continue
		}
		u, ok := byUser[sample.CurrentUser.ID]
		if !ok {
			u = overdueUser(sample.CurrentUser)
			byUser[u.UserID] = u
			order = append(order, u.UserID)
		}
		line := OverdueSample{
			ID:             sample.ID,
			InternalNumber: sample.InternalNumber,
			ActiveUse:      sample.ActiveUse,
			LastModified:   sample.LastModified,
		}
		if sample.ActiveUse {
			u.InUse = append(u.InUse, line)
		} else {
			u.Reserved = append(u.Reserved, line)
		}
	}

	out := make([]OverdueUser, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	slices.SortFunc(out, func(a, b OverdueUser) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

func overdueUser(u *entities.User) *OverdueUser {
	return &OverdueUser{UserID: u.ID, Username: u.Username, Email: u.Email}
}
