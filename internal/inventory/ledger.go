package inventory

import (
	"context"
	"slices"
	"time"
)

// Activity actions
const (
	ActionCheckedOut = "checked out"
	ActionReturned   = "returned"
)

// Activity is one entry of the recent-activity feed
type Activity struct {
	SampleID       uint      `json:"sample_id"`
	InternalNumber string    `json:"internal_number"`
	Username       string    `json:"username"`
	Action         string    `json:"action"`
	At             time.Time `json:"at"`
	VolumeUsed     float64   `json:"volume_used"`
	NotFound       bool      `json:"not_found"`
}

// RecentActivity returns the latest ledger entries, newest event first.
func (s *Service) RecentActivity(ctx context.Context) ([]Activity, error) {
	entries, err := s.read().logs.Recent(ctx, s.settings.RecentActivity)
	if err != nil {
		return nil, databaseError(err, "recent_activity")
	}

	feed := make([]Activity, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		a := Activity{
			SampleID:   e.SampleID,
			Action:     ActionCheckedOut,
			At:         e.EventTime(),
			VolumeUsed: e.VolumeUsed,
			NotFound:   e.NotFound,
		}
		if !e.IsOpen() {
			a.Action = ActionReturned
		}
		if e.Sample != nil {
			a.InternalNumber = e.Sample.InternalNumber
		}
		if e.User != nil {
			a.Username = e.User.Username
		}
		feed = append(feed, a)
	}
	slices.SortStableFunc(feed, func(a, b Activity) int {
		return b.At.Compare(a.At)
	})
	return feed, nil
}
