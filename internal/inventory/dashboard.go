package inventory

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
)

// Dashboard is the landing page summary
type Dashboard struct {
	Total        int64                     `json:"total"`
	InUse        int64                     `json:"in_use"`
	Available    int64                     `json:"available"`
	LowVolume    int64                     `json:"low_volume"`
	BySampleType []repository.NameCount    `json:"by_sample_type"`
	ByTarget     []repository.NameCount    `json:"by_target"`
	Recent       []Activity                `json:"recent"`
	TopUsers     []repository.UserActivity `json:"top_users"`
}

// Dashboard aggregates the inventory counters. The independent queries run
// concurrently; the result is cached until the next write.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	return cached(s, dashboardCacheKey, s.ttl.DashboardTTL, func() (*Dashboard, error) {
		return s.buildDashboard(ctx)
	})
}

func (s *Service) buildDashboard(ctx context.Context) (*Dashboard, error) {
	r := s.read()
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.Total, err = r.samples.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.InUse, err = r.samples.CountInUse(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.LowVolume, err = r.samples.CountLowVolume(gctx, s.settings.LowVolumePercent)
		return err
	})
	g.Go(func() (err error) {
		d.BySampleType, err = r.samples.Distribution(gctx, repository.BySampleType, s.settings.TopDistribution)
		return err
	})
	g.Go(func() (err error) {
		d.ByTarget, err = r.samples.Distribution(gctx, repository.ByTarget, s.settings.TopDistribution)
		return err
	})
	g.Go(func() (err error) {
		d.Recent, err = s.RecentActivity(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopUsers, err = r.logs.TopUsers(gctx, s.settings.TopUsers)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, databaseError(err, "dashboard")
	}
	d.Available = d.Total - d.InUse
	return d, nil
}
