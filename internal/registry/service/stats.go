package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	regmetrics "arefa/internal/registry/metrics"
	"arefa/internal/registry/models"
	"arefa/internal/registry/store"
	dErrors "arefa/pkg/domain-errors"
	"arefa/pkg/requestcontext"
)

const (
	recentTraders   = 3
	recentOperators = 2
	recentTotal     = 5
)

// Stats computes the dashboard figures.
type Stats struct {
	traders   store.TraderStore
	operators store.OperatorStore
	logger    *slog.Logger
	metrics   *regmetrics.Metrics
}

func NewStats(traders store.TraderStore, operators store.OperatorStore, opts ...Option) *Stats {
	c := newConfig(opts)
	return &Stats{traders: traders, operators: operators, logger: c.logger, metrics: c.metrics}
}

// Compute counts both kinds, today's registrations (UTC day of the request
// time), trader activities and associations, and the five most recent
// registrations drawn from the three newest traders and two newest operators.
func (s *Stats) Compute(ctx context.Context) (*models.Stats, error) {
	start := time.Now()
	defer s.metrics.ObserveStats(start)

	traders, err := s.traders.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load traders")
	}
	operators, err := s.operators.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load operators")
	}

	now := requestcontext.Now(ctx).UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := &models.Stats{
		TotalCambistes:  len(traders),
		TotalOperateurs: len(operators),
		ActivityStats:   make(map[string]int, len(models.TraderActivities)),
	}
	for _, key := range models.TraderActivities {
		out.ActivityStats[key] = 0
	}

	associations := make(map[string]int)
	for _, t := range traders {
		if !t.RegisteredOn().Before(today) {
			out.TodayTotal++
		}
		for _, key := range models.TraderActivities {
			if on, _ := t.Activity(key); on {
				out.ActivityStats[key]++
			}
		}
		if name := strings.TrimSpace(t.AssociationNom); name != "" {
			associations[name]++
		}
	}
	for _, o := range operators {
		if !o.RegisteredOn().Before(today) {
			out.TodayTotal++
		}
	}

	out.AssociationStats = make([]models.AssociationRow, 0, len(associations))
	for name, n := range associations {
		out.AssociationStats = append(out.AssociationStats, models.AssociationRow{Name: name, Count: n})
	}
	sort.Slice(out.AssociationStats, func(i, j int) bool {
		a, b := out.AssociationStats[i], out.AssociationStats[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	out.ActiveAssociations = len(out.AssociationStats)

	out.RecentActivities = recent(traders, operators)
	return out, nil
}

func recent(traders []*models.Trader, operators []*models.Operator) []models.RecentActivity {
	feed := make([]models.RecentActivity, 0, recentTraders+recentOperators)
	for _, t := range traders[:min(recentTraders, len(traders))] {
		feed = append(feed, models.RecentActivity{
			ID:                 t.ID,
			NomPrenom:          t.NomPrenom,
			DateEnregistrement: t.DateEnregistrement,
			PhotoIDPath:        t.PhotoIDPath,
			Type:               models.ActivityTypeTrader,
		})
	}
	for _, o := range operators[:min(recentOperators, len(operators))] {
		feed = append(feed, models.RecentActivity{
			ID:                 o.ID,
			NomPrenom:          o.NomPrenom,
			DateEnregistrement: o.DateEnregistrement,
			PhotoIDPath:        o.PhotoPath,
			Type:               models.ActivityTypeOperator,
		})
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].DateEnregistrement.After(feed[j].DateEnregistrement)
	})
	return feed[:min(recentTotal, len(feed))]
}
