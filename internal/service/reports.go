package service

import (
	"context"

	"stockroom/internal/cache"
	"stockroom/internal/domain"
	"stockroom/internal/listing"
	"stockroom/internal/report"
)

func (s *Service) reportInput(ctx context.Context) (report.Input, error) {
	var (
		in  report.Input
		err error
	)
	if in.Sales, err = s.Sales.All(ctx); err != nil {
		return report.Input{}, err
	}
	if in.Purchases, err = s.Purchases.All(ctx); err != nil {
		return report.Input{}, err
	}
	if in.Customers, err = s.Customers.All(ctx); err != nil {
		return report.Input{}, err
	}
	if in.Products, err = s.Products.All(ctx); err != nil {
		return report.Input{}, err
	}
	return in, nil
}

// Report builds the summary for granularity. Snapshots are cached until the
// next mutation, the next minute or the cache TTL, whichever comes first.
func (s *Service) Report(ctx context.Context, g domain.Granularity) (domain.Report, error) {
	now := s.now()
	key := cache.NewReportKey(g, s.generation.Load(), now)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("granularity", string(g)).Msg("report cache read failed")
	} else if ok {
		s.metrics.ReportBuilt(string(g), true)
		return *cached, nil
	}

	in, err := s.reportInput(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	snapshot, err := report.Build(in, g, now)
	if err != nil {
		return domain.Report{}, err
	}
	s.metrics.ReportBuilt(string(g), false)

	if err := s.cache.Set(ctx, key, &snapshot, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("granularity", string(g)).Msg("report cache write failed")
	}
	return snapshot, nil
}

// Dashboard returns all-time totals, the monthly series and, when low stock
// alerts are enabled in settings, the products at or below the threshold.
func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	in, err := s.reportInput(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	threshold := s.lowStockThreshold
	if !settings.Notifications.LowStockAlerts {
		threshold = -1
	}
	return report.BuildDashboard(in, threshold), nil
}

// Export flattens the documents of kind dated inside the current window of
// granularity and matching query.
func (s *Service) Export(ctx context.Context, kind domain.DocumentKind, g domain.Granularity, query string) ([]domain.ExportRow, error) {
	book, err := s.Documents(kind)
	if err != nil {
		return nil, err
	}
	window, err := report.NewWindow(g, s.now())
	if err != nil {
		return nil, err
	}
	docs, err := book.All(ctx)
	if err != nil {
		return nil, err
	}
	return report.ExportRows(listing.Filter(window.Current(docs), query)), nil
}
