package bookprice

import (
	"context"
	"errors"
	"time"

	"bookbargain-backend/lib/chrono"
)

// RefreshStale refreshes up to batch ISBNs whose newest record is stale,
// least recently observed first. A failed refresh does not stop the others,
// it returns the number of ISBNs refreshed.
func (s *Service) RefreshStale(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		return 0, nil
	}

	isbns, err := s.store.StaleISBNs(ctx, s.policy.StaleBefore(s.time.Now()), batch)
	if err != nil {
		return 0, s.storeFailure("stale isbns", err)
	}

	refreshed := 0
	for _, isbn := range isbns {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		_, err := s.Refresh(ctx, isbn)
		if errors.Is(err, ErrSourcesUnavailable) {
			continue
		}
		if err != nil {
			s.tel.ReportWarning(report_refresh, "isbn", isbn, err)
			continue
		}
		refreshed++
	}
	s.tel.ReportCount(report_refreshed, int64(refreshed))
	return refreshed, nil
}

// StartRefresher schedules RefreshStale on spec, every run gets at most
// timeout to finish.
func (s *Service) StartRefresher(cron chrono.CronAPI, spec string, batch int, timeout time.Duration) error {
	return cron.Cron(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_, err := s.RefreshStale(ctx, batch)
		if err != nil {
			s.tel.ReportWarning(report_refresh, err)
		}
	})
}
