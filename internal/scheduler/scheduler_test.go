package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codr1/hoteldash/internal/pricing"
)

func TestServiceAddJobValidation(t *testing.T) {
	svc, err := newService()
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	svc.Start()
	t.Cleanup(func() { _ = svc.Stop() })

	if _, err := svc.AddJob(" ", "* * * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Errorf("AddJob(blank name) error = %v, want ErrEmptyJobName", err)
	}
	if _, err := svc.AddJob("job", "", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Errorf("AddJob(blank cron) error = %v, want ErrEmptyCronExpr", err)
	}
	if _, err := svc.AddJob("job", "not a cron", func() {}); err == nil {
		t.Errorf("AddJob(bad cron) error = nil, want error")
	}

	job, err := svc.AddJob("job", "0 */6 * * *", func() {})
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if job.Name() != "job" {
		t.Errorf("job name = %q, want job", job.Name())
	}
}

func TestServiceStopIsIdempotent(t *testing.T) {
	svc, err := newService()
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	svc.Start()
	if err := svc.Stop(); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestNilServiceReportsNotInitialized(t *testing.T) {
	var svc *Service
	if _, err := svc.AddJob("job", "* * * * *", func() {}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("AddJob() error = %v, want ErrNotInitialized", err)
	}
	if err := svc.Stop(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Stop() error = %v, want ErrNotInitialized", err)
	}
}

type stubRefresher struct {
	err      error
	deadline bool
	calls    int
}

func (s *stubRefresher) Refresh(ctx context.Context) (int, error) {
	s.calls++
	_, s.deadline = ctx.Deadline()
	return 3, s.err
}

func TestRunPriceRefreshAppliesTimeout(t *testing.T) {
	for _, refreshErr := range []error{nil, pricing.ErrNoPricesScraped, pricing.ErrRefreshInProgress, errors.New("boom")} {
		refresher := &stubRefresher{err: refreshErr}
		RunPriceRefresh(context.Background(), refresher, time.Minute)
		if refresher.calls != 1 {
			t.Fatalf("Refresh called %d times, want 1", refresher.calls)
		}
		if !refresher.deadline {
			t.Errorf("Refresh context had no deadline for err %v", refreshErr)
		}
	}
}

func TestRegisterPriceRefreshJobRequiresRefresher(t *testing.T) {
	if err := RegisterPriceRefreshJob(nil, "0 * * * *", time.Minute); err == nil {
		t.Fatal("RegisterPriceRefreshJob(nil) error = nil, want error")
	}
}
