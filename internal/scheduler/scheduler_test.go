package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSchedulerRunsJob(t *testing.T) {
	s := New(quietLogger())
	ran := make(chan struct{}, 1)

	err := s.Register(Job{
		Name: "tick",
		Spec: "@every 10ms",
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestSchedulerSurvivesFailingJob(t *testing.T) {
	s := New(quietLogger())
	ran := make(chan struct{}, 1)

	if err := s.Register(Job{
		Name: "bad",
		Spec: "@every 10ms",
		Run: func(ctx context.Context) error {
			return errors.New("boom")
		},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register(Job{
		Name: "good",
		Spec: "@every 10ms",
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy job starved by failing one")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New(quietLogger())
	err := s.Register(Job{
		Name: "broken",
		Spec: "not a cron spec",
		Run:  func(ctx context.Context) error { return nil },
	})
	if err == nil {
		t.Fatal("expected error for invalid cron spec")
	}

	if err := s.Register(Job{Name: "nil", Spec: "@every 1h"}); err == nil {
		t.Fatal("expected error for nil run function")
	}
}
