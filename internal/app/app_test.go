package app

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/provider"
)

type stubService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := &stubService{name: "failing", startErr: boom}
	blocking := &stubService{name: "blocking", block: true}
	runner := NewRunner(failing, blocking)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) || err.Error() != "failing: boom" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !failing.stopped.Load() || !blocking.stopped.Load() {
		t.Fatalf("every service must be stopped")
	}
}

func TestRunnerCancelledContextIsCleanExit(t *testing.T) {
	blocking := &stubService{name: "blocking", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancel must not be reported as failure, got %v", err)
	}
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner must fail")
	}
}

func TestRunnerEarlyCleanExitStopsOthers(t *testing.T) {
	finished := &stubService{name: "oneshot"}
	blocking := &stubService{name: "blocking", block: true}
	runner := NewRunner(finished, nil, blocking)
	if got := runner.Names(); !reflect.DeepEqual(got, []string{"oneshot", "blocking"}) {
		t.Fatalf("nil services must be dropped, got %v", got)
	}
	if err := runner.Run(context.Background(), time.Second, nil); err != nil {
		t.Fatalf("clean exit must not fail, got %v", err)
	}
	if !blocking.stopped.Load() {
		t.Fatalf("remaining services must be stopped")
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{Mode: " API "})
	if opts.Mode != ModeAPI {
		t.Fatalf("mode must be normalized, got %q", opts.Mode)
	}
	if opts.Logger == nil || opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("defaults not applied: %+v", opts)
	}
	if normalizeOptions(Options{}).Mode != ModeAll {
		t.Fatalf("empty mode must default to all")
	}
}

func TestBuildRunnerModes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.Mode = "debug"
	container := &provider.Container{Config: cfg}

	runner, err := buildRunner(cfg, ModeAll, container)
	if err != nil {
		t.Fatalf("build all failed: %v", err)
	}
	if got := runner.Names(); !reflect.DeepEqual(got, []string{"http", "discount_sweep"}) {
		t.Fatalf("unexpected services %v", got)
	}

	runner, err = buildRunner(cfg, ModeAPI, container)
	if err != nil {
		t.Fatalf("build api failed: %v", err)
	}
	if got := runner.Names(); !reflect.DeepEqual(got, []string{"http"}) {
		t.Fatalf("unexpected services %v", got)
	}

	if _, err := buildRunner(cfg, ModeWorker, container); err == nil {
		t.Fatalf("worker mode without queue must fail")
	}
	if _, err := BuildRunner(cfg, "cron"); err == nil {
		t.Fatalf("unknown mode must fail")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config must fail")
	}
}

func TestHTTPServiceServesUntilStopped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, handler)

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	var addr string
	for i := 0; i < 100; i++ {
		if addr = svc.Addr(); addr != "127.0.0.1:0" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("graceful stop must be clean, got %v", err)
	}
}
