package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/login"
)

func disableTelemetry(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OTEL_METRICS_ENABLED", "OTEL_TRACING_ENABLED", "OTEL_LOGS_ENABLED"} {
		t.Setenv(key, "false")
	}
}

func TestProvideConfigAppliesOverridesBeforeValidation(t *testing.T) {
	t.Setenv("LOGIN_ENDPOINT", "ftp://example.com/login")

	if _, err := provideConfig(ConfigSource{}); err == nil || !strings.Contains(err.Error(), "LOGIN_ENDPOINT") {
		t.Fatalf("expected invalid env endpoint to fail, got %v", err)
	}

	endpoint := "http://localhost:8090/login"
	timeout := 0 * time.Second
	cfg, err := provideConfig(ConfigSource{Endpoint: &endpoint, RequestTimeout: &timeout})
	if err != nil {
		t.Fatalf("expected override to win over env: %v", err)
	}
	if cfg.LoginEndpoint != endpoint || cfg.LoginRequestTimeout != 0 {
		t.Fatalf("overrides not applied: endpoint=%q timeout=%s", cfg.LoginEndpoint, cfg.LoginRequestTimeout)
	}
}

func TestInitializeApplicationWiresLoginGraph(t *testing.T) {
	disableTelemetry(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	endpoint := srv.URL
	logFile := filepath.Join(t.TempDir(), "loginform.log")
	app, cleanup, err := InitializeApplication(context.Background(), ConfigSource{Endpoint: &endpoint, LogFile: &logFile})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(cleanup)

	if app.Controller.Form() != app.State {
		t.Fatal("controller must share the application form state")
	}
	if err := app.State.UpdateField(form.FieldEmail, "a@b.com"); err != nil {
		t.Fatalf("update email: %v", err)
	}
	if err := app.State.UpdateField(form.FieldPassword, "abc123!"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	outcome, err := app.Controller.Submit(context.Background())
	if err != nil || outcome != login.OutcomeSucceeded {
		t.Fatalf("expected success, got %s %v", outcome, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one request to the configured endpoint, got %d", calls.Load())
	}
	if app.State.Credentials() != (form.Credentials{}) {
		t.Fatal("expected form reset after success")
	}
}
