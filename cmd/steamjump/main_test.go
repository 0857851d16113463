package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/MrSnakeDoc/steamjump/internal/app"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/launcher"
	"github.com/MrSnakeDoc/steamjump/internal/scheduler"
)

type fakeService struct {
	scope   domain.Scope
	query   string
	force   bool
	cleared bool
	report  scheduler.Report
}

func (f *fakeService) Search(_ context.Context, scope domain.Scope, text string) launcher.Response {
	f.scope, f.query = scope, text
	return launcher.Response{
		Scope: scope,
		Query: text,
		Items: []domain.Result{{Key: "app:400", Kind: domain.KindApp, ID: "400", Name: "Portal", Action: "steam://rungameid/400"}},
		Failures: []domain.Failure{
			{Code: "remote_fetch_failure", Source: "api", Message: "status 503"},
		},
	}
}

func (f *fakeService) Launch(_ context.Context, key string) (launcher.LaunchResult, error) {
	if key != "app:400" {
		return launcher.LaunchResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownItem, key)
	}
	return launcher.LaunchResult{Key: key, Kind: domain.KindApp, Action: "steam://rungameid/400"}, nil
}

func (f *fakeService) Refresh(_ context.Context, force bool) scheduler.Report {
	f.force = force
	return f.report
}

func (f *fakeService) Clear(context.Context) error {
	f.cleared = true
	return nil
}

type harness struct {
	svc    *fakeService
	opts   app.Options
	out    bytes.Buffer
	errOut bytes.Buffer
	served bool
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	var cli CLI
	k, err := kong.New(&cli, kong.Vars{"version": "test"})
	if err != nil {
		t.Fatal(err)
	}
	kctx, err := k.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&env{
		ctx:    context.Background(),
		out:    &h.out,
		errOut: &h.errOut,
		open: func(_ context.Context, opts app.Options) (service, func(), error) {
			h.opts = opts
			return h.svc, func() {}, nil
		},
		serve: func(context.Context) error {
			h.served = true
			return nil
		},
	})
}

func TestSearchCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantScope domain.Scope
		wantQuery string
	}{
		{name: "default scope", args: []string{"search", "portal", "two"}, wantScope: domain.ScopeAll, wantQuery: "portal two"},
		{name: "explicit scope", args: []string{"search", "--scope", "apps", "portal"}, wantScope: domain.ScopeApps, wantQuery: "portal"},
		{name: "empty query", args: []string{"search", "-s", "friends"}, wantScope: domain.ScopeFriends, wantQuery: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{svc: &fakeService{}}
			if err := h.run(t, tt.args...); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if h.svc.scope != tt.wantScope || h.svc.query != tt.wantQuery {
				t.Errorf("Search(%q, %q), want (%q, %q)", h.svc.scope, h.svc.query, tt.wantScope, tt.wantQuery)
			}
			if !h.opts.RefreshOnQuery {
				t.Errorf("one-shot search should refresh stale sources")
			}
			if !strings.Contains(h.out.String(), "app:400") {
				t.Errorf("output = %q", h.out.String())
			}
			if !strings.Contains(h.errOut.String(), "remote_fetch_failure") {
				t.Errorf("failures not reported: %q", h.errOut.String())
			}
		})
	}
}

func TestSearchCommandJSON(t *testing.T) {
	h := &harness{svc: &fakeService{}}
	if err := h.run(t, "search", "--json", "portal"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var resp launcher.Response
	if err := json.Unmarshal(h.out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(resp.Items) != 1 || len(resp.Failures) != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchCommandBadScope(t *testing.T) {
	h := &harness{svc: &fakeService{}}
	if err := h.run(t, "search", "--scope", "planets", "x"); err == nil {
		t.Fatal("expected an error for an unknown scope")
	}
}

func TestLaunchCommand(t *testing.T) {
	h := &harness{svc: &fakeService{}}
	if err := h.run(t, "launch", "app:400"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(h.out.String()); got != "steam://rungameid/400" {
		t.Errorf("output = %q", got)
	}

	err := (&harness{svc: &fakeService{}}).run(t, "launch", "app:999")
	if !errors.Is(err, domain.ErrUnknownItem) || exitCode(err) != 2 {
		t.Errorf("unknown item error = %v", err)
	}
}

func TestRefreshCommand(t *testing.T) {
	h := &harness{svc: &fakeService{report: scheduler.Report{FileDue: true, FileRefreshed: true}}}
	if err := h.run(t, "refresh", "--force"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !h.svc.force {
		t.Errorf("--force not passed through")
	}
	if !strings.Contains(h.out.String(), "files: refreshed") || !strings.Contains(h.out.String(), "api:   fresh") {
		t.Errorf("output = %q", h.out.String())
	}

	failing := &harness{svc: &fakeService{report: scheduler.Report{
		APIDue: true,
		APIErr: fmt.Errorf("%w: status 503", domain.ErrRemoteFetch),
	}}}
	if err := failing.run(t, "refresh"); !errors.Is(err, domain.ErrRemoteFetch) {
		t.Errorf("run() error = %v, want ErrRemoteFetch", err)
	}
	if !strings.Contains(failing.out.String(), "api:   failed") {
		t.Errorf("output = %q", failing.out.String())
	}
}

func TestClearAndServeCommands(t *testing.T) {
	h := &harness{svc: &fakeService{}}
	if err := h.run(t, "clear"); err != nil || !h.svc.cleared {
		t.Errorf("clear: err = %v, cleared = %v", err, h.svc.cleared)
	}
	if err := h.run(t, "serve"); err != nil || !h.served {
		t.Errorf("serve: err = %v, served = %v", err, h.served)
	}
}

func TestNoCommandIsAnError(t *testing.T) {
	h := &harness{svc: &fakeService{}}
	if err := h.run(t); err == nil {
		t.Fatal("expected an error when no command is given")
	}
}
