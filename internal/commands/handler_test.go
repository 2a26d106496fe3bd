package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payload-sync/internal/logging"
)

type slugMessage struct {
	Slug string
}

func (slugMessage) Type() string { return "payload.test.slug" }

func (m slugMessage) Validate() error {
	if m.Slug == "" {
		return errors.New("slug required")
	}
	return nil
}

func TestHandlerExecuteOutcomes(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name     string
		ctx      context.Context
		msg      slugMessage
		execErr  error
		wantRun  bool
		wantErr  bool
		category goerrors.Category
		code     string
	}{
		{name: "success", ctx: context.Background(), msg: slugMessage{Slug: "rome"}, wantRun: true},
		{name: "invalid message", ctx: context.Background(), msg: slugMessage{}, wantErr: true, category: goerrors.CategoryValidation},
		{name: "cancelled context", ctx: cancelled, msg: slugMessage{Slug: "rome"}, wantErr: true, category: goerrors.CategoryCommand},
		{
			name:     "execution error",
			ctx:      context.Background(),
			msg:      slugMessage{Slug: "rome"},
			execErr:  errors.New("boom"),
			wantRun:  true,
			wantErr:  true,
			category: goerrors.CategoryCommand,
			code:     commandExecuteFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			h := NewHandler[slugMessage](func(context.Context, slugMessage) error {
				ran = true
				return tc.execErr
			})

			err := h.Execute(tc.ctx, tc.msg)
			if ran != tc.wantRun {
				t.Fatalf("ran = %v, want %v", ran, tc.wantRun)
			}
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !goerrors.IsCategory(err, tc.category) {
				t.Fatalf("expected %v category, got %v", tc.category, err)
			}
			if tc.code != "" && TextCode(err) != tc.code {
				t.Fatalf("expected code %s, got %q", tc.code, TextCode(err))
			}
		})
	}
}

func TestHandlerTimeoutIsReportedAsContextError(t *testing.T) {
	var status TelemetryStatus
	h := NewHandler[slugMessage](func(ctx context.Context, _ slugMessage) error {
		<-ctx.Done()
		return ctx.Err()
	},
		WithTimeout[slugMessage](10*time.Millisecond),
		WithTelemetry(func(_ context.Context, _ slugMessage, info TelemetryInfo) { status = info.Status }),
	)

	err := h.Execute(context.Background(), slugMessage{Slug: "rome"})
	if TextCode(err) != commandContextTimeout {
		t.Fatalf("expected %s, got %q (%v)", commandContextTimeout, TextCode(err), err)
	}
	if status != TelemetryStatusFailed {
		t.Fatalf("expected failed status for an error returned by the command, got %s", status)
	}
}

func TestHandlerAttachesRunIDAndMessageFields(t *testing.T) {
	var seen map[string]any
	var info TelemetryInfo
	h := NewHandler[slugMessage](func(ctx context.Context, _ slugMessage) error {
		seen = logging.ContextFields(ctx)
		return nil
	},
		WithOperation[slugMessage]("articles.upload"),
		WithRunIDGenerator[slugMessage](func() string { return "run-1" }),
		WithMessageFields(func(m slugMessage) map[string]any { return map[string]any{"slug": m.Slug} }),
		WithTelemetry(func(_ context.Context, _ slugMessage, got TelemetryInfo) { info = got }),
	)

	if err := h.Execute(context.Background(), slugMessage{Slug: "rome"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if seen["run_id"] != "run-1" || seen["slug"] != "rome" || seen["operation"] != "articles.upload" {
		t.Fatalf("unexpected context fields %#v", seen)
	}
	if info.Status != TelemetryStatusSuccess || info.Command != "payload.test.slug" {
		t.Fatalf("unexpected telemetry %+v", info)
	}
	if info.Status.Event() != "command.execute.success" {
		t.Fatalf("unexpected event %s", info.Status.Event())
	}
}
