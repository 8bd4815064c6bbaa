package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return New(Config{Level: slog.LevelDebug, Component: component, Handler: handler}), &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	logger, buf := newBufLogger(ComponentStorage)

	logger.Info("Account created", FieldAccountID, int64(7))

	out := buf.String()
	if !strings.Contains(out, FieldComponent+"="+ComponentStorage) {
		t.Fatalf("expected component field in %q", out)
	}
	if !strings.Contains(out, FieldAccountID+"=7") {
		t.Fatalf("expected account_id field in %q", out)
	}
}

func TestLoggerContextVariants(t *testing.T) {
	logger, buf := newBufLogger(ComponentWorker)
	ctx := context.Background()

	logger.DebugContext(ctx, "debug line")
	logger.InfoContext(ctx, "info line")
	logger.WarnContext(ctx, "warn line")
	logger.ErrorContext(ctx, "error line")

	out := buf.String()
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		if !strings.Contains(out, "level="+level) {
			t.Fatalf("expected %s record in %q", level, out)
		}
	}
	if strings.Count(out, FieldComponent+"="+ComponentWorker) != 4 {
		t.Fatalf("every record must carry the component: %q", out)
	}
}

func TestWithComponentOverrides(t *testing.T) {
	logger, buf := newBufLogger(ComponentApp)

	logger.WithComponent(ComponentAMQP).Info("Published message")

	out := buf.String()
	if !strings.Contains(out, FieldComponent+"="+ComponentAMQP) {
		t.Fatalf("expected amqp component in %q", out)
	}
	if strings.Contains(out, FieldComponent+"="+ComponentApp) {
		t.Fatalf("base component must be replaced in %q", out)
	}
}

func TestForComponentUsesDefaultHandler(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)
	SetDefault(New(Config{Handler: slog.NewTextHandler(&buf, nil)}))

	ForComponent(ComponentHTTP).Info("Request started", FieldMethod, "GET")

	out := buf.String()
	if !strings.Contains(out, FieldComponent+"="+ComponentHTTP) {
		t.Fatalf("expected http component in %q", out)
	}
	if !strings.Contains(out, FieldMethod+"=GET") {
		t.Fatalf("expected method field in %q", out)
	}
}
