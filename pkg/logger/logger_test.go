package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if Get() == nil {
		t.Fatal("Get() returned nil after Init")
	}
}

func TestLoggingMethods(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	ctx := context.Background()
	l := Get()

	l.Debug(ctx, "debug message", String("key", "value"))
	l.Info(ctx, "info message", Int("count", 3))
	l.Warn(ctx, "warn message", Float64("ratio", 0.5))
	l.Error(ctx, "error message", Bool("flag", true), Any("payload", map[string]int{"a": 1}))
}

func TestNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	child := Named("pipeline")
	if child == nil {
		t.Fatal("Named() returned nil")
	}
	child.Info(context.Background(), "named logger message")

	grandchild := child.Named("kpi")
	if grandchild == nil {
		t.Fatal("Named() on child returned nil")
	}
}

func TestFieldConstructors(t *testing.T) {
	f := String("k", "v")
	if f.Key != "k" || f.Value != "v" {
		t.Errorf("String() = %+v, want {k v}", f)
	}
	if f := Int("n", 42); f.Value != 42 {
		t.Errorf("Int() value = %v, want 42", f.Value)
	}
	if f := Bool("b", true); f.Value != true {
		t.Errorf("Bool() value = %v, want true", f.Value)
	}
	if f := Error(context.Canceled); f.Key != "error" {
		t.Errorf("Error() key = %q, want error", f.Key)
	}
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "INFO", ""} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q) error = %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("SetLevelString(verbose) expected an error")
	}
	SetLevel(slog.LevelInfo)
}
