package discovery

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLookup_Static(t *testing.T) {
	dir := filepath.Join("opt", "vrchat")
	got, err := Lookup(Static(dir))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if want := filepath.Join(dir, ExecutableName); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLookup_EmptyStatic(t *testing.T) {
	_, err := Lookup(Static(""))
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestLookup_FuncEmptyValue(t *testing.T) {
	_, err := Lookup(Func(func() (string, error) { return "  ", nil }))
	var de *Error
	if !errors.As(err, &de) || de.Reason != "empty value" {
		t.Fatalf("expected empty value error, got %v", err)
	}
}

func TestLookup_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Lookup(Func(func() (string, error) { return "", &Error{Key: "k", Reason: "r", Err: boom} }))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestLookup_Nil(t *testing.T) {
	if _, err := Lookup(nil); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Lookup(None{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestRegistry_NonWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("registry is available on windows")
	}
	if _, err := (Registry{}).InstallDir(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
