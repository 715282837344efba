package iocontext

import (
	"bytes"
	"context"
	"testing"
)

func TestGetIO_RoundTrip(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	streams := &IO{Out: out, ErrOut: errOut}

	got := GetIO(WithIO(context.Background(), streams))
	if got.Out != out || got.ErrOut != errOut {
		t.Error("GetIO should return the streams set with WithIO")
	}
}

func TestGetIO_FallsBackToStandardStreams(t *testing.T) {
	got := GetIO(context.Background())
	if got == nil || got.Out == nil || got.ErrOut == nil || got.In == nil {
		t.Error("GetIO without WithIO should return the standard streams")
	}
}

func TestGetIO_NilValueFallsBack(t *testing.T) {
	ctx := WithIO(context.Background(), nil)
	if got := GetIO(ctx); got == nil || got.Out == nil {
		t.Error("nil IO in context should fall back to defaults")
	}
}
