package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapAndRoot(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("socket closed")
	err := Wrapf(cause, ErrorCodeUpstream, "fetch %s failed", "profile")

	if got := err.Error(); got != "fetch profile failed: socket closed" {
		t.Fatalf("Error() = %q", got)
	}
	if Root(err) != cause {
		t.Fatalf("Root = %v", Root(err))
	}
	if !stderrs.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
}

func TestCodeOfThroughFmtWrap(t *testing.T) {
	t.Parallel()

	inner := Conflictf("monthly limit reached (%d)", 3)
	outer := fmt.Errorf("increment: %w", inner)

	if CodeOf(outer) != ErrorCodeConflict {
		t.Fatalf("CodeOf = %v", CodeOf(outer))
	}
	if !IsCode(outer, ErrorCodeConflict) {
		t.Fatal("IsCode missed wrapped code")
	}
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatal("plain error should map to unknown")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{NotFoundf("gone"), http.StatusNotFound},
		{InvalidArgf("bad"), http.StatusUnprocessableEntity},
		{Conflictf("limit"), http.StatusConflict},
		{DuplicateKeyf("dupe"), http.StatusConflict},
		{JSONErrf("parse"), http.StatusBadRequest},
		{Unavailablef("off"), http.StatusServiceUnavailable},
		{Upstreamf("asr"), http.StatusBadGateway},
		{DBf("db"), http.StatusInternalServerError},
		{stderrs.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWireFrom(t *testing.T) {
	t.Parallel()

	w := WireFrom(WithField(InvalidArgf("must be a url"), "profiles.0.url"))
	if w.Code != ErrorCodeInvalidArgument || w.Field != "profiles.0.url" || w.Message != "must be a url" {
		t.Fatalf("wire = %+v", w)
	}

	w = WireFrom(stderrs.New("boom"))
	if w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("wire = %+v", w)
	}
}

func TestFromPGClassifies(t *testing.T) {
	t.Parallel()

	dupe := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	err := FromPG(fmt.Errorf("exec: %w", dupe), "usage.upsert")
	if CodeOf(err) != ErrorCodeDuplicateKey {
		t.Fatalf("CodeOf = %v", CodeOf(err))
	}
	if !IsDuplicateKey(err) {
		t.Fatal("IsDuplicateKey missed 23505")
	}
	if e, ok := As(err); !ok || e.Op() != "usage.upsert" {
		t.Fatalf("op not attached: %v", err)
	}

	plain := FromPG(stderrs.New("conn refused"), "usage.get")
	if CodeOf(plain) != ErrorCodeDB {
		t.Fatalf("CodeOf = %v", CodeOf(plain))
	}

	if FromPG(nil, "noop") != nil {
		t.Fatal("nil should stay nil")
	}
}

func TestIsNoRows(t *testing.T) {
	t.Parallel()

	if !IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped ErrNoRows not detected")
	}
	if IsNoRows(stderrs.New("other")) {
		t.Fatal("false positive")
	}
}
