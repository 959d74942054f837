package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

func TestParsePriceToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"600", 60000, nil},
		{"599.99", 59999, nil},
		{"0", 0, nil},
		{"0.5", 50, nil},
		{"", 0, e.ErrInvalidPrice},
		{"  ", 0, e.ErrInvalidPrice},
		{"abc", 0, e.ErrInvalidPrice},
		{"-1", 0, e.ErrInvalidPrice},
		{"1.999", 0, e.ErrPricePrecision},
		{"100000000100", 0, e.ErrInvalidPrice},
	}

	for _, tc := range cases {
		got, err := parsePriceToCents(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("%q: expected %v, got %v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %d cents, got %d", tc.in, tc.want, got)
		}
	}
}

func TestToHTTPResponseStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{e.Wrap("op", e.ErrInvalidParameter), http.StatusBadRequest},
		{e.Wrap("op", e.ErrInvalidImage), http.StatusBadRequest},
		{e.Wrap("op", e.ErrProductNameRequired), http.StatusBadRequest},
		{e.Wrap("op", e.ErrNotFound), http.StatusNotFound},
		{e.Wrap("op", e.ErrRebuildInProgress), http.StatusConflict},
		{e.Wrap("op", e.ErrNetwork), http.StatusBadGateway},
		{e.Wrap("op", e.ErrEncodingFailure), http.StatusBadGateway},
		{e.Wrap("op", e.ErrCorruptIndex), http.StatusInternalServerError},
		{e.Wrap("op", e.ErrRebuildFailed), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if code, _ := ToHTTPResponse(tc.err); code != tc.want {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.want, code)
		}
	}
}

func TestToHTTPResponseHidesInternalDetail(t *testing.T) {
	_, msg := ToHTTPResponse(e.Wrap("Store.Load: /data/embeddings.json", e.ErrCorruptIndex))
	if msg != e.ErrInternalServerError.Error() {
		t.Errorf("internal detail leaked to client: %q", msg)
	}

	_, msg = ToHTTPResponse(e.Wrap("top_k", e.ErrInvalidParameter))
	if msg != e.ErrInvalidParameter.Error() {
		t.Errorf("expected innermost message for 400, got %q", msg)
	}
}
