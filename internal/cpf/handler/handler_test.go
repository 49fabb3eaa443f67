package handler

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/pkg/cpf"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/testutil"
)

func newRouter(opts ...Option) chi.Router {
	r := chi.NewRouter()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), opts...).Register(r)
	return r
}

// sequence replays the free digits of 111444477, whose check digits are 47.
func sequence() cpf.DigitSource {
	var (
		mu   sync.Mutex
		next int
	)
	free := []int{1, 1, 1, 4, 4, 4, 4, 7, 7}
	return cpf.DigitSourceFunc(func() int {
		mu.Lock()
		defer mu.Unlock()
		d := free[next%len(free)]
		next++
		return d
	})
}

func TestGenerate(t *testing.T) {
	t.Run("deterministic source", func(t *testing.T) {
		r := newRouter(WithDigitSource(sequence()))
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/cpf/generate"))
		testutil.AssertStatusOK(t, rr)

		resp := testutil.UnmarshalResponse[GenerateResponse](t, rr)
		assert.Equal(t, "11144447747", resp.Digits)
		assert.Equal(t, "111.444.477-47", resp.CPF)
	})

	t.Run("default source yields valid identifiers", func(t *testing.T) {
		r := newRouter()
		for range 20 {
			rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/cpf/generate"))
			resp := testutil.UnmarshalResponse[GenerateResponse](t, rr)
			id, err := cpf.ParseValid(resp.Digits)
			require.NoError(t, err)
			assert.Equal(t, resp.CPF, id.String())
		}
	})
}

func TestValidate(t *testing.T) {
	r := newRouter()

	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "raw valid", input: "52998224725", valid: true},
		{name: "display valid", input: "529.982.247-25", valid: true},
		{name: "wrong second check digit", input: "52998224724", valid: false},
		{name: "boundary collision", input: "22345678909", valid: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/cpf/validate", ValidateRequest{CPF: tc.input})
			rr := testutil.DoRequest(r, req)
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONContains(t, rr, "valid", tc.valid)
		})
	}

	t.Run("malformed input is a bad request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/cpf/validate", ValidateRequest{CPF: "529.982.24-725"})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	t.Run("unknown field is a bad request", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/cpf/validate", `{"number":"52998224725"}`)
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}
