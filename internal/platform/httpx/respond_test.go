package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"not found":    {fmt.Errorf("load: %w", api.ErrNotFound), http.StatusNotFound},
		"invalid form": {&forms.ValidationError{Fields: forms.FieldErrors{"name": "required"}}, http.StatusBadRequest},
		"unauthorized": {api.ErrUnauthorized, http.StatusUnauthorized},
		"upstream":     {fmt.Errorf("call: %w", api.ErrUpstream), http.StatusBadGateway},
		"other":        {fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
		})
	}
}
