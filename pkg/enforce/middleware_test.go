package enforce_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/enforce"
	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	doc := requirements.Document{"F": {"api": {"post_withdrawal": {"savings"}}}}
	f := newFixture(t, doc, feature.Definition{Name: "F"})
	guard := f.guard(enforce.LayerAPI)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	subtype := func(r *http.Request) string { return r.URL.Query().Get("account") }
	h := enforce.Middleware(guard, "post_withdrawal", subtype, nil)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/withdrawals?account=savings", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "F", body["flag"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/withdrawals?account=current", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// No account parameter: undetermined subtype, rule applies.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/withdrawals", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.set(t, "F", true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/withdrawals?account=savings", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDefaultDenyHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	enforce.DefaultDenyHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("s3: bucket flags-prod: access denied"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "flags-prod")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), body["error"])
}
