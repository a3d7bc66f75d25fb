package admin

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmly/internal/factors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store *factors.Store, adminKey, source string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(store, adminKey, source).RegisterRoutes(r.Group("/api/admin"))
	return r
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cf_factors.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReloadRequiresAdminKey(t *testing.T) {
	store := factors.NewStore(10)
	r := newTestRouter(store, "sekret", "unused")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", nil)
	req.Header.Set("x-admin-key", "wrong")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestReloadRefusedWhenNoKeyConfigured(t *testing.T) {
	store := factors.NewStore(10)
	r := newTestRouter(store, "", "unused")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", nil)
	req.Header.Set("x-admin-key", "")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestReloadPublishesArtifact(t *testing.T) {
	store := factors.NewStore(10)
	path := writeArtifact(t, `{"Q": [[1,0],[0,1]], "idToRow": {"1": 0, "2": 1}}`)
	r := newTestRouter(store, "sekret", path)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", nil)
	req.Header.Set("x-admin-key", "sekret")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, store.IsReady())
	require.Contains(t, w.Body.String(), `"items":2`)
	require.Contains(t, w.Body.String(), `"dims":2`)
}

func TestReloadSourceOverride(t *testing.T) {
	store := factors.NewStore(10)
	path := writeArtifact(t, `{"Q": [[1,0,0]], "idToRow": {"9": 0}}`)
	r := newTestRouter(store, "sekret", "does-not-exist.json")

	body := strings.NewReader(`{"source": "` + path + `"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", body)
	req.Header.Set("x-admin-key", "sekret")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, uint64(1), store.Generation())
}

func TestReloadMalformedArtifactLeavesSnapshot(t *testing.T) {
	store := factors.NewStore(10)
	good := writeArtifact(t, `{"Q": [[1,0]], "idToRow": {"1": 0}}`)
	r := newTestRouter(store, "sekret", good)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", nil)
	req.Header.Set("x-admin-key", "sekret")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	gen := store.Generation()

	bad := writeArtifact(t, `{"Q": [[1,0]], "idToRow": {}}`)
	body := strings.NewReader(`{"source": "` + bad + `"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/reload-model", body)
	req.Header.Set("x-admin-key", "sekret")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, gen, store.Generation(), "failed reload must not replace the snapshot")
}
