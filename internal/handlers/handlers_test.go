package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovisor/geovisor/internal/config"
	"github.com/geovisor/geovisor/internal/handlers"
	"github.com/geovisor/geovisor/internal/storage"
	"github.com/geovisor/geovisor/internal/testutil"
	"github.com/geovisor/geovisor/models"
)

func newTestAPI(t *testing.T, name string) (http.Handler, *handlers.API) {
	t.Helper()
	db := testutil.OpenTestDB(t, name)
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)
	cfg := &config.Config{
		SecretKey:      "test-secret",
		AccessTokenTTL: 30 * time.Minute,
		UploadDir:      dir,
		MaxUploadSize:  1 << 20,
		StorageBackend: config.StorageLocal,
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	api := handlers.New(db, store, cfg, log)
	return api.Router(), api
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doRaw(t *testing.T, router http.Handler, method, path, token, rawBody string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(rawBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, router http.Handler, username, password string) models.User {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func loginUser(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func loginFailure(t *testing.T, router http.Handler, username, password string) (int, string) {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var resp struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp.Detail
}

func createProject(t *testing.T, router http.Handler, token, name string) models.Project {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/projects/", token, map[string]any{"name": name})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))
	return project
}

func TestRegisterConflicts(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_register")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "alice", "password": "pw", "email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "alice", "password": "pw2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already exists")

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "alice2", "password": "pw", "email": "alice@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already exists")

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "", "password": "",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginMessages(t *testing.T) {
	router, api := newTestAPI(t, "handlers_login")
	registerUser(t, router, "alice", "correcthorse")

	token := loginUser(t, router, "alice", "correcthorse")
	require.NotEmpty(t, token)

	// Wrong password and unknown username must be indistinguishable.
	codeWrong, detailWrong := loginFailure(t, router, "alice", "bad")
	codeUnknown, detailUnknown := loginFailure(t, router, "nobody", "bad")
	assert.Equal(t, codeWrong, codeUnknown)
	assert.Equal(t, detailWrong, detailUnknown)
	assert.Equal(t, http.StatusBadRequest, codeWrong)

	// Deactivated accounts get a distinct message.
	user, err := api.Users.ByUsername(context.Background(), "alice")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, api.Users.Save(context.Background(), user))
	code, detail := loginFailure(t, router, "alice", "correcthorse")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Inactive user", detail)
}

func TestAuthRequired(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_authreq")
	rec := doJSON(t, router, http.MethodGet, "/api/projects/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectOwnership(t *testing.T) {
	router, api := newTestAPI(t, "handlers_ownership")
	registerUser(t, router, "alice", "pw")
	registerUser(t, router, "bob", "pw")
	registerUser(t, router, "root", "pw")

	// Promote root to superuser directly; registration never grants it.
	root, err := api.Users.ByUsername(context.Background(), "root")
	require.NoError(t, err)
	root.IsSuperuser = true
	require.NoError(t, api.Users.Save(context.Background(), root))

	aliceTok := loginUser(t, router, "alice", "pw")
	bobTok := loginUser(t, router, "bob", "pw")
	rootTok := loginUser(t, router, "root", "pw")

	project := createProject(t, router, aliceTok, "survey")
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	rec := doJSON(t, router, http.MethodGet, path, aliceTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, bobTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, rootTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/projects/99999", aliceTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Scoped listing: bob sees nothing, root sees everything.
	rec = doJSON(t, router, http.MethodGet, "/api/projects/", bobTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bobProjects []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bobProjects))
	assert.Empty(t, bobProjects)

	rec = doJSON(t, router, http.MethodGet, "/api/projects/", rootTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var allProjects []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &allProjects))
	assert.Len(t, allProjects, 1)
}

func TestProjectPartialUpdate(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_update")
	registerUser(t, router, "alice", "pw")
	token := loginUser(t, router, "alice", "pw")

	rec := doJSON(t, router, http.MethodPost, "/api/projects/", token, map[string]any{
		"name": "survey", "description": "first pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	// Omitting name leaves it untouched; null clears description.
	rec = doRaw(t, router, http.MethodPut, path, token, `{"description": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "survey", updated.Name)
	assert.Nil(t, updated.Description)

	rec = doRaw(t, router, http.MethodPut, path, token, `{"description": "second pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Description)
	assert.Equal(t, "second pass", *updated.Description)

	rec = doRaw(t, router, http.MethodPut, path, token, `{"name": null}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = doRaw(t, router, http.MethodPut, path, token, `{"name": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/projects/", token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func uploadLayer(t *testing.T, router http.Handler, token string, projectID uint, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	path := fmt.Sprintf("/api/projects/%d/layers", projectID)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLayerUploadAndDelete(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_layers")
	registerUser(t, router, "alice", "pw")
	registerUser(t, router, "bob", "pw")
	aliceTok := loginUser(t, router, "alice", "pw")
	bobTok := loginUser(t, router, "bob", "pw")
	project := createProject(t, router, aliceTok, "survey")

	content := "<kml>placemark</kml>"
	rec := uploadLayer(t, router, aliceTok, project.ID, "site.kml", content, map[string]string{
		"name": "site", "layer_type": "vector", "format": "kml",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var layer models.Layer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layer))
	assert.Equal(t, int64(len(content)), layer.FileSize)
	assert.Equal(t, "site.kml", layer.OriginalFilename)
	assert.True(t, strings.HasSuffix(layer.FilePath, ".kml"))

	stored, err := os.ReadFile(layer.FilePath)
	require.NoError(t, err)
	assert.Equal(t, content, string(stored))

	// Enum validation.
	rec = uploadLayer(t, router, aliceTok, project.ID, "x.kml", "x", map[string]string{
		"name": "x", "layer_type": "hologram", "format": "kml",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = uploadLayer(t, router, aliceTok, project.ID, "x.kml", "x", map[string]string{
		"name": "x", "layer_type": "vector", "format": "docx",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Uploads above the configured ceiling are rejected.
	rec = uploadLayer(t, router, aliceTok, project.ID, "big.kml", strings.Repeat("x", 1<<20+1), map[string]string{
		"name": "big", "layer_type": "vector", "format": "kml",
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// Non-owners can neither upload nor delete.
	rec = uploadLayer(t, router, bobTok, project.ID, "x.kml", "x", map[string]string{
		"name": "x", "layer_type": "vector", "format": "kml",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/layers/%d", layer.ID), bobTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	listPath := fmt.Sprintf("/api/projects/%d/layers", project.ID)
	rec = doJSON(t, router, http.MethodGet, listPath, aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var layers []models.Layer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layers))
	assert.Len(t, layers, 1)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/layers/%d", layer.ID), aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = os.Stat(layer.FilePath)
	assert.True(t, os.IsNotExist(err), "layer file should be removed")

	rec = doJSON(t, router, http.MethodGet, listPath, aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layers))
	assert.Empty(t, layers)

	rec = doJSON(t, router, http.MethodDelete, "/api/layers/4242", aliceTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeasurementLifecycle(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_measurements")
	registerUser(t, router, "alice", "pw")
	registerUser(t, router, "bob", "pw")
	aliceTok := loginUser(t, router, "alice", "pw")
	bobTok := loginUser(t, router, "bob", "pw")
	project := createProject(t, router, aliceTok, "survey")
	basePath := fmt.Sprintf("/api/projects/%d/measurements", project.ID)

	rec := doJSON(t, router, http.MethodPost, basePath, aliceTok, map[string]any{
		"measurement_type": "distance",
		"value":            5.0,
		"unit":             "meters",
		"geometry":         json.RawMessage(`{"type":"Point","coordinates":[10,20]}`),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var m models.Measurement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 5.0, m.Value)
	assert.Equal(t, models.UnitMeters, m.Unit)
	assert.Equal(t, "POINT(10 20)", m.Geometry)
	assert.Equal(t, 4326, m.SRID)
	require.NotNil(t, m.CreatedBy)

	// An unclosed polygon ring is invalid geometry.
	rec = doJSON(t, router, http.MethodPost, basePath, aliceTok, map[string]any{
		"measurement_type": "area",
		"value":            1.0,
		"unit":             "square_meters",
		"geometry":         json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1]]]}`),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid geometry")

	// Unit is stored as supplied, not checked against the type.
	rec = doJSON(t, router, http.MethodPost, basePath, aliceTok, map[string]any{
		"measurement_type": "distance",
		"value":            2.0,
		"unit":             "cubic_meters",
		"geometry":         json.RawMessage(`{"type":"Point","coordinates":[0,0]}`),
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, basePath, aliceTok, map[string]any{
		"measurement_type": "altitude",
		"value":            1.0,
		"unit":             "meters",
		"geometry":         json.RawMessage(`{"type":"Point","coordinates":[0,0]}`),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodGet, basePath, aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Measurement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = doJSON(t, router, http.MethodGet, basePath, bobTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	deletePath := fmt.Sprintf("/api/measurements/%d", m.ID)
	rec = doJSON(t, router, http.MethodDelete, deletePath, bobTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, deletePath, aliceTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, deletePath, aliceTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectDeleteCascadesOverHTTP(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_cascade")
	registerUser(t, router, "alice", "pw")
	token := loginUser(t, router, "alice", "pw")
	project := createProject(t, router, token, "doomed")

	rec := uploadLayer(t, router, token, project.ID, "a.geojson", `{"type":"FeatureCollection"}`, map[string]string{
		"name": "a", "layer_type": "vector", "format": "geojson",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var layer models.Layer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layer))

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/projects/%d/measurements", project.ID), token, map[string]any{
		"measurement_type": "distance", "value": 1.0, "unit": "meters",
		"geometry": json.RawMessage(`{"type":"Point","coordinates":[1,1]}`),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/layers", project.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := os.Stat(layer.FilePath)
	assert.True(t, os.IsNotExist(err), "layer file should be removed with the project")
}

func TestSelfService(t *testing.T) {
	router, _ := newTestAPI(t, "handlers_me")
	registerUser(t, router, "alice", "pw")
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "bob", "password": "pw", "email": "bob@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := loginUser(t, router, "alice", "pw")

	rec = doJSON(t, router, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, rec.Body.String(), "hashed_password")

	rec = doJSON(t, router, http.MethodPut, "/api/users/me", token, map[string]any{
		"full_name": "Alice Doe",
		"email":     "alice@example.com",
		"password":  "newpw",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "Alice Doe", me.FullName)
	require.NotNil(t, me.Email)
	assert.Equal(t, "alice@example.com", *me.Email)

	// The password change takes effect immediately.
	_, detail := loginFailure(t, router, "alice", "pw")
	assert.Equal(t, "Incorrect username or password", detail)
	newToken := loginUser(t, router, "alice", "newpw")
	require.NotEmpty(t, newToken)

	// Someone else's email is a conflict; the caller's own is not.
	rec = doJSON(t, router, http.MethodPut, "/api/users/me", newToken, map[string]any{
		"email": "bob@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, http.MethodPut, "/api/users/me", newToken, map[string]any{
		"email": "alice@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRaw(t, router, http.MethodPut, "/api/users/me", newToken, `{"password": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRaw(t, router, http.MethodPut, "/api/users/me", newToken, `{"email": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Nil(t, me.Email)
}
