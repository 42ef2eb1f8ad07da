package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/repository/docrepo"
	"alcyxob/trainplan/internal/service"
	"alcyxob/trainplan/internal/store"
	"alcyxob/trainplan/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type nopStorage struct{}

func (nopStorage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	return nil
}

func (nopStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

type testServer struct {
	router    *gin.Engine
	throttled atomic.Bool
	// onCreate, when set before a request, runs ahead of every store create.
	onCreate func(collection string)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{}
	cols := store.DefaultCollections()
	st := memstore.New(
		memstore.WithUniqueIndex(cols.SetLogs, "workoutId", "exerciseId", "setNumber"),
		memstore.WithHook(func(ctx context.Context, op memstore.Op, coll string) error {
			if ts.throttled.Load() {
				return store.NewError(store.KindRateLimited, string(op), coll, errors.New("429"))
			}
			if op == memstore.OpCreate && ts.onCreate != nil {
				ts.onCreate(coll)
			}
			return nil
		}),
	)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	m := metrics.NewManager("trainplan", "test", reg)
	log := logger.NewNop()
	cfg := bulk.DefaultConfig()
	cfg.MaxAttempts = 2
	w := bulk.NewWriter(st, cfg, m, log, bulk.WithClock(clk))

	programs := docrepo.NewProgramRepository(st, cols.Programs)
	days := docrepo.NewProgramDayRepository(st, cols.ProgramDays)
	exercises := docrepo.NewProgramExerciseRepository(st, cols.ProgramExercises)
	plans := service.NewPlanService(programs, days, exercises,
		planner.NewGenerator(w, cols, clk, m, log), nopStorage{}, time.Minute, clk, log)
	workouts := service.NewWorkoutService(programs, days, exercises,
		docrepo.NewWorkoutRepository(st, cols.Workouts),
		docrepo.NewSetLogRepository(st, cols.SetLogs),
		w, cols.SetLogs, 3, clk, m, log)

	ts.router = gin.New()
	SetupRoutes(ts.router, testSecret, reg, plans, workouts, 5, log)
	return ts
}

func token(t *testing.T, userID string, expires time.Time) string {
	t.Helper()
	claims := jwtClaims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ts.doContext(t, context.Background(), method, path, bearer, body)
}

func (ts *testServer) doContext(t *testing.T, ctx context.Context, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequestWithContext(ctx, method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPingAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)
	userID := primitive.NewObjectID().Hex()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + token(t, userID, time.Now().Add(-time.Minute)), want: http.StatusUnauthorized},
		{name: "bad user id", header: "Bearer " + token(t, "not-an-id", time.Now().Add(time.Hour)), want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token(t, userID, time.Now().Add(time.Hour)), want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ts.router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestProgramLifecycle(t *testing.T) {
	ts := newTestServer(t)
	owner := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))
	stranger := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))

	rec := ts.do(t, http.MethodPost, "/api/v1/programs", owner, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/programs", owner, CreateProgramRequest{Name: "Block 1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	program := decode[domain.Program](t, rec)
	base := "/api/v1/programs/" + program.ID.Hex()

	rec = ts.do(t, http.MethodGet, base, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/v1/programs/"+primitive.NewObjectID().Hex(), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/v1/programs/xyz", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/export", owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/generate", owner, GenerateRequest{Concurrency: 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/generate", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[GenerateResponse](t, rec)
	assert.Equal(t, 48, sum.CreatedDays)
	assert.Equal(t, 336, sum.CreatedExercises)

	rec = ts.do(t, http.MethodPost, base+"/generate", owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, base+"/days?week=6", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]domain.ProgramDay](t, rec)
	require.Len(t, days, 4)
	assert.True(t, days[0].Deload)

	rec = ts.do(t, http.MethodGet, base+"/days?week=13", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodGet, base+"/days?week=x", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/days/"+days[1].ID.Hex()+"/exercises", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exercises := decode[[]domain.ProgramExercise](t, rec)
	assert.Len(t, exercises, 6)

	rec = ts.do(t, http.MethodPost, base+"/export", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	export := decode[service.ExportResult](t, rec)
	assert.Equal(t, 48, export.Days)
	assert.Contains(t, export.DownloadURL, export.ObjectKey)

	rec = ts.do(t, http.MethodGet, "/api/v1/programs", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Program](t, rec), 1)
}

func TestGenerateStreamsProgress(t *testing.T) {
	ts := newTestServer(t)
	owner := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))

	rec := ts.do(t, http.MethodPost, "/api/v1/programs", owner, CreateProgramRequest{Name: "Block 1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	program := decode[domain.Program](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/v1/programs/"+program.ID.Hex()+"/generate?stream=true", owner, GenerateRequest{Concurrency: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 48+336, strings.Count(body, "event:progress"))
	assert.Equal(t, 1, strings.Count(body, "event:summary"))
	assert.Contains(t, body, `"createdExercises":336`)
	assert.NotContains(t, body, "event:error")
}

func TestTemplateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))

	rec := ts.do(t, http.MethodGet, "/api/v1/templates/lower-strength?variant=paused-hinge&deload=true", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tpl := decode[TemplateResponse](t, rec)
	assert.Equal(t, domain.VariantPausedHinge, tpl.Variant)
	assert.True(t, tpl.Deload)
	require.Len(t, tpl.Exercises, 6)
	for _, ex := range tpl.Exercises {
		assert.GreaterOrEqual(t, ex.TargetRIR, 4)
	}

	for _, path := range []string{
		"/api/v1/templates/full-body",
		"/api/v1/templates/upper-strength?variant=sumo",
		"/api/v1/templates/upper-strength?deload=maybe",
	} {
		rec := ts.do(t, http.MethodGet, path, bearer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestWorkoutSets(t *testing.T) {
	ts := newTestServer(t)
	owner := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))
	stranger := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))

	rec := ts.do(t, http.MethodPost, "/api/v1/programs", owner, CreateProgramRequest{Name: "Block 1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	program := decode[domain.Program](t, rec)
	base := "/api/v1/programs/" + program.ID.Hex()
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/generate", owner, nil).Code)

	days := decode[[]domain.ProgramDay](t, ts.do(t, http.MethodGet, base+"/days?week=1", owner, nil))
	exercises := decode[[]domain.ProgramExercise](t, ts.do(t, http.MethodGet, "/api/v1/days/"+days[0].ID.Hex()+"/exercises", owner, nil))

	rec = ts.do(t, http.MethodPost, "/api/v1/workouts", stranger, StartWorkoutRequest{ProgramDayID: days[0].ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/workouts", owner, StartWorkoutRequest{ProgramDayID: days[0].ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	workout := decode[domain.Workout](t, rec)
	setsPath := fmt.Sprintf("/api/v1/workouts/%s/sets", workout.ID.Hex())

	body := LogSetsRequest{Sets: []service.SetInput{
		{ExerciseID: exercises[0].ID, SetNumber: 1, Reps: 5, WeightKg: 100},
		{ExerciseID: exercises[0].ID, SetNumber: 2, Reps: 5, WeightKg: 100},
	}}
	rec = ts.do(t, http.MethodPut, setsPath, owner, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, service.LogSetsResult{Created: 2}, decode[service.LogSetsResult](t, rec))

	rec = ts.do(t, http.MethodPut, setsPath, owner, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.LogSetsResult{Updated: 2}, decode[service.LogSetsResult](t, rec))

	rec = ts.do(t, http.MethodPut, setsPath, owner, LogSetsRequest{Sets: []service.SetInput{{ExerciseID: exercises[0].ID, SetNumber: 0}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, setsPath, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.SetLog](t, rec), 2)

	ts.throttled.Store(true)
	rec = ts.do(t, http.MethodPut, setsPath, owner, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	ts.throttled.Store(false)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/workouts/%s/complete", workout.ID.Hex()), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPut, setsPath, owner, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGeneratePlan_ClientDisconnect(t *testing.T) {
	ts := newTestServer(t)
	owner := token(t, primitive.NewObjectID().Hex(), time.Now().Add(time.Hour))

	rec := ts.do(t, http.MethodPost, "/api/v1/programs", owner, CreateProgramRequest{Name: "Block 1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	program := decode[domain.Program](t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var days atomic.Int32
	ts.onCreate = func(coll string) {
		if coll == store.DefaultCollections().ProgramDays && days.Add(1) == 2 {
			cancel()
		}
	}
	rec = ts.doContext(t, ctx, http.MethodPost, "/api/v1/programs/"+program.ID.Hex()+"/generate", owner, nil)
	ts.onCreate = nil

	require.Equal(t, StatusClientClosedRequest, rec.Code, rec.Body.String())
	resp := decode[GenerateResponse](t, rec)
	assert.True(t, resp.Partial)
	assert.Equal(t, 2, resp.CreatedDays)
	assert.Contains(t, resp.Error, context.Canceled.Error())
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrProgramNotFound, http.StatusNotFound},
		{service.ErrAccessDenied, http.StatusForbidden},
		{planner.ErrAlreadyGenerated, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", service.ErrInvalidSetLog), http.StatusBadRequest},
		{store.NewError(store.KindRateLimited, "create", "c", nil), http.StatusTooManyRequests},
		{store.NewError(store.KindRejected, "create", "c", nil), http.StatusUnprocessableEntity},
		{store.NewError(store.KindUnavailable, "create", "c", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("exercises of %q: %w", "Week 1 Day 1", context.Canceled), StatusClientClosedRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
