package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/availability"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

type fakeRepository struct {
	users     map[string]*domain.User
	templates map[int64]*domain.ShiftTemplate
	nextID    int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     make(map[string]*domain.User),
		templates: make(map[int64]*domain.ShiftTemplate),
		nextID:    100,
	}
}

func (f *fakeRepository) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetActiveUsersByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	users := make([]*domain.User, 0)
	for _, u := range f.users {
		if u.Role == role && u.IsActive {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeRepository) ListShiftTemplates(_ context.Context, stationID int64) ([]domain.ShiftTemplate, error) {
	templates := make([]domain.ShiftTemplate, 0)
	for id := int64(0); id <= f.nextID; id++ {
		if t, ok := f.templates[id]; ok && t.StationID == stationID {
			templates = append(templates, *t)
		}
	}
	return templates, nil
}

func (f *fakeRepository) GetShiftTemplate(_ context.Context, id int64) (*domain.ShiftTemplate, error) {
	if t, ok := f.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) CreateShiftTemplate(_ context.Context, t *domain.ShiftTemplate) error {
	f.nextID++
	t.ID = f.nextID
	cp := *t
	f.templates[t.ID] = &cp
	return nil
}

func (f *fakeRepository) UpdateShiftTemplate(_ context.Context, t *domain.ShiftTemplate) error {
	if _, ok := f.templates[t.ID]; !ok {
		return sql.ErrNoRows
	}
	t.Version++
	cp := *t
	f.templates[t.ID] = &cp
	return nil
}

func (f *fakeRepository) DeleteShiftTemplate(_ context.Context, id int64) error {
	delete(f.templates, id)
	return nil
}

type fakeQuerier func(req availability.Request) (*availability.Result, error)

func (f fakeQuerier) Query(_ context.Context, req availability.Request) (*availability.Result, error) {
	return f(req)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T, repo *fakeRepository, q availability.Querier) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.Coverage.IntervalMinutes = 60
	cfg.Coverage.PreBuffer = 60
	cfg.Coverage.PostBuffer = 60
	cfg.Coverage.FallbackStart = "06:00"
	cfg.Coverage.FallbackEnd = "22:00"
	cfg.Coverage.MaxRangeHours = 20

	if q == nil {
		q = fakeQuerier(func(availability.Request) (*availability.Result, error) {
			return &availability.Result{}, nil
		})
	}
	checker := availability.NewChecker(q, availability.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	h, err := NewHandler(cfg, repo, nil, nil, checker)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func do(t *testing.T, h *Handler, user *domain.User, method, path string, body any) envelope {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		token, _, err := h.issueToken(user)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

var (
	manager = &domain.User{ID: 1, Username: "admin", FullName: "管理员", Role: domain.RoleManager, IsActive: true}
	worker  = &domain.User{ID: 2, Username: "zw01", FullName: "张伟", Role: domain.RoleWorker, IsActive: true}
)

func TestAuthRequired(t *testing.T) {
	h := newTestHandler(t, newFakeRepository(), nil)

	env := do(t, h, nil, http.MethodPost, "/coverage/conflicts", map[string]any{"shifts": []any{}})
	assert.False(t, env.Success)
	assert.Equal(t, "用户未登录", env.Message)
}

func TestLogin(t *testing.T) {
	repo := newFakeRepository()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users["admin"] = &domain.User{ID: 1, Username: "admin", PasswordHash: string(hash), Role: domain.RoleManager, IsActive: true}
	h := newTestHandler(t, repo, nil)

	env := do(t, h, nil, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.False(t, env.Success)

	data, _ := json.Marshal(map[string]string{"username": "admin", "password": "secret"})
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(data)))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)
}

func TestDetectConflicts(t *testing.T) {
	h := newTestHandler(t, newFakeRepository(), nil)

	env := do(t, h, worker, http.MethodPost, "/coverage/conflicts", map[string]any{
		"shifts": []map[string]any{
			{"id": 11, "startTime": "09:00", "endTime": "12:00", "dayOfWeek": 1, "stationID": 1},
			{"id": 12, "startTime": "11:00", "endTime": "14:00", "dayOfWeek": 1, "stationID": 1},
			{"id": 13, "startTime": "14:00", "endTime": "18:00", "dayOfWeek": 1, "stationID": 1},
		},
	})
	require.True(t, env.Success, env.Message)

	var data struct {
		HasConflicts bool               `json:"hasConflicts"`
		Conflicts    map[string][]int   `json:"conflicts"`
		ByID         map[string][]int64 `json:"byID"`
		Pairs        [][2]int           `json:"pairs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.HasConflicts)
	assert.Equal(t, [][2]int{{0, 1}}, data.Pairs)
	assert.Equal(t, []int{1}, data.Conflicts["0"])
	assert.Equal(t, []int{0}, data.Conflicts["1"])
	assert.Equal(t, map[string][]int64{"11": {12}, "12": {11}}, data.ByID)
}

func TestDetectConflicts_ValidationError(t *testing.T) {
	h := newTestHandler(t, newFakeRepository(), nil)

	env := do(t, h, worker, http.MethodPost, "/coverage/conflicts", map[string]any{
		"shifts": []map[string]any{{"startTime": "09:00", "endTime": "12:00", "dayOfWeek": 9, "stationID": 1}},
	})
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestCheckAvailability(t *testing.T) {
	q := fakeQuerier(func(req availability.Request) (*availability.Result, error) {
		if req.Shift.StartTime == "12:00" {
			return nil, errors.New("unavailable")
		}
		return &availability.Result{AvailableWorkers: 2}, nil
	})
	h := newTestHandler(t, newFakeRepository(), q)

	env := do(t, h, worker, http.MethodPost, "/coverage/availability", map[string]any{
		"startDate": "2026-03-02",
		"endDate":   "2026-03-08",
		"shifts": []map[string]any{
			{"startTime": "08:00", "endTime": "12:00", "dayOfWeek": 1, "stationID": 1, "workersNeeded": 2},
			{"startTime": "12:00", "endTime": "16:00", "dayOfWeek": 1, "stationID": 1, "workersNeeded": 3},
		},
	})
	require.True(t, env.Success, env.Message)

	var checks []domain.AvailabilityCheck
	require.NoError(t, json.Unmarshal(env.Data, &checks))
	require.Len(t, checks, 2)
	assert.Equal(t, domain.AvailabilityCheck{ShiftID: "shift-0", Available: 2, Required: 2, Conflicts: []domain.WorkerConflict{}}, checks[0])
	assert.Equal(t, domain.AvailabilityCheck{ShiftID: "shift-1", Available: 0, Required: 3, Conflicts: []domain.WorkerConflict{}}, checks[1])

	env = do(t, h, worker, http.MethodPost, "/coverage/availability", map[string]any{
		"startDate": "2026-03-08",
		"endDate":   "2026-03-02",
		"shifts":    []any{},
	})
	assert.False(t, env.Success)

	env = do(t, h, worker, http.MethodPost, "/coverage/availability", map[string]any{
		"startDate": "0001-01-01",
		"endDate":   "9999-12-31",
		"shifts":    []map[string]any{{"startTime": "08:00", "endTime": "12:00", "dayOfWeek": 1, "stationID": 1}},
	})
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "366")

	// 恰好 366 天是允许的
	env = do(t, h, worker, http.MethodPost, "/coverage/availability", map[string]any{
		"startDate": "2026-01-01",
		"endDate":   "2027-01-01",
		"shifts":    []map[string]any{{"startTime": "08:00", "endTime": "12:00", "dayOfWeek": 1, "stationID": 1}},
	})
	assert.True(t, env.Success, env.Message)
}

func TestCoverageRange(t *testing.T) {
	repo := newFakeRepository()
	repo.templates[1] = &domain.ShiftTemplate{ID: 1, StationID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", WorkersNeeded: 1, IsActive: true}
	repo.templates[2] = &domain.ShiftTemplate{ID: 2, StationID: 1, DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00", WorkersNeeded: 1, IsActive: true}
	h := newTestHandler(t, repo, nil)

	type rangeData struct {
		Start  int    `json:"start"`
		End    int    `json:"end"`
		Source string `json:"source"`
	}

	// 整个岗位：不加前缓冲，后缓冲 60 分钟
	env := do(t, h, worker, http.MethodGet, "/coverage/range?stationId=1", nil)
	require.True(t, env.Success, env.Message)
	var rng rangeData
	require.NoError(t, json.Unmarshal(env.Data, &rng))
	assert.Equal(t, rangeData{Start: 540, End: 1080, Source: "templates"}, rng)

	// 单个班次：使用默认的前后缓冲
	env = do(t, h, worker, http.MethodGet, "/coverage/range?stationId=1&templateId=2", nil)
	require.True(t, env.Success, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &rng))
	assert.Equal(t, rangeData{Start: 720, End: 1080, Source: "templates"}, rng)

	env = do(t, h, worker, http.MethodGet, "/coverage/range?stationId=1&templateId=99", nil)
	assert.False(t, env.Success)

	env = do(t, h, worker, http.MethodGet, "/coverage/range?stationId=abc", nil)
	assert.False(t, env.Success)

	// 没有班次的岗位使用全天的后备范围
	env = do(t, h, worker, http.MethodGet, "/coverage/range?stationId=2", nil)
	require.True(t, env.Success, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &rng))
	assert.Equal(t, rangeData{Start: 0, End: 1439, Source: "fallback"}, rng)
}

func TestCoverageSlotsAndGaps(t *testing.T) {
	repo := newFakeRepository()
	repo.templates[1] = &domain.ShiftTemplate{ID: 1, StationID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", WorkersNeeded: 1, IsActive: true}
	repo.templates[2] = &domain.ShiftTemplate{ID: 2, StationID: 1, DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00", WorkersNeeded: 1, IsActive: true}
	repo.templates[3] = &domain.ShiftTemplate{ID: 3, StationID: 1, DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", WorkersNeeded: 1, IsActive: true}
	h := newTestHandler(t, repo, nil)

	env := do(t, h, worker, http.MethodGet, "/coverage/slots?stationId=1", nil)
	require.True(t, env.Success, env.Message)
	var slots struct {
		Slots []domain.TimeSlot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots.Slots, 9)
	assert.Equal(t, "09:00", slots.Slots[0].Timestamp)
	assert.Equal(t, "17:00", slots.Slots[8].Timestamp)

	env = do(t, h, worker, http.MethodGet, "/coverage/gaps?stationId=1&dayOfWeek=1", nil)
	require.True(t, env.Success, env.Message)
	var analysis struct {
		HasGaps bool `json:"hasGaps"`
		Gaps    []struct {
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
			Duration  int    `json:"duration"`
		} `json:"gaps"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.True(t, analysis.HasGaps)
	require.Len(t, analysis.Gaps, 1)
	assert.Equal(t, "12:00", analysis.Gaps[0].StartTime)
	assert.Equal(t, 60, analysis.Gaps[0].Duration)

	env = do(t, h, worker, http.MethodGet, "/coverage/gaps?stationId=1&dayOfWeek=2", nil)
	require.True(t, env.Success, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.False(t, analysis.HasGaps)

	env = do(t, h, worker, http.MethodGet, "/coverage/gaps?stationId=1&dayOfWeek=7", nil)
	assert.False(t, env.Success)
}

func TestShiftTemplateWrites(t *testing.T) {
	repo := newFakeRepository()
	repo.templates[1] = &domain.ShiftTemplate{ID: 1, StationID: 1, RoleID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", WorkersNeeded: 1, IsActive: true}
	h := newTestHandler(t, repo, nil)

	body := map[string]any{
		"stationID":     1,
		"roleID":        1,
		"dayOfWeek":     1,
		"startTime":     "11:00",
		"endTime":       "14:00",
		"workersNeeded": 2,
	}

	env := do(t, h, worker, http.MethodPost, "/shift-templates", body)
	assert.False(t, env.Success)
	assert.Equal(t, "权限不足", env.Message)

	env = do(t, h, manager, http.MethodPost, "/shift-templates", body)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "09:00-12:00")

	body["startTime"], body["endTime"] = "22:00", "02:00"
	env = do(t, h, manager, http.MethodPost, "/shift-templates", body)
	assert.False(t, env.Success)

	body["startTime"], body["endTime"] = "12:00", "15:00"
	env = do(t, h, manager, http.MethodPost, "/shift-templates", body)
	require.True(t, env.Success, env.Message)
	var created domain.ShiftTemplate
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.IsActive)
	assert.Contains(t, repo.templates, created.ID)

	// 把新班次改到和 1 号班次重叠
	env = do(t, h, manager, http.MethodPatch, "/shift-templates/101", map[string]any{"startTime": "10:00"})
	assert.False(t, env.Success)

	env = do(t, h, manager, http.MethodPatch, "/shift-templates/101", map[string]any{"endTime": "16:00"})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "16:00", repo.templates[101].EndTime)

	env = do(t, h, worker, http.MethodGet, "/shift-templates?stationId=1", nil)
	require.True(t, env.Success, env.Message)
	var list []domain.ShiftTemplate
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	env = do(t, h, manager, http.MethodDelete, "/shift-templates/101", nil)
	require.True(t, env.Success, env.Message)
	assert.NotContains(t, repo.templates, int64(101))

	env = do(t, h, worker, http.MethodGet, "/shift-templates/101", nil)
	assert.False(t, env.Success)
	assert.Equal(t, "班次不存在", env.Message)
}
