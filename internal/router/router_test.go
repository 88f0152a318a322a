package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/router"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/testutil"
	"github.com/salesvisit/visit-service/internal/websockets"
	"github.com/xuri/excelize/v2"
)

var wib = time.FixedZone("WIB", 7*60*60)

type healthy struct{ err error }

func (h healthy) HealthCheck(context.Context) error { return h.err }

type testServer struct {
	t       *testing.T
	store   *testutil.MemStore
	hub     *websockets.Hub
	handler http.Handler
	tokens  map[string]string
	users   map[string]policy.Principal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := testutil.NewMemStore()
	ts := &testServer{t: t, store: store, tokens: map[string]string{}, users: map[string]policy.Principal{}}

	ts.users["admin"] = testutil.SeedUser(t, store, "admin", models.RoleAdmin, nil)
	ts.users["manager"] = testutil.SeedUser(t, store, "manager", models.RoleManager, nil)
	mgr := ts.users["manager"].ID
	ts.users["alice"] = testutil.SeedUser(t, store, "alice", models.RoleUser, &mgr)
	ts.users["bob"] = testutil.SeedUser(t, store, "bob", models.RoleUser, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ts.hub = websockets.NewHub()
	go ts.hub.Run(ctx)

	notifier := service.NewNotifier(ts.hub, store.Users(), nil)
	auth := service.NewAuthService(store, service.JWTConfig{Secret: "router-test", ExpiresIn: 1}, nil)
	edit := policy.NewEditability(wib, 48*time.Hour)

	ts.handler = router.New(router.Services{
		Auth:         auth,
		Users:        service.NewUserService(store, auth, nil),
		Customers:    service.NewCustomerService(store, notifier, nil),
		Import:       service.NewImportService(store, notifier, t.TempDir(), nil),
		VisitPlans:   service.NewVisitPlanService(store, edit, notifier, nil),
		VisitReports: service.NewVisitReportService(store, notifier, nil),
		Dashboard:    service.NewDashboardService(store, nil),
	}, router.Options{
		Hub:       ts.hub,
		Upgrader:  websockets.NewUpgrader(nil),
		Health:    healthy{},
		Location:  wib,
		MaxUpload: 1 << 20,
	})

	for name := range ts.users {
		ts.tokens[name] = ts.login(name)
	}
	return ts
}

func (ts *testServer) login(username string) string {
	ts.t.Helper()

	rec := ts.do("", http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": testutil.Password,
	})
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body)
	}
	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	decode(ts.t, rec, &body)
	return body.Data.Token
}

// do sends a JSON request as user; an empty user sends no token
func (ts *testServer) do(user, method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[user])
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body)
	}
}

type envelope[T any] struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       T                 `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

func TestHealthAndFallbacks(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("", http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do("", http.MethodGet, "/api/nope", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = ts.do("", http.MethodPatch, "/health", nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)

	down := router.New(router.Services{Auth: service.NewAuthService(ts.store, service.JWTConfig{Secret: "x"}, nil)},
		router.Options{Health: healthy{err: context.DeadlineExceeded}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()
	down.ServeHTTP(res, req)
	expectStatus(t, res, http.StatusServiceUnavailable)
}

func TestAuthRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("", http.MethodGet, "/api/auth/me", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	// Query tokens are only honoured on the websocket route
	rec = ts.do("", http.MethodGet, "/api/auth/me?token="+ts.tokens["alice"], nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = ts.do("alice", http.MethodGet, "/api/auth/me", nil)
	expectStatus(t, rec, http.StatusOK)
	var me envelope[models.User]
	decode(t, rec, &me)
	if me.Data.Username != "alice" || me.Data.Manager == nil {
		t.Errorf("me = %+v", me.Data)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash leaked")
	}

	rec = ts.do("", http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = ts.do("", http.MethodPost, "/api/auth/login", map[string]string{"username": "alice"})
	expectStatus(t, rec, http.StatusBadRequest)

	register := map[string]any{
		"username":    "carol",
		"password":    "secret123",
		"namaLengkap": "Carol",
		"email":       "carol@example.com",
		"role":        "USER",
	}
	rec = ts.do("manager", http.MethodPost, "/api/auth/register", register)
	expectStatus(t, rec, http.StatusForbidden)
	rec = ts.do("admin", http.MethodPost, "/api/auth/register", register)
	expectStatus(t, rec, http.StatusCreated)
	rec = ts.do("admin", http.MethodPost, "/api/auth/register", register)
	expectStatus(t, rec, http.StatusConflict)
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("manager", http.MethodGet, "/api/users/subordinates", nil)
	expectStatus(t, rec, http.StatusOK)
	var subs envelope[[]models.User]
	decode(t, rec, &subs)
	if len(subs.Data) != 1 || subs.Data[0].Username != "alice" {
		t.Errorf("subordinates = %+v", subs.Data)
	}

	rec = ts.do("alice", http.MethodGet, "/api/users/subordinates", nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = ts.do("admin", http.MethodDelete, "/api/users/"+ts.users["admin"].ID.String(), nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do("admin", http.MethodGet, "/api/users/not-a-uuid", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do("admin", http.MethodDelete, "/api/users/"+ts.users["bob"].ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)

	// The deleted user's token no longer resolves to anyone
	rec = ts.do("bob", http.MethodGet, "/api/auth/me", nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestVisitLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("alice", http.MethodPost, "/api/customers", map[string]any{
		"namaCustomer": "PT Maju",
		"nipNas":       "NN-1",
		"alamat":       "Jl. Merdeka 1",
		"telepon":      "0215551234",
	})
	expectStatus(t, rec, http.StatusCreated)
	var customer envelope[models.Customer]
	decode(t, rec, &customer)

	rec = ts.do("bob", http.MethodPost, "/api/customers", map[string]any{
		"namaCustomer": "PT Kembar",
		"nipNas":       "NN-1",
		"alamat":       "Jl. Merdeka 2",
		"telepon":      "0215550000",
	})
	expectStatus(t, rec, http.StatusConflict)

	visit := time.Now().In(wib).Add(24 * time.Hour)
	rec = ts.do("alice", http.MethodPost, "/api/visit-plans", map[string]any{
		"customerId":        customer.Data.ID,
		"tanggalVisit":      visit,
		"tujuanVisit":       "Intro",
		"programPembahasan": "Demo",
		"revenueTarget":     "1000",
	})
	expectStatus(t, rec, http.StatusCreated)
	var plan envelope[models.VisitPlan]
	decode(t, rec, &plan)
	planPath := "/api/visit-plans/" + plan.Data.ID.String()

	rec = ts.do("bob", http.MethodGet, planPath, nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = ts.do("manager", http.MethodGet, planPath, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do("alice", http.MethodPut, planPath, map[string]any{"status": "COMPLETED"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = ts.do("alice", http.MethodGet, "/api/visit-plans?status=planned&limit=5", nil)
	expectStatus(t, rec, http.StatusOK)
	var plans envelope[[]models.VisitPlan]
	decode(t, rec, &plans)
	if plans.Pagination.Total != 1 || plans.Pagination.Limit != 5 {
		t.Errorf("pagination = %+v", plans.Pagination)
	}

	rec = ts.do("alice", http.MethodGet, "/api/visit-plans?status=bogus", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	report := map[string]any{
		"visitPlanId":     plan.Data.ID,
		"statusRealisasi": "TEREALISASI",
		"hasilVisit":      "deal",
		"revenueActual":   "750",
		"pic":             "SALES_ENGINEER",
		"cpPic":           "Budi",
	}
	rec = ts.do("alice", http.MethodPost, "/api/visit-reports", report)
	expectStatus(t, rec, http.StatusCreated)
	var created envelope[models.VisitReport]
	decode(t, rec, &created)

	rec = ts.do("alice", http.MethodPost, "/api/visit-reports", report)
	expectStatus(t, rec, http.StatusConflict)

	rec = ts.do("alice", http.MethodGet, planPath, nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &plan)
	if plan.Data.Status != models.VisitStatusCompleted || plan.Data.Report == nil {
		t.Errorf("plan after report = %s, report %v", plan.Data.Status, plan.Data.Report)
	}

	rec = ts.do("alice", http.MethodGet, "/api/dashboard/revenue", nil)
	expectStatus(t, rec, http.StatusOK)
	var revenue envelope[models.RevenueAnalytics]
	decode(t, rec, &revenue)
	if revenue.Data.Achievement != 75 {
		t.Errorf("achievement = %v, want 75", revenue.Data.Achievement)
	}

	reportPath := "/api/visit-reports/" + created.Data.ID.String()
	rec = ts.do("alice", http.MethodDelete, reportPath, nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = ts.do("admin", http.MethodDelete, reportPath, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do("alice", http.MethodGet, planPath, nil)
	decode(t, rec, &plan)
	if plan.Data.Status != models.VisitStatusPlanned {
		t.Errorf("plan after report delete = %s", plan.Data.Status)
	}

	rec = ts.do("alice", http.MethodDelete, "/api/customers/"+customer.Data.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)
	var deleted envelope[models.CustomerDeleteResult]
	decode(t, rec, &deleted)
	if deleted.Data.DeletedVisitPlans != 1 || deleted.Data.DeletedVisitReports != 0 {
		t.Errorf("delete result = %+v", deleted.Data)
	}
}

func TestDashboardQueryValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("alice", http.MethodGet, "/api/dashboard/summary?startDate=2024-13-01", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do("alice", http.MethodGet, "/api/dashboard/summary?startDate=2024-01-01&endDate=2024-01-31", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do("manager", http.MethodGet, "/api/dashboard/statistics?userId="+ts.users["bob"].ID.String(), nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestCustomerImportRoute(t *testing.T) {
	ts := newTestServer(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"STANDARD_NAME", "NIP_NAS"},
		{"PT Satu", "X-1"},
		{"PT Dua", ""},
	}
	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatal(err)
		}
	}
	xlsx, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	upload := func(user string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "customers.xlsx")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(xlsx.Bytes())
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/customers/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+ts.tokens[user])
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		return rec
	}

	expectStatus(t, upload("manager"), http.StatusForbidden)

	rec := upload("admin")
	expectStatus(t, rec, http.StatusOK)
	var result struct {
		Success  bool                    `json:"success"`
		Inserted int                     `json:"inserted"`
		Errors   []models.ImportRowError `json:"errors"`
	}
	decode(t, rec, &result)
	if !result.Success || result.Inserted != 1 || len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Errorf("import = %+v", result)
	}

	// Imported customers are visible to every role
	rec = ts.do("bob", http.MethodGet, "/api/customers?source=import", nil)
	expectStatus(t, rec, http.StatusOK)
	var customers envelope[[]models.Customer]
	decode(t, rec, &customers)
	if len(customers.Data) != 1 {
		t.Errorf("bob sees %d imported customers", len(customers.Data))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/customers/import", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+ts.tokens["admin"])
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestWebSocketNotifications(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without token: %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+ts.tokens["manager"], nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.hub.ConnectedUsers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A subordinate's change reaches the manager
	rec := ts.do("alice", http.MethodPost, "/api/customers", map[string]any{
		"namaCustomer": "PT Notif",
		"alamat":       "Jl. Asia Afrika 8",
		"telepon":      "022123",
	})
	expectStatus(t, rec, http.StatusCreated)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var event websockets.Message
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("decode %q: %v", msg, err)
	}
	if event.Type != websockets.TypeCustomerCreated {
		t.Errorf("event type = %s", event.Type)
	}

	// Clients may ping
	if err := conn.WriteJSON(websockets.Message{Type: websockets.TypePing}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, msg, err = conn.ReadMessage(); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if err := json.Unmarshal(msg, &event); err != nil || event.Type != websockets.TypePong {
		t.Errorf("reply = %s, err %v", msg, err)
	}
}
