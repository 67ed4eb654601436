package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"appraisal/internal/app/server"
	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

type client struct {
	t     *testing.T
	http  *http.Client
	base  string
	token string
}

func (c client) do(method, path string, body any, headers map[string]string) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("build %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, env
}

func (c client) must(method, path string, body any, want int, out any) {
	c.t.Helper()
	status, env := c.do(method, path, body, nil)
	if status != want {
		c.t.Fatalf("%s %s: expected %d, got %d (%v)", method, path, want, status, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.t.Fatalf("decode data for %s %s: %v", method, path, err)
		}
	}
}

func login(t *testing.T, base, email, password string) client {
	t.Helper()
	c := client{t: t, http: http.DefaultClient, base: base}
	var out struct {
		Token string `json:"token"`
	}
	c.must(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password}, http.StatusOK, &out)
	if out.Token == "" {
		t.Fatal("expected token")
	}
	c.token = out.Token
	return c
}

// createPerson inserts a user with an employee profile and returns the
// profile id.
func createPerson(t *testing.T, app *server.App, tenantID, email, password, role, first string) string {
	t.Helper()
	ctx := context.Background()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	var userID, employeeID string
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role) VALUES ($1,$2,$3,$4) RETURNING id
  `, tenantID, email, hash, role).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, user_id, first_name, last_name) VALUES ($1,$2,$3,'Journey') RETURNING id
  `, tenantID, userID, first).Scan(&employeeID); err != nil {
		t.Fatalf("insert employee: %v", err)
	}
	return employeeID
}

func TestAppraisalLifecycleJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		SeedTenantName:     "Journey Tenant",
		SeedAdminEmail:     "admin@journey.test",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@journey.test",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}

	app, err := server.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	hr := login(t, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	var tenantID string
	if err := app.DB.QueryRow(context.Background(), "SELECT tenant_id FROM users WHERE email = $1", cfg.SeedAdminEmail).Scan(&tenantID); err != nil {
		t.Fatalf("lookup tenant: %v", err)
	}

	suffix := time.Now().UnixNano()
	const password = "Journey123!"
	managerEmail := fmt.Sprintf("manager-%d@journey.test", suffix)
	employeeEmail := fmt.Sprintf("employee-%d@journey.test", suffix)
	managerID := createPerson(t, app, tenantID, managerEmail, password, auth.RoleManager, "Mona")
	employeeID := createPerson(t, app, tenantID, employeeEmail, password, auth.RoleEmployee, "Erin")

	var tmpl struct {
		ID string `json:"id"`
	}
	hr.must(http.MethodPost, "/api/v1/performance/templates", map[string]any{
		"name":         fmt.Sprintf("Annual %d", suffix),
		"templateType": "ANNUAL",
		"ratingScale":  map[string]any{"type": "FIVE_POINT", "min": 1, "max": 5, "step": 1},
		"criteria": []map[string]any{
			{"key": "delivery", "title": "Delivery", "weight": 60, "required": true},
			{"key": "teamwork", "title": "Teamwork", "weight": 40},
		},
	}, http.StatusCreated, &tmpl)

	cycleBody := map[string]any{
		"name":      fmt.Sprintf("Cycle %d", suffix),
		"cycleType": "ANNUAL",
		"startDate": "2025-01-01",
		"endDate":   "2025-12-31",
		"assignments": []map[string]any{
			{"employeeProfileId": employeeID, "managerProfileId": managerID, "templateId": tmpl.ID},
		},
	}
	idemKey := map[string]string{"Idempotency-Key": fmt.Sprintf("cycle-%d", suffix)}
	status, env := hr.do(http.MethodPost, "/api/v1/performance/cycles", cycleBody, idemKey)
	if status != http.StatusCreated {
		t.Fatalf("create cycle: expected 201, got %d (%v)", status, env.Error)
	}
	var created struct {
		Cycle struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"cycle"`
		Assignments []struct {
			ID string `json:"id"`
		} `json:"assignments"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode cycle: %v", err)
	}
	if created.Cycle.Status != "PLANNED" || len(created.Assignments) != 1 {
		t.Fatalf("unexpected cycle: %+v", created)
	}

	replayStatus, replay := hr.do(http.MethodPost, "/api/v1/performance/cycles", cycleBody, idemKey)
	if replayStatus != http.StatusCreated || !bytes.Equal(replay.Data, env.Data) {
		t.Fatalf("expected idempotent replay, got %d", replayStatus)
	}

	cycleID := created.Cycle.ID
	assignmentID := created.Assignments[0].ID
	hr.must(http.MethodPatch, "/api/v1/performance/cycles/"+cycleID+"/activate", nil, http.StatusOK, nil)
	if status, _ := hr.do(http.MethodPatch, "/api/v1/performance/cycles/"+cycleID+"/activate", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected second activate to be rejected, got %d", status)
	}

	manager := login(t, ts.URL, managerEmail, password)
	var queue []struct {
		ID           string `json:"id"`
		EmployeeName string `json:"employeeName"`
	}
	manager.must(http.MethodGet, "/api/v1/performance/assignments/manager/"+managerID+"?cycleId="+cycleID, nil, http.StatusOK, &queue)
	if len(queue) != 1 || queue[0].ID != assignmentID {
		t.Fatalf("unexpected manager queue: %+v", queue)
	}

	var record struct {
		ID         string   `json:"id"`
		Status     string   `json:"status"`
		TotalScore *float64 `json:"totalScore"`
	}
	manager.must(http.MethodPost, "/api/v1/performance/assignments/"+assignmentID+"/records", map[string]any{
		"ratings": []map[string]any{
			{"key": "delivery", "ratingValue": 4},
			{"key": "teamwork", "ratingValue": 5},
		},
		"managerSummary": "Strong year",
	}, http.StatusOK, &record)
	if record.Status != "DRAFT" || record.TotalScore == nil {
		t.Fatalf("unexpected draft: %+v", record)
	}
	manager.must(http.MethodPatch, "/api/v1/performance/appraisals/"+record.ID+"/submit", nil, http.StatusOK, &record)
	if record.Status != "MANAGER_SUBMITTED" {
		t.Fatalf("expected MANAGER_SUBMITTED, got %s", record.Status)
	}

	employee := login(t, ts.URL, employeeEmail, password)
	if status, _ := employee.do(http.MethodGet, "/api/v1/performance/appraisals/"+record.ID, nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected unpublished record to be hidden from employee, got %d", status)
	}

	var published struct {
		PublishedCount int `json:"publishedCount"`
		Cycle          struct {
			Status string `json:"status"`
		} `json:"cycle"`
	}
	hr.must(http.MethodPatch, "/api/v1/performance/cycles/"+cycleID+"/publish", nil, http.StatusOK, &published)
	if published.PublishedCount != 1 || published.Cycle.Status != "CLOSED" {
		t.Fatalf("unexpected publish result: %+v", published)
	}

	var mine []struct {
		ID string `json:"id"`
	}
	employee.must(http.MethodGet, "/api/v1/performance/appraisals/employee/"+employeeID, nil, http.StatusOK, &mine)
	if len(mine) != 1 || mine[0].ID != record.ID {
		t.Fatalf("expected the published record, got %+v", mine)
	}

	var dispute struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	employee.must(http.MethodPost, "/api/v1/performance/appraisals/"+record.ID+"/disputes", map[string]string{"reason": "Teamwork undervalued"}, http.StatusCreated, &dispute)
	if dispute.Status != "OPEN" {
		t.Fatalf("expected OPEN dispute, got %s", dispute.Status)
	}
	hr.must(http.MethodPatch, "/api/v1/performance/disputes/"+dispute.ID+"/resolve", map[string]string{"status": "RESOLVED", "resolutionSummary": "Reviewed"}, http.StatusOK, &dispute)
	if dispute.Status != "RESOLVED" {
		t.Fatalf("expected RESOLVED, got %s", dispute.Status)
	}
	if status, _ := hr.do(http.MethodPatch, "/api/v1/performance/disputes/"+dispute.ID+"/resolve", map[string]string{"status": "REJECTED"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected closed dispute to reject re-resolution, got %d", status)
	}

	var dash struct {
		OpenReviews         int `json:"openReviews"`
		PublishedAppraisals int `json:"publishedAppraisals"`
		OpenDisputes        int `json:"openDisputes"`
	}
	employee.must(http.MethodGet, "/api/v1/reports/dashboard/employee", nil, http.StatusOK, &dash)
	if dash.PublishedAppraisals != 1 || dash.OpenDisputes != 0 || dash.OpenReviews != 0 {
		t.Fatalf("unexpected employee dashboard: %+v", dash)
	}
	if status, _ := employee.do(http.MethodGet, "/api/v1/reports/dashboard/hr", nil, nil); status != http.StatusForbidden {
		t.Fatalf("expected employee to be denied the hr dashboard, got %d", status)
	}

	var trail struct {
		Items []struct {
			Action string `json:"action"`
		} `json:"items"`
	}
	hr.must(http.MethodGet, "/api/v1/audit/events?entityType=appraisal_cycle&entityId="+cycleID, nil, http.StatusOK, &trail)
	if len(trail.Items) != 3 {
		t.Fatalf("expected create, activate and publish audit events, got %d", len(trail.Items))
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var inbox struct {
			Items []struct {
				Type string `json:"type"`
			} `json:"items"`
		}
		employee.must(http.MethodGet, "/api/v1/notifications", nil, http.StatusOK, &inbox)
		found := false
		for _, n := range inbox.Items {
			if n.Type == "appraisal_published" {
				found = true
			}
		}
		if found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected an appraisal_published notification")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
