package engine

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"fastadmin/internal/admin"
	"fastadmin/internal/forms"
)

// testApp builds a Fiber app with the admin routes and an optional
// principal injected before the handlers, so authorization paths can be
// exercised without a database. Handlers that reach the store are not
// covered here; see the integration tests.
func testApp(p *admin.Principal) *fiber.App {
	reg := testRegistry()
	eng := New(nil, reg)
	h := NewHandler(eng, reg, forms.NewBuilder(reg, nil))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if p != nil {
			c.Locals("principal", p)
		}
		return c.Next()
	})
	RegisterAdminRoutes(app, h)
	return app
}

func decodeError(t *testing.T, resp *http.Response) *AppError {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("failed to parse error response: %v (%s)", err, body)
	}
	if errResp.Error == nil {
		t.Fatalf("expected error envelope, got %s", body)
	}
	return errResp.Error
}

func TestListUnknownTable(t *testing.T) {
	app := testApp(&admin.Principal{ID: 1, Active: true, Staff: true})

	req, _ := http.NewRequest("GET", "/admin/nonexistent", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if appErr := decodeError(t, resp); appErr.Code != "UNKNOWN_TABLE" {
		t.Fatalf("expected UNKNOWN_TABLE, got %s", appErr.Code)
	}
}

func TestListUnauthenticated(t *testing.T) {
	app := testApp(nil)

	req, _ := http.NewRequest("GET", "/admin/users", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if appErr := decodeError(t, resp); appErr.Code != "UNAUTHENTICATED" {
		t.Fatalf("expected UNAUTHENTICATED, got %s", appErr.Code)
	}
}

func TestListNonStaffForbidden(t *testing.T) {
	app := testApp(&admin.Principal{ID: 2, Active: true, Staff: false})

	req, _ := http.NewRequest("GET", "/admin/users", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if appErr := decodeError(t, resp); appErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", appErr.Code)
	}
}

func TestListUnknownFilterRejected(t *testing.T) {
	app := testApp(&admin.Principal{ID: 1, Active: true, Staff: true})

	// username is a search field, not a filter field.
	req, _ := http.NewRequest("GET", "/admin/users?filter_username=alice", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if appErr := decodeError(t, resp); appErr.Code != "INVALID_PAYLOAD" {
		t.Fatalf("expected INVALID_PAYLOAD, got %s", appErr.Code)
	}
}

func TestListUnknownOrderFieldIgnored(t *testing.T) {
	reg := testRegistry()
	cfg := reg.Get("users")

	var q *ListQuery
	var appErr *AppError
	app := fiber.New()
	app.Get("/:table", func(c *fiber.Ctx) error {
		q, appErr = parseListQuery(c, cfg)
		return c.SendStatus(200)
	})

	req, _ := http.NewRequest("GET", "/users?order_by=nonsense&reverse=1", nil)
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if appErr != nil {
		t.Fatalf("unknown order field must not error, got %+v", appErr)
	}
	if q.OrderBy != "" {
		t.Fatalf("unknown order field must fall back to default ordering, got %q", q.OrderBy)
	}

	// The default order clause takes over in the generated SQL.
	qr := BuildListSQL(cfg, q)
	if !strings.Contains(qr.SQL, "ORDER BY id") {
		t.Fatalf("expected default ordering, got: %s", qr.SQL)
	}

	req, _ = http.NewRequest("GET", "/users?order_by=username", nil)
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if appErr != nil || q.OrderBy != "username" {
		t.Fatalf("valid order field must be honored, got %q (%+v)", q.OrderBy, appErr)
	}
}

func TestUpdateInvalidIDRejected(t *testing.T) {
	app := testApp(&admin.Principal{ID: 1, Active: true, Staff: true})

	req, _ := http.NewRequest("PUT", "/admin/users/not-a-number", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIndexEndpoint(t *testing.T) {
	app := testApp(&admin.Principal{ID: 1, Active: true, Staff: true})

	req, _ := http.NewRequest("GET", "/admin/", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(envelope.Data) != 7 {
		t.Fatalf("expected 7 builtin tables, got %v", envelope.Data)
	}
	// Sorted output.
	if envelope.Data[0] != "group_permission" || envelope.Data[6] != "users" {
		t.Fatalf("expected sorted table names, got %v", envelope.Data)
	}
}

func TestCreateFormWithoutDatabase(t *testing.T) {
	// forms builder has no choice loader wired; foreign-key fields must
	// still render with empty choices.
	app := testApp(&admin.Principal{ID: 1, Active: true, Staff: true})

	req, _ := http.NewRequest("GET", "/admin/user_group/add", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Data struct {
			Form struct {
				Table  string `json:"table"`
				Fields []struct {
					Name   string `json:"name"`
					Widget string `json:"widget"`
				} `json:"fields"`
			} `json:"form"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("failed to parse response: %v (%s)", err, body)
	}
	if envelope.Data.Form.Table != "user_group" {
		t.Fatalf("expected user_group form, got %s", envelope.Data.Form.Table)
	}
	for _, f := range envelope.Data.Form.Fields {
		if f.Name == "id" {
			t.Fatal("primary key must not appear in create form")
		}
	}
}
