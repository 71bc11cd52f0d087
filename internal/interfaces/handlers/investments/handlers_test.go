package investments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stablebricks-backend/internal/application/certificates"
	investsvc "stablebricks-backend/internal/application/investments"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/storage"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/constants"
	"stablebricks-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	mailer  *testutil.Mailer
	svc     *investsvc.Service
	project domain.Project
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	mailer := &testutil.Mailer{}
	issuer, err := certificates.NewIssuer(db, &storage.DiskStore{Dir: t.TempDir()}, mailer, "https://stablebricks.test", 0)
	require.NoError(t, err)
	p := domain.Project{
		Name:               "Lekki Pearl",
		Location:           "Lagos",
		InvestmentRequired: decimal.NewFromInt(500000),
		SharePrice:         decimal.NewFromInt(100000),
		TotalShares:        5,
		ProjectStatus:      domain.ProjectOpen,
	}
	require.NoError(t, db.Create(&p).Error)
	return &fixture{db: db, mailer: mailer, svc: &investsvc.Service{DB: db, Certificates: issuer}, project: p}
}

func (f *fixture) app(actor *domain.User) *fiber.App {
	h := &Handlers{Service: f.svc}
	app := fiber.New()
	if actor != nil {
		app.Use(testutil.AsUser(*actor))
	}
	app.Get("/user-investment/:token", h.Verify)
	inv := app.Group("/investments", middleware.RequireAuth())
	manage := middleware.AuthorizePermission(constants.ManageInvestments)
	inv.Post("/", middleware.AuthorizePermission(constants.Invest), h.Create)
	inv.Get("/", manage, h.ListAll)
	inv.Get("/mine", h.ListMine)
	inv.Get("/token/:token", manage, h.GetByToken)
	inv.Get("/:id", h.Get)
	inv.Get("/:id/certificate", h.Certificate)
	inv.Patch("/:id/status", manage, h.ChangeStatus)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func errMessage(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}

func TestCreate_IssuesCertificate(t *testing.T) {
	f := newFixture(t)
	investor := testutil.CreateUser(t, f.db, "investor@example.com", constants.RoleUser, "Secret#123")
	app := f.app(&investor)

	resp, out := call(t, app, "POST", "/investments", map[string]interface{}{
		"project_id": f.project.ID, "amount": "200000",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	data := out["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["shares"])
	assert.Equal(t, investor.ID.String(), data["user_id"])
	id := data["id"].(string)
	token := data["verification_token"].(string)

	var stored domain.Investment
	require.NoError(t, f.db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, domain.CertificateIssued, stored.CertificateStatus)
	assert.Equal(t, []string{"investment"}, f.mailer.Kinds())

	req := httptest.NewRequest("GET", "/investments/"+id+"/certificate", nil)
	pdfResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, pdfResp.StatusCode)
	assert.Equal(t, "application/pdf", pdfResp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(pdfResp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, out = call(t, f.app(nil), "GET", "/user-investment/"+token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	pub := out["data"].(map[string]interface{})
	assert.Equal(t, investor.Name, pub["investor_name"])
	assert.Equal(t, "Lekki Pearl", pub["project_name"])
	assert.NotContains(t, pub, "verification_token")
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	investor := testutil.CreateUser(t, f.db, "investor@example.com", constants.RoleUser, "Secret#123")
	other := testutil.CreateUser(t, f.db, "other@example.com", constants.RoleUser, "Secret#123")
	app := f.app(&investor)

	resp, out := call(t, app, "POST", "/investments", map[string]interface{}{"project_id": f.project.ID, "amount": 0})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Amount must be greater than 0", errMessage(out))

	resp, out = call(t, app, "POST", "/investments", map[string]interface{}{"project_id": f.project.ID, "amount": 600000})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Not enough shares available", errMessage(out))

	resp, out = call(t, app, "POST", "/investments", map[string]interface{}{"project_id": f.project.ID, "amount": 50000})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Investment must include at least one share", errMessage(out))

	resp, _ = call(t, app, "POST", "/investments", map[string]interface{}{
		"project_id": f.project.ID, "amount": 100000, "user_id": other.ID,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, out = call(t, app, "POST", "/investments", map[string]interface{}{
		"project_id": "6f1c1f8e-2a0b-4d3e-9a65-1d2b3c4d5e6f", "amount": 100000,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Project not found", errMessage(out))
}

func TestAdmin_OnBehalfAndStatus(t *testing.T) {
	f := newFixture(t)
	admin := testutil.CreateUser(t, f.db, "admin@example.com", constants.RoleAdmin, "Secret#123")
	investor := testutil.CreateUser(t, f.db, "investor@example.com", constants.RoleUser, "Secret#123")
	app := f.app(&admin)

	resp, out := call(t, app, "POST", "/investments", map[string]interface{}{
		"project_id": f.project.ID, "amount": 500000, "user_id": investor.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, investor.ID.String(), data["user_id"])
	id := data["id"].(string)

	var p domain.Project
	require.NoError(t, f.db.First(&p, "id = ?", f.project.ID).Error)
	assert.Equal(t, domain.ProjectFunded, p.ProjectStatus)

	resp, out = call(t, app, "GET", "/investments?status=ACTIVE", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)

	resp, out = call(t, app, "PATCH", "/investments/"+id+"/status", map[string]string{"status": "CANCELLED"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "CANCELLED", out["data"].(map[string]interface{})["status"])

	resp, out = call(t, app, "PATCH", "/investments/"+id+"/status", map[string]string{"status": "ACTIVE"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot change status from CANCELLED to ACTIVE", errMessage(out))
}

func TestGet_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, "owner@example.com", constants.RoleUser, "Secret#123")
	other := testutil.CreateUser(t, f.db, "other@example.com", constants.RoleUser, "Secret#123")
	inv, err := f.svc.Create(context.Background(), investsvc.CreateInput{UserID: owner.ID, ProjectID: f.project.ID, Amount: decimal.NewFromInt(100000)})
	require.NoError(t, err)

	resp, _ := call(t, f.app(&other), "GET", "/investments/"+inv.ID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = call(t, f.app(&other), "GET", "/investments/"+inv.ID.String()+"/certificate", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = call(t, f.app(&other), "GET", "/investments", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, out := call(t, f.app(&owner), "GET", "/investments/"+inv.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, inv.CertificateID, out["data"].(map[string]interface{})["certificate_number"])

	resp, out = call(t, f.app(&owner), "GET", "/investments/mine", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)

	resp, _ = call(t, f.app(nil), "GET", "/user-investment/unknown-token", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
