package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/repository"
	"github.com/aarnav1729/sample-trials/internal/trial/service"
	"github.com/aarnav1729/sample-trials/internal/trial/testutil"
	"github.com/gin-gonic/gin"
)

type handlerEnv struct {
	Router   *gin.Engine
	Services *service.Services
}

func setupEnv(t *testing.T, flow entity.FlowConfig) *handlerEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, nil, flow)
	handlers := NewHandlers(services)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1/trial")

	requests := api.Group("/requests")
	requests.GET("", handlers.Request.ListRequests)
	requests.POST("", handlers.Request.CreateRequest)
	requests.GET("/:id", handlers.Request.GetRequest)
	requests.PUT("/:id", handlers.Request.EditRequest)
	requests.GET("/:id/audit", handlers.Request.GetAuditTrail)

	requests.POST("/:id/decision", handlers.Command.CMKDecide)
	requests.POST("/:id/ppc-data", handlers.Command.PPCEnterData)
	requests.POST("/:id/order", handlers.Command.PlaceOrder)
	requests.POST("/:id/delivery", handlers.Command.MarkDelivered)
	requests.POST("/:id/receipt", handlers.Command.ReceiveMaterial)
	requests.POST("/:id/receipt-confirmation", handlers.Command.ConfirmReceipt)
	requests.POST("/:id/report", handlers.Command.SubmitReport)
	requests.POST("/:id/review", handlers.Command.FinalReview)

	api.GET("/reference-values", handlers.Reference.List)

	return &handlerEnv{Router: r, Services: services}
}

func requestorToken() string {
	return testutil.RoleToken("user-requestor", "Asha Nair", entity.RoleRequestor)
}

func cmkToken() string {
	return testutil.RoleToken("user-cmk", "Vikram Rao", entity.RoleCMK)
}

func intakeBody() service.CreateRequestPayload {
	return service.CreateRequestPayload{
		DateReceived:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		MaterialCategory: "Cell",
		MaterialDetails:  "M10 mono PERC cells, 182mm",
		SupplierName:     "Tongwei Solar",
		Quantity:         "500 pcs",
		TrialAtPlant:     true,
		Purpose:          "Cost Reduction",
	}
}

// createViaAPI opens a request over HTTP and returns its id.
func createViaAPI(t *testing.T, env *handlerEnv, body service.CreateRequestPayload) string {
	t.Helper()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/trial/requests", body, requestorToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestCreateAndGetRequest(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/trial/requests", intakeBody(), requestorToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != string(entity.StatusPendingCMK) {
		t.Errorf("status = %v, want %s", data["status"], entity.StatusPendingCMK)
	}
	code, _ := data["code"].(string)
	if !strings.HasPrefix(code, "MTR-") {
		t.Errorf("code = %q, want MTR- prefix", code)
	}
	if data["requested_by"] != "user-requestor" {
		t.Errorf("requested_by = %v", data["requested_by"])
	}

	id := data["id"].(string)
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/trial/requests/"+id, nil, cmkToken())
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got["supplier_name"] != "Tongwei Solar" {
		t.Errorf("supplier_name = %v", got["supplier_name"])
	}
}

func TestGetRequestNotFound(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/trial/requests/no-such-id", nil, requestorToken())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Errorf("code = %v, want 40400", resp["code"])
	}
}

func TestCreateRequestMissingFieldRejected(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})

	body := intakeBody()
	body.SupplierName = ""
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/trial/requests", body, requestorToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestCreateRequestRequiresAuth(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/trial/requests", intakeBody(), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListRequestsWithFilters(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})

	createViaAPI(t, env, intakeBody())
	second := intakeBody()
	second.SupplierName = "Borosil Renewables"
	second.MaterialCategory = "Glass"
	second.MaterialDetails = "3.2mm tempered ARC glass"
	createViaAPI(t, env, second)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/trial/requests", nil, cmkToken())
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", pagination["total"])
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/trial/requests?material_category=Glass", nil, cmkToken())
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("filtered items = %d, want 1", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["supplier_name"] != "Borosil Renewables" {
		t.Errorf("filtered supplier = %v", item["supplier_name"])
	}
}

func TestEditRequestOwnerOnly(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	amended := intakeBody()
	amended.Quantity = "750 pcs"

	stranger := testutil.RoleToken("user-other", "Rohit Shah", entity.RoleRequestor)
	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/trial/requests/"+id, amended, stranger)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger edit status = %d, want 403", w.Code)
	}

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/trial/requests/"+id, amended, requestorToken())
	if w.Code != http.StatusOK {
		t.Fatalf("owner edit status = %d, body = %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["quantity"] != "750 pcs" {
		t.Errorf("quantity = %v, want 750 pcs", data["quantity"])
	}
}

func TestAuditTrailEndpoint(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	decision := service.CMKDecisionPayload{Decision: entity.DecisionTrial, Plant: "P2"}
	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/decision", id), decision, cmkToken())
	if w.Code != http.StatusOK {
		t.Fatalf("decision status = %d, body = %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", fmt.Sprintf("/api/v1/trial/requests/%s/audit", id), nil, requestorToken())
	if w.Code != http.StatusOK {
		t.Fatalf("audit status = %d", w.Code)
	}
	entries := testutil.ParseResponse(w)["data"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	first := entries[0].(map[string]interface{})
	last := entries[1].(map[string]interface{})
	if first["action"] != entity.ActionCreated {
		t.Errorf("first action = %v", first["action"])
	}
	if last["to_status"] != string(entity.StatusPendingPPC) {
		t.Errorf("last to_status = %v", last["to_status"])
	}
}

func TestReferenceValuesEndpoint(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	if err := env.Services.Reference.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/trial/reference-values?kind=material_category", nil, requestorToken())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	values := testutil.ParseResponse(w)["data"].([]interface{})
	found := false
	for _, v := range values {
		if v == "Cell" {
			found = true
		}
	}
	if !found {
		t.Errorf("seeded categories missing Cell: %v", values)
	}
}
