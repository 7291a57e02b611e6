package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/service"
	"github.com/aarnav1729/sample-trials/internal/trial/testutil"
)

func ppcToken() string {
	return testutil.RoleToken("user-ppc", "Meera Iyer", entity.RolePPC)
}

func procurementToken() string {
	return testutil.RoleToken("user-buyer", "Karan Mehta", entity.RoleProcurement)
}

func storesToken() string {
	return testutil.RoleToken("user-stores", "Suresh Kumar", entity.RoleStores)
}

func evaluationToken() string {
	return testutil.RoleToken("user-eval", "Priya Singh", entity.RoleEvaluation)
}

// command posts a stage command and fails the test on an unexpected status.
func command(t *testing.T, env *handlerEnv, id, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()

	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/%s", id, path), body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s status = %d, body = %s", path, w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestFullLifecycleOverHTTP(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	completion := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	steps := []struct {
		path  string
		body  interface{}
		token string
		want  entity.Status
	}{
		{"decision", service.CMKDecisionPayload{Decision: entity.DecisionPilot, Plant: "P4", RevisedQuantity: "300 pcs"}, cmkToken(), entity.StatusPendingPPC},
		{"ppc-data", service.PPCDataPayload{PRNumber: "PR-2026-0117", MaterialCode: "CELL-M10-182", Description: "Trial cells for P4 line"}, ppcToken(), entity.StatusPendingProcurement},
		{"order", service.PlaceOrderPayload{OrderType: "trial_po", EstimatedDelivery: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)}, procurementToken(), entity.StatusOrdered},
		{"delivery", service.MarkDeliveredPayload{Remarks: "Arrived at P4 gate"}, procurementToken(), entity.StatusDelivered},
		{"receipt", service.ReceiveMaterialPayload{Documents: []string{"grn-4411.pdf"}}, storesToken(), entity.StatusReceived},
		{"receipt-confirmation", service.ConfirmReceiptPayload{Received: true, CompletionDate: &completion}, evaluationToken(), entity.StatusPendingEvaluation},
		{"report", service.SubmitReportPayload{Report: "Efficiency within 0.2% of baseline, no hotspots"}, evaluationToken(), entity.StatusPendingFinalCMK},
		{"review", service.FinalReviewPayload{Decision: entity.DecisionApproved}, cmkToken(), entity.StatusCompleted},
	}

	for _, step := range steps {
		data := command(t, env, id, step.path, step.body, step.token)
		if data["status"] != string(step.want) {
			t.Fatalf("after %s: status = %v, want %s", step.path, data["status"], step.want)
		}
	}

	w := testutil.DoRequest(env.Router, "GET", fmt.Sprintf("/api/v1/trial/requests/%s/audit", id), nil, requestorToken())
	entries := testutil.ParseResponse(w)["data"].([]interface{})
	if len(entries) != 9 {
		t.Errorf("audit entries = %d, want 9", len(entries))
	}
}

func TestRejectionOverHTTP(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	body := service.CMKDecisionPayload{Decision: entity.DecisionRejected, Reason: "Supplier not on approved vendor list"}
	data := command(t, env, id, "decision", body, cmkToken())
	if data["status"] != string(entity.StatusRejected) {
		t.Fatalf("status = %v, want rejected", data["status"])
	}

	// Terminal: no further command may touch the request
	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/ppc-data", id),
		service.PPCDataPayload{PRNumber: "PR-1", MaterialCode: "X", Description: "late"}, ppcToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("command on rejected request status = %d, want 409", w.Code)
	}
}

func TestWrongRoleGetsForbidden(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	body := service.CMKDecisionPayload{Decision: entity.DecisionTrial, Plant: "P2"}
	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/decision", id), body, ppcToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40300 {
		t.Errorf("code = %v, want 40300", resp["code"])
	}

	// The failed command must not have moved the request
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/trial/requests/"+id, nil, cmkToken())
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.StatusPendingCMK) {
		t.Errorf("status = %v, want pending_cmk", data["status"])
	}
}

func TestCommandOnWrongStageConflicts(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	command(t, env, id, "decision", service.CMKDecisionPayload{Decision: entity.DecisionTrial, Plant: "P2"}, cmkToken())
	command(t, env, id, "ppc-data", service.PPCDataPayload{PRNumber: "PR-2026-0090", MaterialCode: "EVA-POE-01", Description: "POE film trial"}, ppcToken())
	command(t, env, id, "order", service.PlaceOrderPayload{OrderType: "trial_po", EstimatedDelivery: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}, procurementToken())

	// Double submit: the order stage is already past
	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/order", id),
		service.PlaceOrderPayload{OrderType: "trial_po", EstimatedDelivery: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)}, procurementToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("double order status = %d, want 409, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40900 {
		t.Errorf("code = %v, want 40900", resp["code"])
	}
}

func TestDecisionGuardValidation(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: true, FinalReview: true})
	id := createViaAPI(t, env, intakeBody())

	// Approval without a plant fails the stage guard
	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/decision", id),
		service.CMKDecisionPayload{Decision: entity.DecisionTrial}, cmkToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}

	// Rejection without a reason likewise
	w = testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/decision", id),
		service.CMKDecisionPayload{Decision: entity.DecisionRejected}, cmkToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}

	// Neither guard failure moved the request
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/trial/requests/"+id, nil, cmkToken())
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.StatusPendingCMK) {
		t.Errorf("status = %v, want pending_cmk", data["status"])
	}
}

func TestSimpleFlowOverHTTP(t *testing.T) {
	env := setupEnv(t, entity.FlowConfig{StoresStage: false, FinalReview: false})
	id := createViaAPI(t, env, intakeBody())

	completion := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	command(t, env, id, "decision", service.CMKDecisionPayload{Decision: entity.DecisionTrial, Plant: "P2"}, cmkToken())
	command(t, env, id, "ppc-data", service.PPCDataPayload{PRNumber: "PR-2026-0201", MaterialCode: "GLASS-ARC-32", Description: "ARC glass trial"}, ppcToken())
	command(t, env, id, "order", service.PlaceOrderPayload{OrderType: "trial_po", EstimatedDelivery: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)}, procurementToken())
	command(t, env, id, "delivery", nil, procurementToken())

	// No stores stage in this variant
	w := testutil.DoRequest(env.Router, "POST", fmt.Sprintf("/api/v1/trial/requests/%s/receipt", id),
		service.ReceiveMaterialPayload{}, storesToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("stores receipt in simple flow status = %d, want 409", w.Code)
	}

	command(t, env, id, "receipt-confirmation", service.ConfirmReceiptPayload{Received: true, CompletionDate: &completion}, evaluationToken())
	data := command(t, env, id, "report", service.SubmitReportPayload{ReportFile: "trial-report-glass.pdf"}, evaluationToken())
	if data["status"] != string(entity.StatusCompleted) {
		t.Fatalf("status = %v, want completed", data["status"])
	}
}
