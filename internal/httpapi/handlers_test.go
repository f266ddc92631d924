package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"convohub-platform/internal/actions"
	"convohub-platform/internal/analysis"
	"convohub-platform/internal/auth"
	"convohub-platform/internal/calls"
	"convohub-platform/internal/contacts"
	"convohub-platform/internal/conversation"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/pipeline"
	"convohub-platform/internal/reporting"
	"convohub-platform/internal/tickets"
)

const analyzeCompletion = `{
  "rating": 8,
  "summary": "Booked a brake inspection",
  "next_actions": ["Confirm Saturday appointment"],
  "tags": ["brakes"],
  "customer_info": {"first_name": "Maria", "confidence": "high"},
  "pipeline": {"status": "booked", "title": "Brake inspection", "deal_value": 25000, "priority": "high", "confidence": 85},
  "confidence": "high"
}`

type fixture struct {
	router    *gin.Engine
	calls     *calls.MemoryRepo
	inter     *interactions.MemoryRepo
	customers *contacts.MemoryRepo
	deals     *deals.MemoryRepo
}

func identityMiddleware(merchantID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u1", merchantID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	customers := contacts.NewMemoryRepo()
	inter := interactions.NewMemoryRepo()
	callRepo := calls.NewMemoryRepo()
	dealRepo := deals.NewMemoryRepo()
	actionRepo := actions.NewMemoryRepo()

	h := Handlers{
		Conversations: &conversation.Service{
			Interactions: inter,
			Calls:        callRepo,
			Customers:    customers,
			Tickets:      tickets.NewMemoryRepo(),
			Deals:        dealRepo,
		},
		Calls:     callRepo,
		Analyzer:  analysis.NewAnalyzer(&analysis.MockProvider{Response: analyzeCompletion}, nil),
		Applier:   pipeline.NewApplier(contacts.NewResolver(customers), customers, dealRepo, actionRepo, nil, nil),
		Reporting: reporting.NewService(callRepo, inter, dealRepo),
	}

	r := gin.New()
	v1 := r.Group("/v1")
	v1.Use(identityMiddleware("m1", "owner"))
	v1.GET("/conversations", h.ListConversations)
	v1.GET("/conversations/:contact_point", h.GetConversation)
	v1.POST("/calls/:id/analyze", h.AnalyzeCall)
	v1.POST("/analysis", h.AnalyzeTranscript)
	v1.GET("/reports/calls", h.CallsReport)

	return fixture{router: r, calls: callRepo, inter: inter, customers: customers, deals: dealRepo}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestListConversations(t *testing.T) {
	f := newFixture(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	_ = f.inter.Append(context.Background(), interactions.RawInteraction{
		ID: "i1", MerchantID: "m1", ContactPoint: "+15550001111",
		Channel: interactions.ChannelSMS, Direction: interactions.DirectionInbound,
		Content: "hi", CreatedAt: t0,
	})

	w := f.do(t, http.MethodGet, "/v1/conversations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Conversations []conversation.Thread `json:"conversations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Conversations) != 1 || resp.Conversations[0].ContactPoint != "+15550001111" {
		t.Fatalf("conversations = %+v", resp.Conversations)
	}
}

func TestGetConversation_NotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/v1/conversations/+19998887777", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAnalyzeCall(t *testing.T) {
	f := newFixture(t)
	_ = f.calls.Upsert(context.Background(), calls.CallRecord{
		ID: "CA1", MerchantID: "m1", CustomerPhone: "+15550001111",
		Status:     calls.CallStatusCompleted,
		Transcript: "customer: my brakes squeal\nagent: bring it in Saturday",
	})

	w := f.do(t, http.MethodPost, "/v1/calls/CA1/analyze", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Analysis analysis.Result  `json:"analysis"`
		Applied  pipeline.Outcome `json:"applied"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Analysis.Rating != 8 {
		t.Fatalf("rating = %d", resp.Analysis.Rating)
	}
	if resp.Applied.CustomerID == "" || resp.Applied.DealID == "" {
		t.Fatalf("applied = %+v", resp.Applied)
	}

	dls, _ := f.deals.ListByMerchant(context.Background(), "m1")
	if len(dls) != 1 {
		t.Fatalf("deals = %+v", dls)
	}
}

func TestAnalyzeCall_UnknownCall(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/v1/calls/missing/analyze", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAnalyzeCall_OtherTenantCallInvisible(t *testing.T) {
	f := newFixture(t)
	_ = f.calls.Upsert(context.Background(), calls.CallRecord{
		ID: "CA1", MerchantID: "m2", CustomerPhone: "+15550001111",
		Status: calls.CallStatusCompleted, Transcript: "customer: hello there",
	})

	w := f.do(t, http.MethodPost, "/v1/calls/CA1/analyze", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, cross-tenant call must be invisible", w.Code)
	}
}

func TestAnalyzeTranscript_AdHoc(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/v1/analysis", `{"transcript":"customer: my brakes squeal badly on the highway"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Analysis analysis.Result `json:"analysis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Analysis.Summary != "Booked a brake inspection" {
		t.Fatalf("analysis = %+v", resp.Analysis)
	}
}

func TestAnalyzeTranscript_TurnListShape(t *testing.T) {
	f := newFixture(t)

	body := `{"transcript":[{"speaker":"customer","text":"my brakes squeal"},{"speaker":"agent","text":"come in Saturday"}]}`
	w := f.do(t, http.MethodPost, "/v1/analysis", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestCallsReport(t *testing.T) {
	f := newFixture(t)
	_ = f.calls.Upsert(context.Background(), calls.CallRecord{
		ID: "CA1", MerchantID: "m1", CustomerPhone: "+1555",
		Status: calls.CallStatusCompleted, DurationSeconds: 60,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	})

	w := f.do(t, http.MethodGet, "/v1/reports/calls", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var out reporting.CallsSummary
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalCalls != 1 || out.CompletedCalls != 1 {
		t.Fatalf("summary = %+v", out)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handlers{Conversations: &conversation.Service{}}
	r := gin.New()
	r.GET("/v1/conversations", h.ListConversations)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/conversations", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
