package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spec-kit/flashdash-service/internal/config"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

// seededGateway returns a gateway whose token cache already holds a live
// token, so no auth traffic reaches the test server.
func seededGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.CRMConfig{AuthBaseURL: server.URL, DataBaseURL: server.URL}
	cache := NewTokenCache(cfg, TokenCacheDeps{HTTPClient: server.Client()})
	cache.token = "seeded-token"
	cache.expiry = time.Now().Add(time.Hour)

	return NewGateway(cfg, cache, server.Client(), nil)
}

func TestGateway_FetchCreditReport(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") != "seeded-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/contacts/42/debts":
			fmt.Fprint(w, `{"response":[
				{"creditor":{"name":"Visa"},"current_debt_amount":1250.5,"current_payment":35,"debt_type":"credit card"},
				{"current_debt_amount":"980.25","current_payment":"12.5"}
			]}`)
		case "/contacts/42":
			fmt.Fprint(w, `{"response":{"first_name":"John","last_name":"Doe"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	gateway := seededGateway(t, handler)

	report, err := gateway.FetchCreditReport(context.Background(), "42")
	if err != nil {
		t.Fatalf("FetchCreditReport returned error: %v", err)
	}

	if len(report.Debts) != 2 {
		t.Fatalf("expected 2 debts, got %d", len(report.Debts))
	}
	first := report.Debts[0]
	if first.Creditor != "Visa" || first.CurrentBalance != 1250.5 || first.CurrentPayment != 35 {
		t.Fatalf("unexpected first debt: %+v", first)
	}
	if first.DebtType != "credit card" {
		t.Fatalf("debt type not carried through: %+v", first)
	}

	second := report.Debts[1]
	if second.Creditor != "Unknown" {
		t.Fatalf("missing creditor must map to Unknown, got %q", second.Creditor)
	}
	if second.CurrentBalance != 980.25 || second.CurrentPayment != 12.5 {
		t.Fatalf("string amounts not coerced: %+v", second)
	}

	if report.Contact["first_name"] != "John" {
		t.Fatalf("contact not merged: %+v", report.Contact)
	}
}

func TestGateway_FetchCreditReport_DebtsFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	gateway := seededGateway(t, handler)

	_, err := gateway.FetchCreditReport(context.Background(), "42")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "UPSTREAM_FAILURE" {
		t.Fatalf("expected UPSTREAM_FAILURE, got %v", err)
	}
}

func TestGateway_FetchCreditReport_ContactFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contacts/42/debts" {
			fmt.Fprint(w, `{"response":[]}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	gateway := seededGateway(t, handler)

	_, err := gateway.FetchCreditReport(context.Background(), "42")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "UPSTREAM_FAILURE" {
		t.Fatalf("expected UPSTREAM_FAILURE when the contact call fails, got %v", err)
	}
}

func TestGateway_TokenFailurePropagates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.CRMConfig{AuthBaseURL: server.URL, DataBaseURL: server.URL}
	cache := NewTokenCache(cfg, TokenCacheDeps{HTTPClient: server.Client()})
	gateway := NewGateway(cfg, cache, server.Client(), nil)

	_, err := gateway.FetchCreditReport(context.Background(), "42")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "CRM_AUTH_FAILED" {
		t.Fatalf("expected CRM_AUTH_FAILED to pass through, got %v", err)
	}
}

func TestGateway_DebtByID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/debts/7" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"response":{"debt":{"creditor":{"name":"Amex"},"current_debt_amount":500}}}`)
	})

	gateway := seededGateway(t, handler)

	debt, err := gateway.DebtByID(context.Background(), "7")
	if err != nil {
		t.Fatalf("DebtByID returned error: %v", err)
	}
	if debt.Creditor != "Amex" || debt.CurrentBalance != 500 {
		t.Fatalf("unexpected debt: %+v", debt)
	}
}

func TestGateway_SearchClients_UsesBearerScheme(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/clients/search" || r.URL.Query().Get("query") != "doe" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer seeded-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":1}]}`)
	})

	gateway := seededGateway(t, handler)

	result, err := gateway.SearchClients(context.Background(), "doe")
	if err != nil {
		t.Fatalf("SearchClients returned error: %v", err)
	}
	if _, ok := result["results"]; !ok {
		t.Fatalf("unexpected result: %v", result)
	}
}
