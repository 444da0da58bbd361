package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/flashdash-service/internal/config"
	"github.com/spec-kit/flashdash-service/internal/domain"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

// unknownCreditor substitutes for debts whose creditor name is missing
// upstream.
const unknownCreditor = "Unknown"

// Gateway fetches and normalizes CRM records, authenticating through the
// shared TokenCache.
//
// Note: the dashboard discards debts under $400 and sorts descending by
// balance. That is consumer policy and deliberately not applied here.
type Gateway struct {
	tokens      *TokenCache
	httpClient  *http.Client
	logger      *zap.Logger
	authBaseURL string
	dataBaseURL string
}

// NewGateway builds the gateway. A nil httpClient gets the configured timeout.
func NewGateway(cfg config.CRMConfig, tokens *TokenCache, httpClient *http.Client, logger *zap.Logger) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		tokens:      tokens,
		httpClient:  httpClient,
		logger:      logger,
		authBaseURL: strings.TrimRight(cfg.AuthBaseURL, "/"),
		dataBaseURL: strings.TrimRight(cfg.DataBaseURL, "/"),
	}
}

// FetchCreditReport fetches a contact's debts and the contact record itself,
// merging them into one normalized report.
func (g *Gateway) FetchCreditReport(ctx context.Context, clientIDOrName string) (*domain.CreditReport, error) {
	token, err := g.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	contactPath := url.PathEscape(clientIDOrName)

	var debtsPayload struct {
		Response []json.RawMessage `json:"response"`
	}
	if err := g.getJSON(ctx, g.dataBaseURL+"/contacts/"+contactPath+"/debts", token, &debtsPayload); err != nil {
		return nil, apperrors.NewUpstreamFailure(fmt.Errorf("fetch debts: %w", err))
	}

	var contactPayload struct {
		Response domain.Contact `json:"response"`
	}
	if err := g.getJSON(ctx, g.dataBaseURL+"/contacts/"+contactPath, token, &contactPayload); err != nil {
		return nil, apperrors.NewUpstreamFailure(fmt.Errorf("fetch contact: %w", err))
	}

	report := &domain.CreditReport{
		Debts:   make([]domain.Debt, 0, len(debtsPayload.Response)),
		Contact: contactPayload.Response,
	}
	for _, raw := range debtsPayload.Response {
		report.Debts = append(report.Debts, normalizeDebt(raw))
	}
	return report, nil
}

// SearchClients proxies the CRM client search. The result is passed through
// as returned upstream.
func (g *Gateway) SearchClients(ctx context.Context, query string) (map[string]any, error) {
	token, err := g.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := g.authBaseURL + "/v1/clients/search?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var result map[string]any
	if err := g.do(req, &result); err != nil {
		return nil, apperrors.NewUpstreamFailure(fmt.Errorf("search clients: %w", err))
	}
	return result, nil
}

// DebtByID fetches a single debt record.
func (g *Gateway) DebtByID(ctx context.Context, debtID string) (*domain.Debt, error) {
	token, err := g.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Response struct {
			Debt json.RawMessage `json:"debt"`
		} `json:"response"`
	}
	endpoint := g.authBaseURL + "/v1/debts/" + url.PathEscape(debtID)
	if err := g.getJSON(ctx, endpoint, token, &payload); err != nil {
		return nil, apperrors.NewUpstreamFailure(fmt.Errorf("fetch debt %s: %w", debtID, err))
	}

	debt := normalizeDebt(payload.Response.Debt)
	return &debt, nil
}

// DebtTypes fetches the CRM's debt type labels, passed through as returned.
func (g *Gateway) DebtTypes(ctx context.Context) (map[string]any, error) {
	token, err := g.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := g.getJSON(ctx, g.authBaseURL+"/v1/debts/types", token, &result); err != nil {
		return nil, apperrors.NewUpstreamFailure(fmt.Errorf("fetch debt types: %w", err))
	}
	return result, nil
}

// getJSON issues a GET with the CRM's Api-Key header scheme.
func (g *Gateway) getJSON(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", token)
	return g.do(req, out)
}

func (g *Gateway) do(req *http.Request, out any) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Error("crm call failed",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

// normalizeDebt flattens one upstream debt entry. Upstream is loose about
// shapes: creditor may be a nested object or absent, amounts arrive as
// numbers or numeric strings.
func normalizeDebt(raw json.RawMessage) domain.Debt {
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.Debt{Creditor: unknownCreditor}
	}

	debt := domain.Debt{
		Creditor:       unknownCreditor,
		CurrentBalance: toFloat(entry["current_debt_amount"]),
		CurrentPayment: toFloat(entry["current_payment"]),
	}

	if creditor, ok := entry["creditor"].(map[string]any); ok {
		if name, ok := creditor["name"].(string); ok && name != "" {
			debt.Creditor = name
		}
	}

	switch typed := entry["debt_type"].(type) {
	case string:
		debt.DebtType = typed
	case map[string]any:
		if label, ok := typed["label"].(string); ok {
			debt.DebtType = label
		} else if name, ok := typed["name"].(string); ok {
			debt.DebtType = name
		}
	}

	return debt
}

func toFloat(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
