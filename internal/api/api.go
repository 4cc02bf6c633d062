// Package api is the HTTP surface fronting the submit-order path: one
// business route, POST /orders, plus the ambient /healthz and /metrics
// operational endpoints. It embeds an httprouter.Router and reports
// errors through a typed JSON error body.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/auditlog"
	"github.com/Vatix-Protocol/vatix-backend/internal/locks"
	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/persistence"
	"github.com/Vatix-Protocol/vatix-backend/internal/service"
	"github.com/Vatix-Protocol/vatix-backend/internal/signer"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
	"github.com/Vatix-Protocol/vatix-backend/internal/validation"
)

// Submitter is the subset of *service.Service the API needs, named so
// handler tests can substitute a fake.
type Submitter interface {
	Submit(ctx context.Context, req validation.Request) (*signer.Receipt, error)
}

// API embeds httprouter.Router so routes stay declared next to their
// handlers below.
type API struct {
	*httprouter.Router

	log *logging.Logger
	svc Submitter
	s   *http.Server
}

func New(log *logging.Logger, svc Submitter) *API {
	a := &API{
		Router: httprouter.New(),
		log:    log.Named("api"),
		svc:    svc,
	}
	a.POST("/orders", a.submitOrder)
	a.GET("/healthz", a.healthz)
	a.Handler("GET", "/metrics", promhttp.Handler())
	return a
}

// Start binds addr (host:port) and serves until Stop is called, wrapping
// the router in permissive CORS.
func (a *API) Start(addr string) error {
	a.s = &http.Server{
		Addr:    addr,
		Handler: cors.AllowAll().Handler(a),
	}
	a.log.Info("starting HTTP server", logging.String("address", addr))
	return a.s.ListenAndServe()
}

func (a *API) Stop(ctx context.Context) error {
	if a.s == nil {
		return nil
	}
	return a.s.Shutdown(ctx)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// submitRequest is the POST /orders JSON body.
type submitRequest struct {
	MarketID string          `json:"marketId"`
	Side     types.OrderSide `json:"side"`
	Outcome  types.Outcome   `json:"outcome"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// tradeView mirrors one entry of the response's trades array.
type tradeView struct {
	ID            string          `json:"id"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	MakerOrderID  string          `json:"makerOrderId"`
	TakerOrderID  string          `json:"takerOrderId"`
	BuyerAddress  string          `json:"buyerAddress"`
	SellerAddress string          `json:"sellerAddress"`
	Timestamp     time.Time       `json:"timestamp"`
}

// submitResponse is the 201 payload.
type submitResponse struct {
	OrderID        string            `json:"orderId"`
	MarketID       string            `json:"marketId"`
	Side           types.OrderSide   `json:"side"`
	Outcome        types.Outcome     `json:"outcome"`
	Price          decimal.Decimal   `json:"price"`
	Quantity       int64             `json:"quantity"`
	FilledQuantity int64             `json:"filledQuantity"`
	Status         types.OrderStatus `json:"status"`
	Trades         []tradeView       `json:"trades"`
	Timestamp      time.Time         `json:"timestamp"`
	Signature      string            `json:"signature"`
}

// errorResponse is the 4xx/5xx payload: an error code, a human message,
// the order id when one was committed, and a request id for correlation.
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	OrderID   string `json:"orderId,omitempty"`
	RequestID string `json:"requestId"`
}

func (a *API) submitOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := newRequestID()

	userAddress, err := extractUserAddress(r)
	if err != nil {
		writeError(w, requestID, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), "")
		return
	}

	var body submitRequest
	if err := unmarshalBody(r, &body); err != nil {
		writeError(w, requestID, http.StatusBadRequest, "INVALID_BODY", err.Error(), "")
		return
	}

	req := validation.Request{
		MarketID:    body.MarketID,
		UserAddress: userAddress,
		Side:        body.Side,
		Outcome:     body.Outcome,
		Price:       body.Price,
		Quantity:    body.Quantity,
	}

	receipt, err := a.svc.Submit(r.Context(), req)
	if err != nil {
		a.writeSubmitError(w, requestID, err)
		return
	}

	writeSuccess(w, toSubmitResponse(receipt), http.StatusCreated)
}

func (a *API) writeSubmitError(w http.ResponseWriter, requestID string, err error) {
	var verr *validation.Error
	var notTradable *validation.MarketNotTradableError
	var auditFailure *service.AuditFailureError
	var signingFailure *service.SigningFailureError

	switch {
	case errors.As(err, &verr):
		field := ""
		code := "VALIDATION_ERROR"
		if len(verr.Fields) > 0 {
			field = verr.Fields[0].Field
			code = verr.Fields[0].Code
		}
		writeError(w, requestID, http.StatusBadRequest, code, fmt.Sprintf("invalid %s", field), "")
	case errors.As(err, &notTradable):
		writeError(w, requestID, http.StatusBadRequest, "MARKET_NOT_TRADABLE_"+string(notTradable.SubKind), err.Error(), "")
	case errors.Is(err, locks.ErrRateLimited):
		writeError(w, requestID, http.StatusTooManyRequests, "RATE_LIMITED", err.Error(), "")
	case errors.Is(err, persistence.ErrSerializationConflict):
		a.log.Warn("submit failed after exhausting serialization retries", logging.Error(err))
		writeError(w, requestID, http.StatusInternalServerError, "SERIALIZATION_CONFLICT", "please retry", "")
	case errors.As(err, &auditFailure):
		a.log.Error("order committed but audit append failed", logging.String("orderId", auditFailure.OrderID), logging.Error(err))
		writeError(w, requestID, http.StatusInternalServerError, "AUDIT_FAILURE", "order accepted but audit entry missing", auditFailure.OrderID)
	case errors.Is(err, auditlog.ErrUnavailable):
		a.log.Error("audit log unavailable", logging.Error(err))
		writeError(w, requestID, http.StatusInternalServerError, "AUDIT_UNAVAILABLE", "internal failure", "")
	case errors.As(err, &signingFailure):
		a.log.Error("order committed but receipt signing failed", logging.String("orderId", signingFailure.OrderID), logging.Error(err))
		writeError(w, requestID, http.StatusInternalServerError, "SIGNING_FAILURE", "order accepted but receipt unsigned", signingFailure.OrderID)
	default:
		a.log.Error("internal error submitting order", logging.Error(err))
		writeError(w, requestID, http.StatusInternalServerError, "INTERNAL", "internal failure", "")
	}
}

func toSubmitResponse(receipt *signer.Receipt) submitResponse {
	trades := make([]tradeView, 0, len(receipt.Trades))
	for _, t := range receipt.Trades {
		trades = append(trades, tradeView{
			ID: t.ID, Price: t.Price, Quantity: t.Quantity,
			MakerOrderID: t.MakerOrderID, TakerOrderID: t.TakerOrderID,
			BuyerAddress: t.BuyerAddress, SellerAddress: t.SellerAddress,
			Timestamp: t.Timestamp,
		})
	}
	o := receipt.Order
	return submitResponse{
		OrderID: o.ID, MarketID: o.MarketID, Side: o.Side, Outcome: o.Outcome,
		Price: o.Price, Quantity: o.Quantity, FilledQuantity: o.FilledQuantity,
		Status: o.Status, Trades: trades, Timestamp: receipt.Timestamp,
		Signature: "0x" + hexEncode(receipt.Signature),
	}
}

// extractUserAddress supports either a Bearer token or an x-user-address
// header, each carrying the caller's address directly.
func extractUserAddress(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			return "", errors.New("malformed Authorization header")
		}
		addr := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
		if addr == "" {
			return "", errors.New("empty bearer address")
		}
		return addr, nil
	}
	if addr := r.Header.Get("x-user-address"); addr != "" {
		return addr, nil
	}
	return "", errors.New("missing Authorization or x-user-address header")
}

func unmarshalBody(r *http.Request, into interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errInvalidBody
	}
	if err := json.Unmarshal(body, into); err != nil {
		return errInvalidBody
	}
	return nil
}

var errInvalidBody = errors.New("invalid request body")

func writeError(w http.ResponseWriter, requestID string, status int, code, message, orderID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(errorResponse{Error: code, Message: message, OrderID: orderID, RequestID: requestID})
	_, _ = w.Write(buf)
}

func writeSuccess(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(data)
	_, _ = w.Write(buf)
}

func newRequestID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0x0f]
	}
	return string(out)
}
