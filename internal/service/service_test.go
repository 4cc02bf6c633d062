package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatix-Protocol/vatix-backend/internal/locks"
	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/matching"
	"github.com/Vatix-Protocol/vatix-backend/internal/persistence"
	"github.com/Vatix-Protocol/vatix-backend/internal/signer"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
	"github.com/Vatix-Protocol/vatix-backend/internal/validation"
)

// fakeMarketLookup implements validation.MarketLookup without a real
// persistence gateway.
type fakeMarketLookup struct {
	market *types.Market
	err    error
}

func (f *fakeMarketLookup) GetMarket(ctx context.Context, marketID string) (*types.Market, error) {
	return f.market, f.err
}

// fakeGateway satisfies the service.Gateway interface without Postgres.
// Submit only reaches RunTransaction/GetLiveOrders after validation and
// the admission/matching locks succeed; exercising those paths needs a
// live Postgres and Redis, so these fakes only back the
// validation-rejection test below, which never calls either method.
type fakeGateway struct{}

func (fakeGateway) RunTransaction(ctx context.Context, fn func(persistence.Tx) error) error {
	panic("not reached by the validation-rejection test")
}

func (fakeGateway) GetLiveOrders(ctx context.Context, marketID string, outcome types.Outcome) ([]*types.Order, error) {
	panic("not reached by the validation-rejection test")
}

type fakeAudit struct{}

func (fakeAudit) Append(ctx context.Context, t *types.Trade, loggedAt time.Time) (string, string, error) {
	panic("not reached by the validation-rejection test")
}

type fakeSigner struct{}

func (fakeSigner) Sign(order *types.Order, trades []*types.Trade, now time.Time) (*signer.Receipt, error) {
	panic("not reached by the validation-rejection test")
}

func testLogger() *logging.Logger {
	return logging.NewLoggerFromEnv("test", "error")
}

func newTestService(markets validation.MarketLookup) *Service {
	validator := validation.NewValidator(markets, func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})
	return New(
		validator,
		matching.NewRegistry(testLogger()),
		locks.NewAdmissionLocker(nil, time.Second),
		locks.NewMatchingLocker(),
		fakeGateway{},
		fakeAudit{},
		fakeSigner{},
		nil,
		nil,
		testLogger(),
	)
}

func validRequest() validation.Request {
	return validation.Request{
		MarketID:    "m1",
		UserAddress: "0x1111111111111111111111111111111111111111",
		Side:        types.OrderSideBuy,
		Outcome:     types.OutcomeYes,
		Price:       decimal.RequireFromString("0.5"),
		Quantity:    10,
	}
}

func TestSubmit_RejectsInvalidAddressBeforeTouchingAnyCollaborator(t *testing.T) {
	svc := newTestService(&fakeMarketLookup{})
	req := validRequest()
	req.UserAddress = "not-an-address"

	_, err := svc.Submit(context.Background(), req)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userAddress", verr.Fields[0].Field)
}

func TestSubmit_RejectsWhenMarketResolved(t *testing.T) {
	outcome := types.OutcomeYes
	svc := newTestService(&fakeMarketLookup{market: &types.Market{
		ID: "m1", Status: types.MarketStatusResolved, Outcome: &outcome,
		EndTime: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}})

	_, err := svc.Submit(context.Background(), validRequest())

	var notTradable *validation.MarketNotTradableError
	require.ErrorAs(t, err, &notTradable)
	assert.Equal(t, validation.SubKindResolved, notTradable.SubKind)
}

func TestSubKindFor_MapsEveryMarketSentinel(t *testing.T) {
	assert.Equal(t, validation.SubKindResolved, subKindFor(types.ErrMarketResolved))
	assert.Equal(t, validation.SubKindCancelled, subKindFor(types.ErrMarketCancelled))
	assert.Equal(t, validation.SubKindEnded, subKindFor(types.ErrMarketEnded))
	assert.Equal(t, validation.SubKindNotFound, subKindFor(types.ErrMarketNotFound))
}
