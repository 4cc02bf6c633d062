// Package service orchestrates validation, locking, the transactional
// write path, matching, position accounting, audit logging, and receipt
// signing for one order submit call.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Vatix-Protocol/vatix-backend/internal/locks"
	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/matching"
	"github.com/Vatix-Protocol/vatix-backend/internal/metrics"
	"github.com/Vatix-Protocol/vatix-backend/internal/persistence"
	"github.com/Vatix-Protocol/vatix-backend/internal/positions"
	"github.com/Vatix-Protocol/vatix-backend/internal/signer"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
	"github.com/Vatix-Protocol/vatix-backend/internal/validation"
)

// Gateway is the subset of persistence.Gateway the service needs, so tests
// can substitute a fake without standing up Postgres.
type Gateway interface {
	RunTransaction(ctx context.Context, fn func(persistence.Tx) error) error
	GetLiveOrders(ctx context.Context, marketID string, outcome types.Outcome) ([]*types.Order, error)
}

// AuditSink is the subset of auditlog.AuditLog the service needs.
type AuditSink interface {
	Append(ctx context.Context, t *types.Trade, loggedAt time.Time) (marketID, globalID string, err error)
}

// ReceiptSigner is the subset of signer.Signer the service needs.
type ReceiptSigner interface {
	Sign(order *types.Order, trades []*types.Trade, now time.Time) (*signer.Receipt, error)
}

// Service wires every collaborator a submit needs: the persistence
// gateway, audit sink, receipt signer, clock, id generator, and the
// admission and matching locks.
type Service struct {
	validator  *validation.Validator
	registry   *matching.Registry
	admission  *locks.AdmissionLocker
	matchLocks *locks.MatchingLocker
	gateway    Gateway
	audit      AuditSink
	signer     ReceiptSigner
	clock      Clock
	ids        IDGenerator
	log        *logging.Logger
}

func New(
	validator *validation.Validator,
	registry *matching.Registry,
	admission *locks.AdmissionLocker,
	matchLocks *locks.MatchingLocker,
	gateway Gateway,
	audit AuditSink,
	rs ReceiptSigner,
	clock Clock,
	ids IDGenerator,
	log *logging.Logger,
) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Service{
		validator: validator, registry: registry, admission: admission, matchLocks: matchLocks,
		gateway: gateway, audit: audit, signer: rs, clock: clock, ids: ids, log: log.Named("service"),
	}
}

// Submit runs the full orchestration in order and returns a signed
// receipt, or the first error kind encountered.
func (s *Service) Submit(ctx context.Context, req validation.Request) (*signer.Receipt, error) {
	if err := s.validator.Validate(ctx, req); err != nil {
		metrics.SubmitsTotal.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	release, err := s.admission.Acquire(ctx, req.UserAddress, req.MarketID)
	if err != nil {
		metrics.SubmitsTotal.WithLabelValues("rate_limited").Inc()
		metrics.AdmissionLockRejections.WithLabelValues(req.MarketID).Inc()
		return nil, err
	}
	defer release()

	unlock := s.matchLocks.Lock(req.MarketID, req.Outcome)
	defer unlock()

	book := s.registry.BookFor(req.MarketID, req.Outcome)
	now := s.clock.Now()

	matchTimer := metrics.NewTimeCounter(metrics.MatchDuration, req.MarketID, string(req.Outcome))

	// Everything from here through the end of this block is non-transactional:
	// it mutates the shared in-memory book and, eventually, appends to Redis.
	// It must run exactly once per submit, so it lives outside the closure
	// RunTransaction may invoke more than once on a serialization conflict.
	// The closure itself only ever does Postgres writes, which Postgres's own
	// rollback-before-retry already makes safe to replay with the same ids.
	taker := &types.Order{
		ID: s.ids.NewID(), MarketID: req.MarketID, UserAddress: req.UserAddress,
		Side: req.Side, Outcome: req.Outcome, Price: req.Price, Quantity: req.Quantity,
		Status: types.OrderStatusOpen, CreatedAt: now, ArrivalSequence: book.NextArrivalSequence(),
	}

	result := matching.Match(taker, book, now)
	matchTimer.Observe()
	trades := result.Trades
	for _, t := range trades {
		t.ID = s.ids.NewID()
	}

	if result.TakerRemaining > 0 {
		if err := book.Add(taker); err != nil {
			metrics.SubmitsTotal.WithLabelValues("internal_error").Inc()
			return nil, &InternalError{Cause: err}
		}
	}

	var deltas map[positions.Key]*types.PositionDelta
	if len(trades) > 0 {
		deltas = positions.FromTrades(trades)
	}

	txErr := s.gateway.RunTransaction(ctx, func(tx persistence.Tx) error {
		market, err := persistence.GetMarketTx(tx, req.MarketID)
		if err != nil {
			return err
		}
		if err := market.Tradable(now); err != nil {
			return &validation.MarketNotTradableError{SubKind: subKindFor(err), Cause: err}
		}

		if err := persistence.InsertOrderTx(tx, taker); err != nil {
			return fmt.Errorf("insert taker order: %w", err)
		}

		if len(trades) > 0 {
			if err := persistence.InsertTradesTx(tx, trades); err != nil {
				return fmt.Errorf("insert trades: %w", err)
			}
		}

		for _, mu := range result.MakerUpdates {
			if err := persistence.UpdateOrderFillTx(tx, mu.Order); err != nil {
				return fmt.Errorf("update maker order %s: %w", mu.OrderID, err)
			}
		}
		if err := persistence.UpdateOrderFillTx(tx, taker); err != nil {
			return fmt.Errorf("update taker order: %w", err)
		}

		if len(deltas) > 0 {
			keys := make([]positions.Key, 0, len(deltas))
			for k := range deltas {
				keys = append(keys, k)
			}
			byKey, err := persistence.LoadPositionsForUpdateTx(tx, keys)
			if err != nil {
				return fmt.Errorf("load positions: %w", err)
			}
			positions.ApplyAll(deltas, byKey)
			if err := persistence.UpsertPositionsTx(tx, byKey); err != nil {
				return fmt.Errorf("upsert positions: %w", err)
			}
		}

		return nil
	})

	if txErr != nil {
		// The book's in-memory mutations above were never committed; discard
		// them by reloading the book from durable state rather than undoing
		// match/Add in place.
		s.resyncBookAfterAbort(ctx, req.MarketID, req.Outcome)
		metrics.SubmitsTotal.WithLabelValues("internal_error").Inc()
		return nil, txErr
	}

	// The transaction committed, so the book's in-memory state now matches
	// durable state. Audit appends and receipt signing run exactly once,
	// after commit, and are never retried: a failure here can no longer roll
	// back the already-committed order and trades.
	for _, t := range trades {
		appendTimer := metrics.NewTimeCounter(metrics.AuditAppendDuration, "market")
		if _, _, err := s.audit.Append(ctx, t, now); err != nil {
			metrics.SubmitsTotal.WithLabelValues("audit_failure").Inc()
			return nil, &AuditFailureError{OrderID: taker.ID, Cause: err}
		}
		appendTimer.Observe()
	}

	receipt, err := s.signer.Sign(taker, trades, now)
	if err != nil {
		metrics.SubmitsTotal.WithLabelValues("signing_failure").Inc()
		return nil, &SigningFailureError{OrderID: taker.ID, Cause: err}
	}

	metrics.SubmitsTotal.WithLabelValues("accepted").Inc()
	return receipt, nil
}

// resyncBookAfterAbort rebuilds the in-memory book for (marketID,outcome)
// from durable state after a transaction rollback, undoing its
// in-transaction mutations (Add, fills) by reloading rather than
// reversing them in place.
func (s *Service) resyncBookAfterAbort(ctx context.Context, marketID string, outcome types.Outcome) {
	rows, err := s.gateway.GetLiveOrders(ctx, marketID, outcome)
	if err != nil {
		s.log.Error("failed to resync order book after aborted submit",
			logging.String("marketId", marketID), logging.Error(err))
		return
	}
	book := matching.RebuildFromOrders(marketID, outcome, rows, s.log)
	s.registry.ReplaceBook(book)
}

func subKindFor(err error) validation.SubKind {
	switch err {
	case types.ErrMarketResolved:
		return validation.SubKindResolved
	case types.ErrMarketCancelled:
		return validation.SubKindCancelled
	case types.ErrMarketEnded:
		return validation.SubKindEnded
	default:
		return validation.SubKindNotFound
	}
}
