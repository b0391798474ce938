package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"go.uber.org/zap"
)

func scanRedemption(row rowScanner) (*models.RedemptionRequest, error) {
	var r models.RedemptionRequest
	var amount int64
	var status string
	err := row.Scan(&r.Id, &r.DealId, &r.VolunteerOwnerId, &r.CompanyOwnerId, &r.HoldEntryId,
		&amount, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Amount = models.Voltz(amount)
	r.Status = models.RedemptionStatus(status)
	return &r, nil
}

func (s *Service) InsertRedemption(ctx context.Context, scope store.Scope, req *models.RedemptionRequest) error {
	_, err := scope.ExecContext(ctx, s.dialect.q(queryInsertRedemption),
		req.Id, req.DealId, req.VolunteerOwnerId, req.CompanyOwnerId, req.HoldEntryId,
		int64(req.Amount), string(req.Status), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		zap.L().Error("Failed to insert redemption request", zap.String("request_id", req.Id), zap.Error(err))
		return fmt.Errorf("failed to insert redemption request: %w", err)
	}
	zap.L().Debug("Redemption request inserted",
		zap.String("request_id", req.Id),
		zap.String("deal_id", req.DealId),
		zap.String("hold_entry_id", req.HoldEntryId))
	return nil
}

func (s *Service) LockRedemption(ctx context.Context, scope store.Scope, requestId string) (*models.RedemptionRequest, error) {
	req, err := scanRedemption(scope.QueryRowContext(ctx, s.dialect.forUpdate(queryGetRedemption), requestId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("redemption %s: %w", requestId, store.ErrRedemptionNotFound)
	}
	if err != nil {
		zap.L().Error("Failed to get redemption request", zap.String("request_id", requestId), zap.Error(err))
		return nil, fmt.Errorf("failed to get redemption request: %w", err)
	}
	return req, nil
}

func (s *Service) TransitionRedemptionStatus(ctx context.Context, scope store.Scope, requestId string, from, to models.RedemptionStatus, at time.Time) error {
	result, err := scope.ExecContext(ctx, s.dialect.q(queryTransitionRedemptionStatus),
		string(to), at, requestId, string(from))
	if err != nil {
		zap.L().Error("Failed to transition redemption request", zap.String("request_id", requestId), zap.Error(err))
		return fmt.Errorf("failed to transition redemption request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("redemption %s is not %s: %w", requestId, from, store.ErrRedemptionNotPending)
	}
	return nil
}

// ListPendingRedemptionsBefore returns the oldest PENDING requests created before cutoff
func (s *Service) ListPendingRedemptionsBefore(ctx context.Context, scope store.Scope, cutoff time.Time, limit int) ([]models.RedemptionRequest, error) {
	rows, err := scope.QueryContext(ctx, s.dialect.q(queryListPendingRedemptionsBefore), cutoff, limit)
	if err != nil {
		zap.L().Error("Failed to list pending redemptions", zap.Error(err))
		return nil, fmt.Errorf("failed to list pending redemptions: %w", err)
	}
	defer closeRows(rows)

	var requests []models.RedemptionRequest
	for rows.Next() {
		req, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan redemption request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating redemption rows: %w", err)
	}
	return requests, nil
}
