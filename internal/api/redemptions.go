/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestRedemption escrows amount from the volunteer towards the company
// offering the deal and records a PENDING request. Both commit together.
func (s *WalletService) RequestRedemption(ctx context.Context, volunteerOwnerId, companyOwnerId, dealId string, amount models.Voltz) (*models.RedemptionResult, error) {
	if volunteerOwnerId == "" || companyOwnerId == "" || dealId == "" {
		return nil, fmt.Errorf("volunteer_owner_id, company_owner_id and deal_id are required")
	}

	zap.L().Info("Processing redemption request",
		zap.String("owner_id", volunteerOwnerId),
		zap.String("company_owner_id", companyOwnerId),
		zap.String("deal_id", dealId),
		zap.String("amount", amount.String()))

	var (
		req                *models.RedemptionRequest
		volunteer, company *models.Wallet
	)
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		if volunteer, err = s.ledger.GetWalletByOwnerId(ctx, scope, volunteerOwnerId); err != nil {
			return err
		}
		if company, err = s.ledger.GetWalletByOwnerId(ctx, scope, companyOwnerId); err != nil {
			return err
		}

		hold, err := s.ledger.HoldForRedemption(ctx, scope, volunteer, company, amount, ledger.TransferParams{
			Context:     models.EntryContext{DealId: dealId},
			Description: "Deal redemption",
		})
		if err != nil {
			return err
		}

		now := s.now()
		req = &models.RedemptionRequest{
			Id:               uuid.New().String(),
			DealId:           dealId,
			VolunteerOwnerId: volunteerOwnerId,
			CompanyOwnerId:   companyOwnerId,
			HoldEntryId:      hold.Id,
			Amount:           amount,
			Status:           models.RedemptionStatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return s.redemptions.InsertRedemption(ctx, scope, req)
	})
	if err != nil {
		logRejection("redemption", volunteerOwnerId, amount, err)
		return nil, err
	}

	return redemptionResult(req, volunteer, company), nil
}

// AcceptRedemption releases the escrowed Voltz to the company
func (s *WalletService) AcceptRedemption(ctx context.Context, requestId string) (*models.RedemptionResult, error) {
	return s.settleRedemption(ctx, requestId, models.RedemptionStatusAccepted, models.EntryStatusReleased)
}

// RejectRedemption refunds the escrowed Voltz to the volunteer
func (s *WalletService) RejectRedemption(ctx context.Context, requestId string) (*models.RedemptionResult, error) {
	return s.settleRedemption(ctx, requestId, models.RedemptionStatusRejected, models.EntryStatusCancelled)
}

// ExpireRedemption refunds a request the company never answered
func (s *WalletService) ExpireRedemption(ctx context.Context, requestId string) (*models.RedemptionResult, error) {
	return s.settleRedemption(ctx, requestId, models.RedemptionStatusExpired, models.EntryStatusCancelled)
}

// PendingRedemptionsBefore lists at most limit PENDING requests created before cutoff
func (s *WalletService) PendingRedemptionsBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.RedemptionRequest, error) {
	var requests []models.RedemptionRequest
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		requests, err = s.redemptions.ListPendingRedemptionsBefore(ctx, scope, cutoff, limit)
		return err
	})
	return requests, err
}

func (s *WalletService) settleRedemption(ctx context.Context, requestId string, status models.RedemptionStatus, outcome models.EntryStatus) (*models.RedemptionResult, error) {
	if requestId == "" {
		return nil, fmt.Errorf("request_id is required")
	}

	var (
		req                *models.RedemptionRequest
		volunteer, company *models.Wallet
	)
	err := s.uow.Run(ctx, func(ctx context.Context, scope store.Scope) error {
		var err error
		if req, err = s.redemptions.LockRedemption(ctx, scope, requestId); err != nil {
			return err
		}
		if req.Status != models.RedemptionStatusPending {
			return fmt.Errorf("redemption %s is %s: %w", requestId, req.Status, store.ErrRedemptionNotPending)
		}

		if volunteer, err = s.ledger.GetWalletByOwnerId(ctx, scope, req.VolunteerOwnerId); err != nil {
			return err
		}
		if company, err = s.ledger.GetWalletByOwnerId(ctx, scope, req.CompanyOwnerId); err != nil {
			return err
		}
		hold, err := s.ledger.GetEntry(ctx, scope, req.HoldEntryId)
		if err != nil {
			return err
		}
		if err := s.ledger.SettleHold(ctx, scope, volunteer, company, hold, outcome); err != nil {
			return err
		}

		now := s.now()
		if err := s.redemptions.TransitionRedemptionStatus(ctx, scope, req.Id, models.RedemptionStatusPending, status, now); err != nil {
			return err
		}
		req.Status = status
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrRedemptionNotPending) || errors.Is(err, store.ErrRedemptionNotFound) {
			zap.L().Warn("Redemption settlement rejected", zap.String("request_id", requestId), zap.Error(err))
		} else {
			zap.L().Error("Redemption settlement failed", zap.String("request_id", requestId), zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("Redemption settled",
		zap.String("request_id", req.Id),
		zap.String("deal_id", req.DealId),
		zap.String("status", string(status)),
		zap.String("amount", req.Amount.String()))
	return redemptionResult(req, volunteer, company), nil
}

func redemptionResult(req *models.RedemptionRequest, volunteer, company *models.Wallet) *models.RedemptionResult {
	return &models.RedemptionResult{
		RequestId:        req.Id,
		HoldEntryId:      req.HoldEntryId,
		Status:           req.Status,
		Amount:           req.Amount,
		VolunteerBalance: volunteer.Balance,
		CompanyBalance:   company.Balance,
	}
}
