package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"referral-staking-backend/internal/common/cache"
	apperrors "referral-staking-backend/internal/common/errors"
	"referral-staking-backend/internal/common/logger"
	"referral-staking-backend/internal/common/metrics"
	"referral-staking-backend/internal/common/validation"
	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/staking/mapper"
	"referral-staking-backend/internal/features/staking/models"
	"referral-staking-backend/internal/settlement"
)

type stakingService struct {
	repo   ledger.Repository
	policy settlement.Policy
	cache  *cache.CacheService
	now    func() time.Time
	log    zerolog.Logger
}

// NewStakingService wires stake creation, unlock and listing. cache may be nil.
func NewStakingService(repo ledger.Repository, policy settlement.Policy, c *cache.CacheService, opts Options) StakingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &stakingService{
		repo:   repo,
		policy: policy,
		cache:  c,
		now:    opts.Now,
		log:    logger.Component("staking"),
	}
}

// stakeSnapshot is the cached, time-independent part of the stakes list.
type stakeSnapshot struct {
	TotalStaked decimal.Decimal    `json:"total_staked"`
	Counts      ledger.StakeCounts `json:"counts"`
	Stakes      []ledger.Stake     `json:"stakes"`
}

// CreateStake записывает стейк и начисляет бонусы стейкеру и пригласившему в одной транзакции
func (s *stakingService) CreateStake(ctx context.Context, in CreateStakeInput) (*models.StakeResponse, error) {
	amount, err := settlement.ParseAmount(in.Amount)
	if err != nil {
		var amountErr *settlement.AmountError
		if errors.As(err, &amountErr) {
			return nil, apperrors.NewInvalidAmountError(in.Amount, amountErr.Reason)
		}
		return nil, apperrors.NewInvalidAmountError(in.Amount, err.Error())
	}
	if err := validation.ValidateTxHash(in.TxHash); err != nil {
		return nil, apperrors.NewValidationError("tx_hash", err.Error())
	}

	user, err := s.repo.GetUserByWallet(ctx, in.WalletAddress)
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			return nil, apperrors.NewWalletNotFoundError(in.WalletAddress)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	resp, referrerWallet, out, err := s.createStakeTx(ctx, user, amount, in.TxHash)
	if err != nil {
		appErr := s.mapTxError(err, in.TxHash, 0)
		if errors.Is(err, ledger.ErrUserNotFound) {
			appErr = apperrors.NewWalletNotFoundError(in.WalletAddress)
		}
		if appErr.IsInternal() {
			metrics.RecordSettlement("stake", "failed")
		} else {
			metrics.RecordSettlement("stake", "refused")
		}
		return nil, appErr
	}

	metrics.RecordSettlement("stake", "committed")
	metrics.RecordReward(string(ledger.RewardStakingSelf), out.UserBonus)
	if referrerWallet != "" {
		metrics.RecordReward(string(ledger.RewardStakingReferral), out.ReferrerBonus)
	}
	if err := s.cache.InvalidateWallets(ctx, user.WalletAddress, referrerWallet); err != nil {
		s.log.Warn().Err(err).Str("wallet", user.WalletAddress).Msg("Failed to invalidate wallet cache")
	}

	s.log.Info().
		Int64("stake_id", resp.StakingID).
		Str("wallet", user.WalletAddress).
		Str("amount", amount.String()).
		Bool("referred", referrerWallet != "").
		Msg("Stake created")

	return resp, nil
}

func (s *stakingService) createStakeTx(ctx context.Context, user *ledger.User, amount decimal.Decimal, txHash string) (*models.StakeResponse, string, settlement.StakeOutcome, error) {
	var out settlement.StakeOutcome
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, "", out, err
	}
	defer tx.Rollback()

	ref, err := s.repo.GetReferralByRefereeTx(ctx, tx, user.ID)
	if err != nil && !errors.Is(err, ledger.ErrReferralNotFound) {
		return nil, "", out, err
	}
	if errors.Is(err, ledger.ErrReferralNotFound) {
		ref = nil
	}

	// строки пользователей блокируются по возрастанию id
	ids := []int64{user.ID}
	if ref != nil {
		ids = append(ids, ref.ReferrerID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[int64]*ledger.User, len(ids))
	for _, id := range ids {
		u, err := s.repo.GetUserForUpdateTx(ctx, tx, id)
		if err != nil {
			return nil, "", out, err
		}
		locked[id] = u
	}

	out = s.policy.Stake(user.ID, amount, txHash, ref != nil, now)
	if err := s.repo.CreateStakeTx(ctx, tx, &out.Stake); err != nil {
		return nil, "", out, err
	}

	staker, err := s.repo.ApplyBalanceDeltaTx(ctx, tx, user.ID, out.StakerDelta)
	if err != nil {
		return nil, "", out, err
	}
	self := settlement.SelfReward(&out.Stake)
	if err := s.repo.CreateRewardTx(ctx, tx, &self); err != nil {
		return nil, "", out, err
	}

	var referrerWallet string
	if ref != nil {
		if _, err := s.repo.ApplyBalanceDeltaTx(ctx, tx, ref.ReferrerID, out.ReferrerDelta); err != nil {
			return nil, "", out, err
		}
		reward := settlement.ReferrerReward(ref.ReferrerID, ref, &out.Stake)
		if err := s.repo.CreateRewardTx(ctx, tx, &reward); err != nil {
			return nil, "", out, err
		}
		referrerWallet = locked[ref.ReferrerID].WalletAddress
	}

	if err := tx.Commit(); err != nil {
		return nil, "", out, err
	}

	return mapper.ToStakeResponse(user.WalletAddress, out, staker, now), referrerWallet, out, nil
}

// UnlockStake освобождает стейк после окончания срока
func (s *stakingService) UnlockStake(ctx context.Context, stakeID int64) (*models.UnlockResponse, error) {
	stake, err := s.Unlock(ctx, stakeID, UnlockOptions{})
	if err != nil {
		return nil, err
	}
	return mapper.ToUnlockResponse(stake), nil
}

func (s *stakingService) Unlock(ctx context.Context, stakeID int64, opts UnlockOptions) (*ledger.Stake, error) {
	if err := validation.ValidatePositiveInt(stakeID, "staking_id"); err != nil {
		return nil, apperrors.NewValidationError("staking_id", err.Error())
	}

	stake, ownerWallet, err := s.unlockTx(ctx, stakeID, opts)
	if err != nil {
		appErr := s.mapTxError(err, "", stakeID)
		if appErr.IsInternal() {
			metrics.RecordSettlement("unlock", "failed")
		} else {
			metrics.RecordSettlement("unlock", "refused")
		}
		return nil, appErr
	}

	metrics.RecordSettlement("unlock", "committed")
	metrics.RecordReward(string(ledger.RewardStakingUnlock), stake.Amount)
	if err := s.cache.InvalidateWallets(ctx, ownerWallet); err != nil {
		s.log.Warn().Err(err).Str("wallet", ownerWallet).Msg("Failed to invalidate wallet cache")
	}

	s.log.Info().
		Int64("stake_id", stake.ID).
		Str("wallet", ownerWallet).
		Bool("forced", opts.Force).
		Msg("Stake unlocked")

	return stake, nil
}

func (s *stakingService) unlockTx(ctx context.Context, stakeID int64, opts UnlockOptions) (*ledger.Stake, string, error) {
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback()

	stake, err := s.repo.GetStakeForUpdateTx(ctx, tx, stakeID)
	if err != nil {
		return nil, "", err
	}

	if refusal := settlement.CheckUnlock(stake, now, opts.Force); refusal != nil {
		if refusal.AlreadyUnlocked {
			return nil, "", apperrors.NewStakeAlreadyUnlockedError(stakeID)
		}
		return nil, "", apperrors.NewStakeLockedError(stakeID, refusal.DaysRemaining)
	}

	owner, err := s.repo.GetUserForUpdateTx(ctx, tx, stake.UserID)
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.MarkStakeUnlockedTx(ctx, tx, stakeID, now, opts.MoveUnlockDate); err != nil {
		return nil, "", err
	}

	out := settlement.Unlock(stake, now)
	if _, err := s.repo.ApplyBalanceDeltaTx(ctx, tx, owner.ID, out.OwnerDelta); err != nil {
		return nil, "", err
	}
	if err := s.repo.CreateRewardTx(ctx, tx, &out.Reward); err != nil {
		return nil, "", err
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}

	stake.IsUnlocked = true
	stake.UnlockedAt = &now
	if opts.MoveUnlockDate {
		stake.UnlockDate = now
	}
	return stake, owner.WalletAddress, nil
}

// ListStakes возвращает стейки пользователя, новые первыми
func (s *stakingService) ListStakes(ctx context.Context, wallet string) (*models.StakeListResponse, error) {
	snap, _, err := cache.GetOrSet(ctx, s.cache, cache.StakesKey(wallet), func() (*stakeSnapshot, error) {
		user, err := s.repo.GetUserByWallet(ctx, wallet)
		if err != nil {
			if errors.Is(err, ledger.ErrUserNotFound) {
				return nil, apperrors.NewWalletNotFoundError(wallet)
			}
			return nil, apperrors.NewDatabaseError("get user", err)
		}

		stakes, err := s.repo.ListStakesByUser(ctx, user.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("list stakes", err)
		}

		counts, err := s.repo.CountStakes(ctx, user.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("count stakes", err)
		}

		return &stakeSnapshot{TotalStaked: user.TotalStaked, Counts: counts, Stakes: stakes}, nil
	})
	if err != nil {
		return nil, err
	}

	return mapper.ToStakeListResponse(snap.TotalStaked, snap.Counts, snap.Stakes, s.now()), nil
}

// mapTxError переводит ошибки репозитория в ошибки приложения
func (s *stakingService) mapTxError(err error, txHash string, stakeID int64) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, ledger.ErrDuplicateTxHash):
		return apperrors.NewDuplicateTxHashError(txHash)
	case errors.Is(err, ledger.ErrStakeNotFound):
		return apperrors.NewStakeNotFoundError(stakeID)
	case errors.Is(err, ledger.ErrStakeAlreadyUnlocked):
		return apperrors.NewStakeAlreadyUnlockedError(stakeID)
	case errors.Is(err, ledger.ErrUserNotFound):
		// владелец стейка удален вместе со стейком (ON DELETE CASCADE)
		return apperrors.NewStakeNotFoundError(stakeID)
	}
	return apperrors.NewTransactionError("stake settlement", err)
}
