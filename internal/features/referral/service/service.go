package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"referral-staking-backend/internal/common/cache"
	apperrors "referral-staking-backend/internal/common/errors"
	"referral-staking-backend/internal/common/logger"
	"referral-staking-backend/internal/common/metrics"
	"referral-staking-backend/internal/common/validation"
	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/referral/mapper"
	"referral-staking-backend/internal/features/referral/models"
	"referral-staking-backend/internal/settlement"
	"referral-staking-backend/internal/utils/random"
)

// maxRegisterAttempts bounds retries after a referral code race on insert.
const maxRegisterAttempts = 3

type referralService struct {
	repo   ledger.Repository
	policy settlement.Policy
	cache  *cache.CacheService
	opts   Options
	log    zerolog.Logger
}

// NewReferralService wires registration and stats. cache may be nil.
func NewReferralService(repo ledger.Repository, policy settlement.Policy, c *cache.CacheService, opts Options) ReferralService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &referralService{
		repo:   repo,
		policy: policy,
		cache:  c,
		opts:   opts,
		log:    logger.Component("referral"),
	}
}

// Register возвращает существующего пользователя или создает нового и
// начисляет бонус пригласившему в одной транзакции.
func (s *referralService) Register(ctx context.Context, in RegisterInput) (*models.SaveWalletResponse, error) {
	if err := validation.ValidateWalletType(in.WalletType); err != nil {
		return nil, apperrors.NewValidationError("wallet_type", err.Error())
	}
	walletType := ledger.WalletType(in.WalletType)
	if walletType == "" {
		walletType = ledger.DefaultWalletType
	}
	if err := validation.ValidateWalletAddress(in.WalletAddress, walletType, s.opts.StrictValidation); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWallet, err.Error()).
			WithDetail("field", "wallet_address").
			WithWallet(in.WalletAddress)
	}

	existing, err := s.repo.GetUserByWallet(ctx, in.WalletAddress)
	if err == nil {
		return mapper.ToSaveWalletResponse(existing, false), nil
	}
	if !errors.Is(err, ledger.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	for attempt := 1; ; attempt++ {
		code, err := random.UniqueReferralCode(ctx, s.repo.ReferralCodeExists)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate referral code")
		}

		resp, err := s.registerTx(ctx, in.WalletAddress, walletType, code, in.ReferralCode)
		if errors.Is(err, ledger.ErrDuplicateReferralCode) {
			if attempt < maxRegisterAttempts {
				s.log.Debug().Int("attempt", attempt).Msg("Referral code taken concurrently, retrying")
				continue
			}
			metrics.RecordSettlement("signup", "refused")
			return nil, apperrors.NewConflictError("referral_code", "could not allocate a unique referral code")
		}
		if err != nil {
			metrics.RecordSettlement("signup", "failed")
			if appErr, ok := apperrors.AsAppError(err); ok {
				return nil, appErr
			}
			return nil, apperrors.NewTransactionError("register wallet", err)
		}
		return resp, nil
	}
}

func (s *referralService) registerTx(ctx context.Context, wallet string, walletType ledger.WalletType, code, inviteCode string) (*models.SaveWalletResponse, error) {
	now := s.opts.Now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user := &ledger.User{
		WalletAddress: wallet,
		WalletType:    walletType,
		ReferralCode:  code,
		CreatedAt:     now,
	}
	created, err := s.repo.InsertUserTx(ctx, tx, user)
	if err != nil {
		return nil, err
	}
	if !created {
		// another request registered the wallet first
		existing, err := s.repo.GetUserByWalletForUpdateTx(ctx, tx, wallet)
		if err != nil {
			return nil, err
		}
		return mapper.ToSaveWalletResponse(existing, false), nil
	}

	resp := mapper.ToSaveWalletResponse(user, true)

	var (
		referrerWallet string
		signup         settlement.SignupOutcome
	)
	if inviteCode != "" {
		given := false
		resp.ReferrerBonusGiven = &given

		referrer, err := s.lookupReferrer(ctx, tx, inviteCode)
		if err != nil {
			return nil, err
		}
		if referrer != nil {
			signup, err = s.settleSignup(ctx, tx, referrer, user, now)
			if err != nil {
				return nil, err
			}
			given = true
			received := signup.Reward.Amount
			resp.ReferrerReceived = &received
			referrerWallet = referrer.WalletAddress
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.RecordSettlement("signup", "committed")
	if referrerWallet != "" {
		metrics.RecordReward(string(ledger.RewardSignupReferral), signup.Reward.Amount)
		if err := s.cache.InvalidateWallets(ctx, referrerWallet); err != nil {
			s.log.Warn().Err(err).Str("wallet", referrerWallet).Msg("Failed to invalidate stats cache")
		}
	}

	s.log.Info().
		Str("wallet", wallet).
		Str("wallet_type", string(walletType)).
		Bool("referred", referrerWallet != "").
		Msg("Wallet registered")

	return resp, nil
}

// lookupReferrer returns nil without error when the code is unknown.
func (s *referralService) lookupReferrer(ctx context.Context, tx ledger.Transaction, code string) (*ledger.User, error) {
	if !validation.IsValidReferralCode(code) {
		return nil, nil
	}
	referrer, err := s.repo.GetUserByReferralCodeTx(ctx, tx, code)
	if errors.Is(err, ledger.ErrUserNotFound) {
		return nil, nil
	}
	return referrer, err
}

func (s *referralService) settleSignup(ctx context.Context, tx ledger.Transaction, referrer, referee *ledger.User, now time.Time) (settlement.SignupOutcome, error) {
	ref := &ledger.Referral{
		ReferrerID: referrer.ID,
		RefereeID:  referee.ID,
		CreatedAt:  now,
	}
	if err := s.repo.CreateReferralTx(ctx, tx, ref); err != nil {
		return settlement.SignupOutcome{}, err
	}
	if err := s.repo.MarkSignupBonusPaidTx(ctx, tx, ref.ID); err != nil {
		return settlement.SignupOutcome{}, err
	}

	out := s.policy.Signup(referrer.ID, ref.ID, now)
	if _, err := s.repo.ApplyBalanceDeltaTx(ctx, tx, referrer.ID, out.ReferrerDelta); err != nil {
		return settlement.SignupOutcome{}, err
	}
	if err := s.repo.CreateRewardTx(ctx, tx, &out.Reward); err != nil {
		return settlement.SignupOutcome{}, err
	}
	return out, nil
}

// GetStats возвращает агрегаты пользователя, с кэшем в Redis
func (s *referralService) GetStats(ctx context.Context, wallet string) (*models.UserStatsResponse, error) {
	stats, _, err := cache.GetOrSet(ctx, s.cache, cache.StatsKey(wallet), func() (*models.UserStatsResponse, error) {
		user, err := s.repo.GetUserByWallet(ctx, wallet)
		if err != nil {
			if errors.Is(err, ledger.ErrUserNotFound) {
				return nil, apperrors.NewWalletNotFoundError(wallet)
			}
			return nil, apperrors.NewDatabaseError("get user", err)
		}

		referrals, err := s.repo.CountReferrals(ctx, user.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("count referrals", err)
		}

		breakdown, err := s.repo.GetRewardBreakdown(ctx, user.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("reward breakdown", err)
		}

		return mapper.ToUserStatsResponse(user, referrals, breakdown, s.opts.BaseURL), nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
