package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrStakeNotFound          = errors.New("stake not found")
	ErrReferralNotFound       = errors.New("referral not found")
	ErrDuplicateReferralCode  = errors.New("referral code already taken")
	ErrReferralExists         = errors.New("referee already has a referrer")
	ErrSignupBonusAlreadyPaid = errors.New("signup bonus already paid for referral")
	ErrStakeAlreadyUnlocked   = errors.New("stake already unlocked")
	ErrDuplicateTxHash        = errors.New("stake with tx hash already exists")
	ErrInvalidTransaction     = errors.New("invalid transaction type")
)

// Transaction is a unit of work spanning several rows. Rollback after Commit is a no-op.
type Transaction interface {
	Commit() error
	Rollback() error
}

// Repository is the ledger store used by the settlement flows.
// Methods with the Tx suffix run inside the given transaction; Get*ForUpdateTx lock the row.
type Repository interface {
	BeginTx(ctx context.Context) (Transaction, error)

	GetUserByWallet(ctx context.Context, wallet string) (*User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	CountReferrals(ctx context.Context, referrerID int64) (int, error)
	GetRewardBreakdown(ctx context.Context, userID int64) (RewardBreakdown, error)
	ListStakesByUser(ctx context.Context, userID int64) ([]Stake, error)
	CountStakes(ctx context.Context, userID int64) (StakeCounts, error)

	// InsertUserTx inserts u unless the wallet already exists; created is false in that case
	// and u is left untouched. A referral code clash returns ErrDuplicateReferralCode.
	InsertUserTx(ctx context.Context, tx Transaction, u *User) (created bool, err error)
	GetUserForUpdateTx(ctx context.Context, tx Transaction, id int64) (*User, error)
	GetUserByWalletForUpdateTx(ctx context.Context, tx Transaction, wallet string) (*User, error)
	GetUserByReferralCodeTx(ctx context.Context, tx Transaction, code string) (*User, error)
	ApplyBalanceDeltaTx(ctx context.Context, tx Transaction, userID int64, delta BalanceDelta) (*User, error)

	CreateReferralTx(ctx context.Context, tx Transaction, ref *Referral) error
	GetReferralByRefereeTx(ctx context.Context, tx Transaction, refereeID int64) (*Referral, error)
	MarkSignupBonusPaidTx(ctx context.Context, tx Transaction, referralID int64) error

	CreateStakeTx(ctx context.Context, tx Transaction, s *Stake) error
	GetStakeForUpdateTx(ctx context.Context, tx Transaction, id int64) (*Stake, error)
	// MarkStakeUnlockedTx flips is_unlocked once; when moveUnlockDate is set the
	// unlock_date is also moved to at. Returns ErrStakeAlreadyUnlocked on replay.
	MarkStakeUnlockedTx(ctx context.Context, tx Transaction, id int64, at time.Time, moveUnlockDate bool) error

	CreateRewardTx(ctx context.Context, tx Transaction, r *Reward) error
}

// AdminRepository backs the operator views.
type AdminRepository interface {
	ListUsers(ctx context.Context, f UserFilter) ([]UserSummary, int, error)
	ListReferrals(ctx context.Context, f ReferralFilter) ([]ReferralView, int, error)
	ListStakes(ctx context.Context, f StakeFilter) ([]StakeView, int, error)
	ListRewards(ctx context.Context, f RewardFilter) ([]RewardView, int, error)
	MarkRewardsPaid(ctx context.Context, ids []int64, at time.Time) (int64, error)
	GetDashboardTotals(ctx context.Context, dayStart, now time.Time) (*DashboardTotals, error)
	TopReferrers(ctx context.Context, limit int) ([]UserSummary, error)
	TopStakers(ctx context.Context, limit int) ([]UserSummary, error)
	MonthlyStakeReport(ctx context.Context, months int) ([]MonthlyStakeStat, error)
}
