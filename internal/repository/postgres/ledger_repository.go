package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"referral-staking-backend/internal/domain/ledger"
)

const (
	userColumns = `id, wallet_address, wallet_type, referral_code, token_balance, total_earned, total_staked, created_at`

	referralColumns = `id, referrer_id, referee_id, has_received_signup_bonus, created_at`

	stakeColumns = `id, user_id, amount, bonus_received, referrer_bonus, staked_at, unlock_date,
		is_unlocked, unlocked_at, tx_hash`

	uniqueViolation = "23505"
)

type LedgerRepository struct {
	db *sqlx.DB
}

type postgresTransaction struct {
	tx *sqlx.Tx
}

func (t *postgresTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *postgresTransaction) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// NewLedgerRepository returns the ledger store backed by PostgreSQL.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var (
	_ ledger.Repository      = (*LedgerRepository)(nil)
	_ ledger.AdminRepository = (*LedgerRepository)(nil)
)

func (r *LedgerRepository) BeginTx(ctx context.Context) (ledger.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresTransaction{tx: tx}, nil
}

func unwrapTx(tx ledger.Transaction) (*sqlx.Tx, error) {
	pt, ok := tx.(*postgresTransaction)
	if !ok {
		return nil, ledger.ErrInvalidTransaction
	}
	return pt.tx, nil
}

// isUniqueViolation reports a 23505 error, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// GetUserByWallet получает пользователя по адресу кошелька
func (r *LedgerRepository) GetUserByWallet(ctx context.Context, wallet string) (*ledger.User, error) {
	var u ledger.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, wallet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *LedgerRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE referral_code = $1)`, code)
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return exists, nil
}

func (r *LedgerRepository) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`, referrerID); err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return n, nil
}

// GetRewardBreakdown суммирует награды пользователя по типам
func (r *LedgerRepository) GetRewardBreakdown(ctx context.Context, userID int64) (ledger.RewardBreakdown, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE reward_type = 'signup_referral'), 0) AS from_signups,
			COALESCE(SUM(amount) FILTER (WHERE reward_type = 'staking_self'), 0) AS from_own_staking,
			COALESCE(SUM(amount) FILTER (WHERE reward_type = 'staking_referral'), 0) AS from_referral_staking
		FROM rewards
		WHERE user_id = $1
	`
	var b ledger.RewardBreakdown
	if err := r.db.GetContext(ctx, &b, query, userID); err != nil {
		return ledger.RewardBreakdown{}, fmt.Errorf("failed to get reward breakdown: %w", err)
	}
	return b, nil
}

// ListStakesByUser возвращает стейки пользователя, новые первыми
func (r *LedgerRepository) ListStakesByUser(ctx context.Context, userID int64) ([]ledger.Stake, error) {
	query := `SELECT ` + stakeColumns + ` FROM stakes WHERE user_id = $1 ORDER BY staked_at DESC, id DESC`
	stakes := []ledger.Stake{}
	if err := r.db.SelectContext(ctx, &stakes, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list stakes: %w", err)
	}
	return stakes, nil
}

func (r *LedgerRepository) CountStakes(ctx context.Context, userID int64) (ledger.StakeCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_unlocked) AS active,
			COUNT(*) FILTER (WHERE is_unlocked) AS completed
		FROM stakes
		WHERE user_id = $1
	`
	var c ledger.StakeCounts
	if err := r.db.GetContext(ctx, &c, query, userID); err != nil {
		return ledger.StakeCounts{}, fmt.Errorf("failed to count stakes: %w", err)
	}
	return c, nil
}

// InsertUserTx создает пользователя, если кошелек еще не зарегистрирован
func (r *LedgerRepository) InsertUserTx(ctx context.Context, tx ledger.Transaction, u *ledger.User) (bool, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO users (wallet_address, wallet_type, referral_code, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_address) DO NOTHING
		RETURNING id, token_balance, total_earned, total_staked, created_at
	`
	err = sqlTx.QueryRowxContext(ctx, query, u.WalletAddress, u.WalletType, u.ReferralCode, u.CreatedAt).
		Scan(&u.ID, &u.TokenBalance, &u.TotalEarned, &u.TotalStaked, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if isUniqueViolation(err, "users_referral_code_key") {
			return false, ledger.ErrDuplicateReferralCode
		}
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	return true, nil
}

func (r *LedgerRepository) getUserTx(ctx context.Context, tx ledger.Transaction, where string, arg interface{}, lock bool) (*ledger.User, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}

	var u ledger.User
	if err := sqlTx.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *LedgerRepository) GetUserForUpdateTx(ctx context.Context, tx ledger.Transaction, id int64) (*ledger.User, error) {
	return r.getUserTx(ctx, tx, `id = $1`, id, true)
}

func (r *LedgerRepository) GetUserByWalletForUpdateTx(ctx context.Context, tx ledger.Transaction, wallet string) (*ledger.User, error) {
	return r.getUserTx(ctx, tx, `wallet_address = $1`, wallet, true)
}

func (r *LedgerRepository) GetUserByReferralCodeTx(ctx context.Context, tx ledger.Transaction, code string) (*ledger.User, error) {
	return r.getUserTx(ctx, tx, `referral_code = $1`, code, false)
}

// ApplyBalanceDeltaTx атомарно прибавляет дельту к балансам пользователя
func (r *LedgerRepository) ApplyBalanceDeltaTx(ctx context.Context, tx ledger.Transaction, userID int64, d ledger.BalanceDelta) (*ledger.User, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET token_balance = token_balance + $2,
			total_earned = total_earned + $3,
			total_staked = total_staked + $4
		WHERE id = $1
		RETURNING ` + userColumns

	var u ledger.User
	if err := sqlTx.GetContext(ctx, &u, query, userID, d.TokenBalance, d.TotalEarned, d.TotalStaked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update balances: %w", err)
	}
	return &u, nil
}

func (r *LedgerRepository) CreateReferralTx(ctx context.Context, tx ledger.Transaction, ref *ledger.Referral) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO referrals (referrer_id, referee_id, has_received_signup_bonus, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err = sqlTx.QueryRowxContext(ctx, query, ref.ReferrerID, ref.RefereeID, ref.HasReceivedSignupBonus, ref.CreatedAt).
		Scan(&ref.ID)
	if err != nil {
		if isUniqueViolation(err, "referrals_referee_id_key") {
			return ledger.ErrReferralExists
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetReferralByRefereeTx(ctx context.Context, tx ledger.Transaction, refereeID int64) (*ledger.Referral, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	var ref ledger.Referral
	err = sqlTx.GetContext(ctx, &ref, `SELECT `+referralColumns+` FROM referrals WHERE referee_id = $1`, refereeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrReferralNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &ref, nil
}

// MarkSignupBonusPaidTx переводит флаг бонуса false -> true ровно один раз
func (r *LedgerRepository) MarkSignupBonusPaidTx(ctx context.Context, tx ledger.Transaction, referralID int64) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	res, err := sqlTx.ExecContext(ctx,
		`UPDATE referrals SET has_received_signup_bonus = TRUE WHERE id = $1 AND NOT has_received_signup_bonus`,
		referralID)
	if err != nil {
		return fmt.Errorf("failed to mark signup bonus: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ledger.ErrSignupBonusAlreadyPaid
	}
	return nil
}

func (r *LedgerRepository) CreateStakeTx(ctx context.Context, tx ledger.Transaction, s *ledger.Stake) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO stakes (user_id, amount, bonus_received, referrer_bonus, staked_at, unlock_date, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = sqlTx.QueryRowxContext(ctx, query,
		s.UserID, s.Amount, s.BonusReceived, s.ReferrerBonus, s.StakedAt, s.UnlockDate, s.TxHash).
		Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err, "uq_stakes_tx_hash") {
			return ledger.ErrDuplicateTxHash
		}
		return fmt.Errorf("failed to create stake: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetStakeForUpdateTx(ctx context.Context, tx ledger.Transaction, id int64) (*ledger.Stake, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	var s ledger.Stake
	if err := sqlTx.GetContext(ctx, &s, `SELECT `+stakeColumns+` FROM stakes WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrStakeNotFound
		}
		return nil, fmt.Errorf("failed to get stake: %w", err)
	}
	return &s, nil
}

func (r *LedgerRepository) MarkStakeUnlockedTx(ctx context.Context, tx ledger.Transaction, id int64, at time.Time, moveUnlockDate bool) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE stakes
		SET is_unlocked = TRUE,
			unlocked_at = $2,
			unlock_date = CASE WHEN $3::boolean THEN $2 ELSE unlock_date END
		WHERE id = $1 AND NOT is_unlocked
	`
	res, err := sqlTx.ExecContext(ctx, query, id, at, moveUnlockDate)
	if err != nil {
		return fmt.Errorf("failed to unlock stake: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ledger.ErrStakeAlreadyUnlocked
	}
	return nil
}

func (r *LedgerRepository) CreateRewardTx(ctx context.Context, tx ledger.Transaction, rw *ledger.Reward) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rewards (user_id, amount, reward_type, related_stake_id, related_referral_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = sqlTx.QueryRowxContext(ctx, query,
		rw.UserID, rw.Amount, rw.RewardType, rw.RelatedStakeID, rw.RelatedReferralID, rw.CreatedAt).
		Scan(&rw.ID)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}
