package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"referral-staking-backend/internal/domain/ledger"
)

const qualifiedUserColumns = `u.id, u.wallet_address, u.wallet_type, u.referral_code, u.token_balance,
	u.total_earned, u.total_staked, u.created_at`

// filter collects WHERE clauses written with '?' placeholders; queries are rebound before use.
type filter struct {
	clauses []string
	args    []interface{}
}

func (f *filter) add(clause string, args ...interface{}) {
	f.clauses = append(f.clauses, clause)
	f.args = append(f.args, args...)
}

func (f *filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

func (r *LedgerRepository) count(ctx context.Context, from string, f *filter) (int, error) {
	var total int
	query := r.db.Rebind(`SELECT COUNT(*) ` + from + f.where())
	if err := r.db.GetContext(ctx, &total, query, f.args...); err != nil {
		return 0, err
	}
	return total, nil
}

// ListUsers возвращает пользователей с количеством рефералов
func (r *LedgerRepository) ListUsers(ctx context.Context, uf ledger.UserFilter) ([]ledger.UserSummary, int, error) {
	page := uf.Page.Normalize()

	f := &filter{}
	if uf.Search != "" {
		p := likePattern(uf.Search)
		f.add(`(u.wallet_address ILIKE ? OR u.referral_code ILIKE ?)`, p, p)
	}
	if uf.WalletType != "" {
		f.add(`u.wallet_type = ?`, uf.WalletType)
	}

	from := `FROM users u`
	total, err := r.count(ctx, from, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := r.db.Rebind(`
		SELECT ` + qualifiedUserColumns + `,
			(SELECT COUNT(*) FROM referrals rf WHERE rf.referrer_id = u.id) AS referral_count
		` + from + f.where() + `
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?`)

	users := []ledger.UserSummary{}
	args := append(f.args, page.PageSize, page.Offset())
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ListReferrals возвращает реферальные связи с адресами обеих сторон
func (r *LedgerRepository) ListReferrals(ctx context.Context, rf ledger.ReferralFilter) ([]ledger.ReferralView, int, error) {
	page := rf.Page.Normalize()

	f := &filter{}
	if rf.Search != "" {
		p := likePattern(rf.Search)
		f.add(`(ur.wallet_address ILIKE ? OR ur.referral_code ILIKE ? OR ue.wallet_address ILIKE ? OR ue.referral_code ILIKE ?)`,
			p, p, p, p)
	}
	if rf.BonusPaid != nil {
		f.add(`r.has_received_signup_bonus = ?`, *rf.BonusPaid)
	}

	from := `FROM referrals r
		JOIN users ur ON ur.id = r.referrer_id
		JOIN users ue ON ue.id = r.referee_id`
	total, err := r.count(ctx, from, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	query := r.db.Rebind(`
		SELECT r.id, r.referrer_id, r.referee_id, r.has_received_signup_bonus, r.created_at,
			ur.wallet_address AS referrer_wallet, ur.referral_code AS referrer_code,
			ue.wallet_address AS referee_wallet, ue.referral_code AS referee_code
		` + from + f.where() + `
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?`)

	refs := []ledger.ReferralView{}
	args := append(f.args, page.PageSize, page.Offset())
	if err := r.db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list referrals: %w", err)
	}
	return refs, total, nil
}

// ListStakes возвращает стейки с фильтром по оставшимся дням
func (r *LedgerRepository) ListStakes(ctx context.Context, sf ledger.StakeFilter) ([]ledger.StakeView, int, error) {
	page := sf.Page.Normalize()
	now := sf.Now
	if now.IsZero() {
		now = time.Now()
	}
	day := 24 * time.Hour

	f := &filter{}
	if sf.Search != "" {
		p := likePattern(sf.Search)
		f.add(`(u.wallet_address ILIKE ? OR s.tx_hash ILIKE ?)`, p, p)
	}
	if sf.IsUnlocked != nil {
		f.add(`s.is_unlocked = ?`, *sf.IsUnlocked)
	}
	switch sf.DaysRemaining {
	case ledger.BucketExpired:
		f.add(`NOT s.is_unlocked AND s.unlock_date <= ?`, now)
	case ledger.BucketLessThan30:
		f.add(`NOT s.is_unlocked AND s.unlock_date > ? AND s.unlock_date <= ?`, now, now.Add(30*day))
	case ledger.Bucket30To90:
		f.add(`NOT s.is_unlocked AND s.unlock_date > ? AND s.unlock_date <= ?`, now.Add(30*day), now.Add(90*day))
	case ledger.BucketMoreThan90:
		f.add(`NOT s.is_unlocked AND s.unlock_date > ?`, now.Add(90*day))
	}

	from := `FROM stakes s JOIN users u ON u.id = s.user_id`
	total, err := r.count(ctx, from, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stakes: %w", err)
	}

	query := r.db.Rebind(`
		SELECT s.id, s.user_id, s.amount, s.bonus_received, s.referrer_bonus, s.staked_at, s.unlock_date,
			s.is_unlocked, s.unlocked_at, s.tx_hash, u.wallet_address, u.referral_code
		` + from + f.where() + `
		ORDER BY s.staked_at DESC, s.id DESC
		LIMIT ? OFFSET ?`)

	stakes := []ledger.StakeView{}
	args := append(f.args, page.PageSize, page.Offset())
	if err := r.db.SelectContext(ctx, &stakes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list stakes: %w", err)
	}
	return stakes, total, nil
}

// ListRewards возвращает журнал наград
func (r *LedgerRepository) ListRewards(ctx context.Context, rf ledger.RewardFilter) ([]ledger.RewardView, int, error) {
	page := rf.Page.Normalize()

	f := &filter{}
	if rf.Search != "" {
		p := likePattern(rf.Search)
		f.add(`(u.wallet_address ILIKE ? OR u.referral_code ILIKE ?)`, p, p)
	}
	if rf.RewardType != "" {
		f.add(`rw.reward_type = ?`, rf.RewardType)
	}
	if rf.IsPaid != nil {
		f.add(`rw.is_paid = ?`, *rf.IsPaid)
	}

	from := `FROM rewards rw
		JOIN users u ON u.id = rw.user_id
		LEFT JOIN stakes s ON s.id = rw.related_stake_id`
	total, err := r.count(ctx, from, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	query := r.db.Rebind(`
		SELECT rw.id, rw.user_id, rw.amount, rw.reward_type, rw.related_stake_id, rw.related_referral_id,
			rw.is_paid, rw.paid_at, rw.created_at,
			u.wallet_address, u.referral_code, s.tx_hash AS stake_tx_hash
		` + from + f.where() + `
		ORDER BY rw.created_at DESC, rw.id DESC
		LIMIT ? OFFSET ?`)

	rewards := []ledger.RewardView{}
	args := append(f.args, page.PageSize, page.Offset())
	if err := r.db.SelectContext(ctx, &rewards, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, total, nil
}

// MarkRewardsPaid отмечает невыплаченные награды выплаченными. Балансы не меняются.
func (r *LedgerRepository) MarkRewardsPaid(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE rewards SET is_paid = TRUE, paid_at = $1 WHERE id = ANY($2) AND NOT is_paid`,
		at, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark rewards paid: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *LedgerRepository) GetDashboardTotals(ctx context.Context, dayStart, now time.Time) (*ledger.DashboardTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM referrals) AS total_referrals,
			(SELECT COUNT(*) FROM stakes) AS total_stakes,
			(SELECT COUNT(*) FROM rewards) AS total_rewards,
			(SELECT COALESCE(SUM(token_balance), 0) FROM users) AS total_token_balance,
			(SELECT COALESCE(SUM(total_staked), 0) FROM users) AS total_staked,
			(SELECT COALESCE(SUM(total_earned), 0) FROM users) AS total_earned,
			(SELECT COUNT(*) FROM stakes WHERE NOT is_unlocked) AS active_stakes,
			(SELECT COUNT(*) FROM stakes WHERE is_unlocked) AS unlocked_stakes,
			(SELECT COUNT(*) FROM stakes WHERE NOT is_unlocked AND unlock_date <= $2) AS unlockable_stakes,
			(SELECT COUNT(*) FROM users WHERE created_at >= $1) AS new_users_today,
			(SELECT COUNT(*) FROM stakes WHERE staked_at >= $1) AS new_stakes_today
	`
	var t ledger.DashboardTotals
	if err := r.db.GetContext(ctx, &t, query, dayStart, now); err != nil {
		return nil, fmt.Errorf("failed to get dashboard totals: %w", err)
	}
	return &t, nil
}

func (r *LedgerRepository) TopReferrers(ctx context.Context, limit int) ([]ledger.UserSummary, error) {
	query := `
		SELECT ` + qualifiedUserColumns + `, COUNT(rf.id) AS referral_count
		FROM users u
		JOIN referrals rf ON rf.referrer_id = u.id
		GROUP BY u.id
		ORDER BY referral_count DESC, u.id
		LIMIT $1
	`
	users := []ledger.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}
	return users, nil
}

func (r *LedgerRepository) TopStakers(ctx context.Context, limit int) ([]ledger.UserSummary, error) {
	query := `
		SELECT ` + qualifiedUserColumns + `,
			(SELECT COUNT(*) FROM referrals rf WHERE rf.referrer_id = u.id) AS referral_count
		FROM users u
		WHERE u.total_staked > 0
		ORDER BY u.total_staked DESC, u.id
		LIMIT $1
	`
	users := []ledger.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get top stakers: %w", err)
	}
	return users, nil
}

// MonthlyStakeReport группирует стейки по месяцам, последние months месяцев
func (r *LedgerRepository) MonthlyStakeReport(ctx context.Context, months int) ([]ledger.MonthlyStakeStat, error) {
	query := `
		SELECT date_trunc('month', staked_at) AS month,
			COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total
		FROM stakes
		WHERE staked_at >= date_trunc('month', NOW()) - make_interval(months => $1::int - 1)
		GROUP BY 1
		ORDER BY 1 DESC
	`
	stats := []ledger.MonthlyStakeStat{}
	if err := r.db.SelectContext(ctx, &stats, query, months); err != nil {
		return nil, fmt.Errorf("failed to build monthly report: %w", err)
	}
	return stats, nil
}
