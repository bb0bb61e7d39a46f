package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-staking-backend/internal/domain/ledger"
)

var userCols = []string{"id", "wallet_address", "wallet_type", "referral_code", "token_balance", "total_earned", "total_staked", "created_at"}

func newMockRepo(t *testing.T) (*LedgerRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLedgerRepository(sqlx.NewDb(db, "postgres")), mock
}

func beginMockTx(t *testing.T, repo *LedgerRepository, mock sqlmock.Sqlmock) ledger.Transaction {
	t.Helper()
	mock.ExpectBegin()
	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)
	return tx
}

func TestGetUserByWallet(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE wallet_address = $1`)).
		WithArgs("0xabc").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "0xabc", "ethereum", "CODE123456", "8.00000000", "8.00000000", "100.00000000", now))

	u, err := repo.GetUserByWallet(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, ledger.WalletTypeEthereum, u.WalletType)
	assert.True(t, decimal.NewFromInt(100).Equal(u.TotalStaked))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE wallet_address = $1`)).
		WithArgs("0xnone").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err = repo.GetUserByWallet(context.Background(), "0xnone")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUserTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (wallet_address) DO NOTHING`)).
		WithArgs("0xnew", ledger.WalletTypeTON, "ABCDEFGHIJ", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token_balance", "total_earned", "total_staked", "created_at"}).
			AddRow(42, "0", "0", "0", now))

	u := &ledger.User{WalletAddress: "0xnew", WalletType: ledger.WalletTypeTON, ReferralCode: "ABCDEFGHIJ", CreatedAt: now}
	created, err := repo.InsertUserTx(context.Background(), tx, u)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(42), u.ID)

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (wallet_address) DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token_balance", "total_earned", "total_staked", "created_at"}))

	created, err = repo.InsertUserTx(context.Background(), tx, &ledger.User{WalletAddress: "0xnew"})
	require.NoError(t, err)
	assert.False(t, created)

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (wallet_address) DO NOTHING`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_referral_code_key"})

	_, err = repo.InsertUserTx(context.Background(), tx, &ledger.User{WalletAddress: "0xother"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateReferralCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBalanceDeltaTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)

	delta := ledger.BalanceDelta{
		TokenBalance: decimal.NewFromInt(5),
		TotalEarned:  decimal.NewFromInt(5),
		TotalStaked:  decimal.NewFromInt(100),
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SET token_balance = token_balance + $2`)).
		WithArgs(int64(7), delta.TokenBalance, delta.TotalEarned, delta.TotalStaked).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "0x7", "ethereum", "CODE777777", "5", "5", "100", time.Now()))

	u, err := repo.ApplyBalanceDeltaTx(context.Background(), tx, 7, delta)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(u.TotalStaked))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStakeTxDuplicateHash(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stakes`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_stakes_tx_hash"})

	err := repo.CreateStakeTx(context.Background(), tx, &ledger.Stake{UserID: 1, Amount: decimal.NewFromInt(1), TxHash: "0xdup"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateTxHash)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stakes`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	s := &ledger.Stake{UserID: 1, Amount: decimal.NewFromInt(1)}
	require.NoError(t, repo.CreateStakeTx(context.Background(), tx, s))
	assert.Equal(t, int64(9), s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkStakeUnlockedTxOnlyOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND NOT is_unlocked`)).
		WithArgs(int64(3), at, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkStakeUnlockedTx(context.Background(), tx, 3, at, false))

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND NOT is_unlocked`)).
		WithArgs(int64(3), at, true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkStakeUnlockedTx(context.Background(), tx, 3, at, true)
	assert.ErrorIs(t, err, ledger.ErrStakeAlreadyUnlocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSignupBonusPaidTx(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)

	mock.ExpectExec(regexp.QuoteMeta(`SET has_received_signup_bonus = TRUE`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSignupBonusPaidTx(context.Background(), tx, 4)
	assert.ErrorIs(t, err, ledger.ErrSignupBonusAlreadyPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRewardBreakdown(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM rewards`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"from_signups", "from_own_staking", "from_referral_staking"}).
			AddRow("3.00000000", "0", "5.00000000"))

	b, err := repo.GetRewardBreakdown(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(b.FromSignups))
	assert.True(t, decimal.NewFromInt(5).Equal(b.EarnedFromStaking()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)

	mock.ExpectCommit()
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

type foreignTx struct{}

func (foreignTx) Commit() error   { return nil }
func (foreignTx) Rollback() error { return nil }

func TestTxMethodsRejectForeignTransaction(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.GetStakeForUpdateTx(context.Background(), foreignTx{}, 1)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransaction))
}

func TestMarkRewardsPaid(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rewards SET is_paid = TRUE`)).
		WithArgs(at, pq.Array([]int64{1, 2, 3})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MarkRewardsPaid(context.Background(), []int64{1, 2, 3}, at)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.MarkRewardsPaid(context.Background(), nil, at)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithSearch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users u WHERE (u.wallet_address ILIKE $1 OR u.referral_code ILIKE $2) AND u.wallet_type = $3`)).
		WithArgs("%0x\\_a%", "%0x\\_a%", ledger.WalletTypeNeo).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cols := append(append([]string{}, userCols...), "referral_count")
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $4 OFFSET $5`)).
		WithArgs("%0x\\_a%", "%0x\\_a%", ledger.WalletTypeNeo, 10, 10).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, "0x_a", "neo", "NEOCODE123", "0", "0", "0", time.Now(), 2))

	users, total, err := repo.ListUsers(context.Background(), ledger.UserFilter{
		Search:     "0x_a",
		WalletType: ledger.WalletTypeNeo,
		Page:       ledger.Page{Page: 2, PageSize: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, 2, users[0].ReferralCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

var stakeCols = []string{"id", "user_id", "amount", "bonus_received", "referrer_bonus", "staked_at", "unlock_date", "is_unlocked", "unlocked_at", "tx_hash"}

func TestGetUserForUpdateTxLocksRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(4, "0xD", "ton", "DDDDDDDDDD", "1.00000000", "1.00000000", "0", now))

	u, err := repo.GetUserForUpdateTx(context.Background(), tx, 4)
	require.NoError(t, err)
	assert.Equal(t, "0xD", u.WalletAddress)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE wallet_address = $1 FOR UPDATE`)).
		WithArgs("0xnone").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err = repo.GetUserByWalletForUpdateTx(context.Background(), tx, "0xnone")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStakeForUpdateTxLocksRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := beginMockTx(t, repo, mock)
	stakedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM stakes WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(stakeCols).
			AddRow(11, 4, "100.00000000", "5.00000000", "0", stakedAt, stakedAt.AddDate(0, 0, 365), false, nil, "0xhash"))

	s, err := repo.GetStakeForUpdateTx(context.Background(), tx, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.UserID)
	assert.True(t, decimal.NewFromInt(100).Equal(s.Amount))
	assert.False(t, s.IsUnlocked)
	assert.Nil(t, s.UnlockedAt)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM stakes WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(stakeCols))

	_, err = repo.GetStakeForUpdateTx(context.Background(), tx, 12)
	assert.ErrorIs(t, err, ledger.ErrStakeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
