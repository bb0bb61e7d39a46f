package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "referral-staking-backend/internal/common/errors"
	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/domain/ledger/ledgertest"
	stakingservice "referral-staking-backend/internal/features/staking/service"
	"referral-staking-backend/internal/settlement"
)

type fakeAdminRepo struct {
	userFilter  ledger.UserFilter
	stakeFilter ledger.StakeFilter
	paidIDs     []int64
	dayStart    time.Time
	err         error
}

func (f *fakeAdminRepo) ListUsers(ctx context.Context, uf ledger.UserFilter) ([]ledger.UserSummary, int, error) {
	f.userFilter = uf
	return nil, 0, f.err
}

func (f *fakeAdminRepo) ListReferrals(ctx context.Context, rf ledger.ReferralFilter) ([]ledger.ReferralView, int, error) {
	return []ledger.ReferralView{{ReferrerWallet: "0xA", RefereeWallet: "0xB"}}, 1, f.err
}

func (f *fakeAdminRepo) ListStakes(ctx context.Context, sf ledger.StakeFilter) ([]ledger.StakeView, int, error) {
	f.stakeFilter = sf
	return nil, 0, f.err
}

func (f *fakeAdminRepo) ListRewards(ctx context.Context, rf ledger.RewardFilter) ([]ledger.RewardView, int, error) {
	return nil, 0, f.err
}

func (f *fakeAdminRepo) MarkRewardsPaid(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	f.paidIDs = ids
	return int64(len(ids)), f.err
}

func (f *fakeAdminRepo) GetDashboardTotals(ctx context.Context, dayStart, now time.Time) (*ledger.DashboardTotals, error) {
	f.dayStart = dayStart
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.DashboardTotals{TotalUsers: 4, TotalStakes: 2, TotalStaked: decimal.NewFromInt(150), ActiveStakes: 1, UnlockedStakes: 1}, nil
}

func (f *fakeAdminRepo) TopReferrers(ctx context.Context, limit int) ([]ledger.UserSummary, error) {
	return []ledger.UserSummary{{User: ledger.User{WalletAddress: "0xA"}, ReferralCount: 3}}, nil
}

func (f *fakeAdminRepo) TopStakers(ctx context.Context, limit int) ([]ledger.UserSummary, error) {
	return nil, nil
}

func (f *fakeAdminRepo) MonthlyStakeReport(ctx context.Context, months int) ([]ledger.MonthlyStakeStat, error) {
	return nil, f.err
}

var _ ledger.AdminRepository = (*fakeAdminRepo)(nil)

var testNow = time.Date(2025, 6, 15, 18, 45, 0, 0, time.UTC)

func TestListNormalizesPaging(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, nil, func() time.Time { return testNow })

	page, err := svc.ListUsers(context.Background(), ledger.UserFilter{Page: ledger.Page{Page: 0, PageSize: 1000}})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.userFilter.Page.Page)
	assert.Equal(t, ledger.MaxPageSize, repo.userFilter.Page.PageSize)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)

	refs, err := svc.ListReferrals(context.Background(), ledger.ReferralFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, refs.Total)
	assert.Equal(t, ledger.DefaultPageSize, refs.PageSize)
}

func TestListStakesValidatesBucket(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, nil, func() time.Time { return testNow })

	_, err := svc.ListStakes(context.Background(), ledger.StakeFilter{DaysRemaining: "soon"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.ListStakes(context.Background(), ledger.StakeFilter{DaysRemaining: ledger.BucketLessThan30})
	require.NoError(t, err)
	assert.Equal(t, testNow, repo.stakeFilter.Now)

	_, err = svc.ListRewards(context.Background(), ledger.RewardFilter{RewardType: "bonus"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestRepositoryErrorsAreDatabaseErrors(t *testing.T) {
	repo := &fakeAdminRepo{err: errors.New("boom")}
	svc := NewAdminService(repo, nil, nil)

	_, err := svc.ListUsers(context.Background(), ledger.UserFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
	_, err = svc.Dashboard(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
	_, err = svc.MonthlyReport(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
}

func TestDashboard(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, nil, func() time.Time { return testNow })

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), repo.dayStart)
	assert.Equal(t, 4, d.TotalUsers)
	assert.Equal(t, 2, d.TotalStakings)
	assert.True(t, decimal.NewFromInt(150).Equal(d.TotalStakedAmount))
	require.Len(t, d.TopReferrers, 1)
	assert.Equal(t, 3, d.TopReferrers[0].ReferralCount)
	assert.NotNil(t, d.TopStakers)
}

func TestMarkRewardsPaidDeduplicates(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, nil, nil)

	resp, err := svc.MarkRewardsPaid(context.Background(), []int64{3, 1, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, repo.paidIDs)
	assert.Equal(t, int64(3), resp.Updated)
}

func TestUnlockStakesSettlesAndSkips(t *testing.T) {
	store := ledgertest.New()
	now := testNow
	staking := stakingservice.NewStakingService(store, settlement.DefaultPolicy(), nil, stakingservice.Options{
		Now: func() time.Time { return now },
	})

	ctx := context.Background()
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	_, err = store.InsertUserTx(ctx, tx, &ledger.User{WalletAddress: "0xB", WalletType: ledger.WalletTypeEthereum, ReferralCode: "BBBBBBBBBB"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var ids []int64
	for _, amt := range []string{"10", "20"} {
		resp, err := staking.CreateStake(ctx, stakingservice.CreateStakeInput{WalletAddress: "0xB", Amount: amt})
		require.NoError(t, err)
		ids = append(ids, resp.StakingID)
	}

	svc := NewAdminService(&fakeAdminRepo{}, staking, func() time.Time { return now })

	resp, err := svc.UnlockStakes(ctx, []int64{ids[0], ids[0], 9999}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Requested)
	assert.Equal(t, 1, resp.Unlocked)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "STAKE_NOT_FOUND", resp.Skipped[0].Reason)

	resp, err = svc.UnlockStakes(ctx, ids, true)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Unlocked)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "STAKE_ALREADY_UNLOCKED", resp.Skipped[0].Reason)

	assert.True(t, store.UserByWallet("0xB").TotalStaked.IsZero())
	stakes := store.Stakes()
	require.Len(t, stakes, 2)
	// mark-unlocked keeps the maturity date, force-unlock moves it
	assert.Equal(t, now.Add(365*24*time.Hour), stakes[0].UnlockDate)
	assert.Equal(t, now, stakes[1].UnlockDate)

	unlockRewards := 0
	for _, r := range store.Rewards() {
		if r.RewardType == ledger.RewardStakingUnlock {
			unlockRewards++
		}
	}
	assert.Equal(t, 2, unlockRewards)
}
