// Package ledgertest provides an in-memory ledger.Repository for service tests.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"referral-staking-backend/internal/domain/ledger"
)

type state struct {
	users     map[int64]ledger.User
	referrals map[int64]ledger.Referral
	stakes    map[int64]ledger.Stake
	rewards   map[int64]ledger.Reward
	nextID    int64
}

func (s *state) clone() *state {
	c := &state{
		users:     make(map[int64]ledger.User, len(s.users)),
		referrals: make(map[int64]ledger.Referral, len(s.referrals)),
		stakes:    make(map[int64]ledger.Stake, len(s.stakes)),
		rewards:   make(map[int64]ledger.Reward, len(s.rewards)),
		nextID:    s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.referrals {
		c.referrals[k] = v
	}
	for k, v := range s.stakes {
		c.stakes[k] = v
	}
	for k, v := range s.rewards {
		c.rewards[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is a transactional in-memory ledger. Transactions are serialized and
// see a private copy of the state until Commit.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   *state

	// FailOn makes the named Tx method return the error once.
	FailOn map[string]error
}

func New() *Store {
	return &Store{
		st: &state{
			users:     map[int64]ledger.User{},
			referrals: map[int64]ledger.Referral{},
			stakes:    map[int64]ledger.Stake{},
			rewards:   map[int64]ledger.Reward{},
		},
		FailOn: map[string]error{},
	}
}

type memTx struct {
	store *Store
	work  *state
	done  bool
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.store.mu.Lock()
	t.store.st = t.work
	t.store.mu.Unlock()
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (s *Store) BeginTx(ctx context.Context) (ledger.Transaction, error) {
	s.txMu.Lock()
	s.mu.Lock()
	work := s.st.clone()
	s.mu.Unlock()
	return &memTx{store: s, work: work}, nil
}

func (s *Store) work(tx ledger.Transaction, op string) (*state, error) {
	mt, ok := tx.(*memTx)
	if !ok || mt.done {
		return nil, ledger.ErrInvalidTransaction
	}
	s.mu.Lock()
	err, fail := s.FailOn[op]
	if fail {
		delete(s.FailOn, op)
	}
	s.mu.Unlock()
	if fail {
		return nil, err
	}
	return mt.work, nil
}

func (s *Store) read() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Snapshot helpers for assertions.

func (s *Store) Users() []ledger.User {
	st := s.read()
	out := make([]ledger.User, 0, len(st.users))
	for _, u := range st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Referrals() []ledger.Referral {
	st := s.read()
	out := make([]ledger.Referral, 0, len(st.referrals))
	for _, r := range st.referrals {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Stakes() []ledger.Stake {
	st := s.read()
	out := make([]ledger.Stake, 0, len(st.stakes))
	for _, v := range st.stakes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Rewards() []ledger.Reward {
	st := s.read()
	out := make([]ledger.Reward, 0, len(st.rewards))
	for _, v := range st.rewards {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UserByWallet returns the stored user or the zero value.
func (s *Store) UserByWallet(wallet string) ledger.User {
	for _, u := range s.Users() {
		if u.WalletAddress == wallet {
			return u
		}
	}
	return ledger.User{}
}

// SetStakeUnlockDate moves a stake's maturity, for time travel in tests.
func (s *Store) SetStakeUnlockDate(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.st.clone()
	v := st.stakes[id]
	v.UnlockDate = at
	st.stakes[id] = v
	s.st = st
}

func (s *Store) GetUserByWallet(ctx context.Context, wallet string) (*ledger.User, error) {
	for _, u := range s.read().users {
		if u.WalletAddress == wallet {
			u := u
			return &u, nil
		}
	}
	return nil, ledger.ErrUserNotFound
}

func (s *Store) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	for _, u := range s.read().users {
		if u.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	n := 0
	for _, r := range s.read().referrals {
		if r.ReferrerID == referrerID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetRewardBreakdown(ctx context.Context, userID int64) (ledger.RewardBreakdown, error) {
	b := ledger.RewardBreakdown{FromSignups: decimal.Zero, FromOwnStaking: decimal.Zero, FromReferralStaking: decimal.Zero}
	for _, r := range s.read().rewards {
		if r.UserID != userID {
			continue
		}
		switch r.RewardType {
		case ledger.RewardSignupReferral:
			b.FromSignups = b.FromSignups.Add(r.Amount)
		case ledger.RewardStakingSelf:
			b.FromOwnStaking = b.FromOwnStaking.Add(r.Amount)
		case ledger.RewardStakingReferral:
			b.FromReferralStaking = b.FromReferralStaking.Add(r.Amount)
		}
	}
	return b, nil
}

func (s *Store) ListStakesByUser(ctx context.Context, userID int64) ([]ledger.Stake, error) {
	out := []ledger.Stake{}
	for _, v := range s.read().stakes {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StakedAt.Equal(out[j].StakedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StakedAt.After(out[j].StakedAt)
	})
	return out, nil
}

func (s *Store) CountStakes(ctx context.Context, userID int64) (ledger.StakeCounts, error) {
	var c ledger.StakeCounts
	for _, v := range s.read().stakes {
		if v.UserID != userID {
			continue
		}
		if v.IsUnlocked {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c, nil
}

func (s *Store) InsertUserTx(ctx context.Context, tx ledger.Transaction, u *ledger.User) (bool, error) {
	st, err := s.work(tx, "InsertUserTx")
	if err != nil {
		return false, err
	}
	for _, existing := range st.users {
		if existing.WalletAddress == u.WalletAddress {
			return false, nil
		}
		if existing.ReferralCode == u.ReferralCode {
			return false, ledger.ErrDuplicateReferralCode
		}
	}
	u.ID = st.id()
	u.TokenBalance, u.TotalEarned, u.TotalStaked = decimal.Zero, decimal.Zero, decimal.Zero
	st.users[u.ID] = *u
	return true, nil
}

func (s *Store) GetUserForUpdateTx(ctx context.Context, tx ledger.Transaction, id int64) (*ledger.User, error) {
	st, err := s.work(tx, "GetUserForUpdateTx")
	if err != nil {
		return nil, err
	}
	u, ok := st.users[id]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByWalletForUpdateTx(ctx context.Context, tx ledger.Transaction, wallet string) (*ledger.User, error) {
	st, err := s.work(tx, "GetUserByWalletForUpdateTx")
	if err != nil {
		return nil, err
	}
	for _, u := range st.users {
		if u.WalletAddress == wallet {
			u := u
			return &u, nil
		}
	}
	return nil, ledger.ErrUserNotFound
}

func (s *Store) GetUserByReferralCodeTx(ctx context.Context, tx ledger.Transaction, code string) (*ledger.User, error) {
	st, err := s.work(tx, "GetUserByReferralCodeTx")
	if err != nil {
		return nil, err
	}
	for _, u := range st.users {
		if u.ReferralCode == code {
			u := u
			return &u, nil
		}
	}
	return nil, ledger.ErrUserNotFound
}

func (s *Store) ApplyBalanceDeltaTx(ctx context.Context, tx ledger.Transaction, userID int64, d ledger.BalanceDelta) (*ledger.User, error) {
	st, err := s.work(tx, "ApplyBalanceDeltaTx")
	if err != nil {
		return nil, err
	}
	u, ok := st.users[userID]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	u.TokenBalance = u.TokenBalance.Add(d.TokenBalance)
	u.TotalEarned = u.TotalEarned.Add(d.TotalEarned)
	u.TotalStaked = u.TotalStaked.Add(d.TotalStaked)
	st.users[userID] = u
	return &u, nil
}

func (s *Store) CreateReferralTx(ctx context.Context, tx ledger.Transaction, ref *ledger.Referral) error {
	st, err := s.work(tx, "CreateReferralTx")
	if err != nil {
		return err
	}
	for _, r := range st.referrals {
		if r.RefereeID == ref.RefereeID {
			return ledger.ErrReferralExists
		}
	}
	ref.ID = st.id()
	st.referrals[ref.ID] = *ref
	return nil
}

func (s *Store) GetReferralByRefereeTx(ctx context.Context, tx ledger.Transaction, refereeID int64) (*ledger.Referral, error) {
	st, err := s.work(tx, "GetReferralByRefereeTx")
	if err != nil {
		return nil, err
	}
	for _, r := range st.referrals {
		if r.RefereeID == refereeID {
			r := r
			return &r, nil
		}
	}
	return nil, ledger.ErrReferralNotFound
}

func (s *Store) MarkSignupBonusPaidTx(ctx context.Context, tx ledger.Transaction, referralID int64) error {
	st, err := s.work(tx, "MarkSignupBonusPaidTx")
	if err != nil {
		return err
	}
	r, ok := st.referrals[referralID]
	if !ok {
		return ledger.ErrReferralNotFound
	}
	if r.HasReceivedSignupBonus {
		return ledger.ErrSignupBonusAlreadyPaid
	}
	r.HasReceivedSignupBonus = true
	st.referrals[referralID] = r
	return nil
}

func (s *Store) CreateStakeTx(ctx context.Context, tx ledger.Transaction, v *ledger.Stake) error {
	st, err := s.work(tx, "CreateStakeTx")
	if err != nil {
		return err
	}
	if v.TxHash != "" {
		for _, existing := range st.stakes {
			if existing.TxHash == v.TxHash {
				return ledger.ErrDuplicateTxHash
			}
		}
	}
	v.ID = st.id()
	st.stakes[v.ID] = *v
	return nil
}

func (s *Store) GetStakeForUpdateTx(ctx context.Context, tx ledger.Transaction, id int64) (*ledger.Stake, error) {
	st, err := s.work(tx, "GetStakeForUpdateTx")
	if err != nil {
		return nil, err
	}
	v, ok := st.stakes[id]
	if !ok {
		return nil, ledger.ErrStakeNotFound
	}
	return &v, nil
}

func (s *Store) MarkStakeUnlockedTx(ctx context.Context, tx ledger.Transaction, id int64, at time.Time, moveUnlockDate bool) error {
	st, err := s.work(tx, "MarkStakeUnlockedTx")
	if err != nil {
		return err
	}
	v, ok := st.stakes[id]
	if !ok || v.IsUnlocked {
		return ledger.ErrStakeAlreadyUnlocked
	}
	v.IsUnlocked = true
	v.UnlockedAt = &at
	if moveUnlockDate {
		v.UnlockDate = at
	}
	st.stakes[id] = v
	return nil
}

func (s *Store) CreateRewardTx(ctx context.Context, tx ledger.Transaction, r *ledger.Reward) error {
	st, err := s.work(tx, "CreateRewardTx")
	if err != nil {
		return err
	}
	r.ID = st.id()
	st.rewards[r.ID] = *r
	return nil
}

var _ ledger.Repository = (*Store)(nil)
