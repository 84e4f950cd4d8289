package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fintrack/fintrack/internal/model"
)

// storeSuite runs the same contract against any Store backend.
type storeSuite struct {
	suite.Suite
	ctx   context.Context
	store Store
	open  func(t *testing.T) Store
	seq   int
}

func (s *storeSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.open(s.T())
}

func (s *storeSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *storeSuite) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), s.seq)
}

func (s *storeSuite) newUser(name string) *model.User {
	id := s.nextID("user")
	user := &model.User{
		ID:           id,
		Username:     name + "-" + id,
		Email:        id + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.CreateUser(s.ctx, user))
	return user
}

func (s *storeSuite) newRecord(owner *model.User, kind model.Kind, amount string, date time.Time) *model.Record {
	r := &model.Record{
		ID:        s.nextID(string(kind)),
		UserID:    owner.ID,
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		Date:      date,
		Label:     "label",
		Category:  model.CategoryOther,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.CreateRecord(s.ctx, r))
	return r
}

func (s *storeSuite) TestCreateUser_RoundTrip() {
	user := s.newUser("alice")

	byEmail, err := s.store.GetUserByEmail(s.ctx, user.Email)
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)
	s.Equal(user.Username, byEmail.Username)
	s.Equal(user.PasswordHash, byEmail.PasswordHash)
	s.True(user.CreatedAt.Equal(byEmail.CreatedAt))

	byID, err := s.store.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, byID.Email)
}

func (s *storeSuite) TestGetUser_NotFound() {
	_, err := s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, ErrUserNotFound)

	_, err = s.store.GetUserByID(s.ctx, "missing")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *storeSuite) TestCreateUser_DuplicateEmail() {
	user := s.newUser("bob")

	dup := &model.User{
		ID:           s.nextID("user"),
		Username:     "someone-else",
		Email:        user.Email,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	s.ErrorIs(s.store.CreateUser(s.ctx, dup), ErrEmailExists)
}

func (s *storeSuite) TestCreateUser_DuplicateUsername() {
	user := s.newUser("carol")

	dup := &model.User{
		ID:           s.nextID("user"),
		Username:     user.Username,
		Email:        "other-" + user.Email,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	s.ErrorIs(s.store.CreateUser(s.ctx, dup), ErrUsernameExists)
}

func (s *storeSuite) TestListRecords_OrderedByDateDesc() {
	owner := s.newUser("dave")
	base := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	mid := s.newRecord(owner, model.KindExpense, "10.50", base)
	old := s.newRecord(owner, model.KindExpense, "3", base.AddDate(0, -1, 0))
	recent := s.newRecord(owner, model.KindExpense, "7.25", base.AddDate(0, 0, 3))

	got, err := s.store.ListRecordsByOwner(s.ctx, model.KindExpense, owner.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 3)

	s.Equal([]string{recent.ID, mid.ID, old.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	s.Equal("10.5", got[1].Amount.String())
	s.Equal(model.KindExpense, got[1].Kind)
	s.True(got[1].Date.Equal(base))
}

func (s *storeSuite) TestListRecords_EmptyIsNotNil() {
	owner := s.newUser("erin")

	got, err := s.store.ListRecordsByOwner(s.ctx, model.KindIncome, owner.ID)
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *storeSuite) TestRecords_KindsAreSeparate() {
	owner := s.newUser("frank")
	s.newRecord(owner, model.KindIncome, "100", time.Now().UTC())

	expenses, err := s.store.ListRecordsByOwner(s.ctx, model.KindExpense, owner.ID)
	s.Require().NoError(err)
	s.Empty(expenses)

	incomes, err := s.store.ListRecordsByOwner(s.ctx, model.KindIncome, owner.ID)
	s.Require().NoError(err)
	s.Len(incomes, 1)
}

func (s *storeSuite) TestRecords_OwnerIsolation() {
	u1 := s.newUser("u1")
	u2 := s.newUser("u2")

	r := s.newRecord(u1, model.KindInvestment, "500", time.Now().UTC())

	other, err := s.store.ListRecordsByOwner(s.ctx, model.KindInvestment, u2.ID)
	s.Require().NoError(err)
	s.Empty(other)

	s.ErrorIs(s.store.DeleteRecordByOwner(s.ctx, model.KindInvestment, u2.ID, r.ID), ErrRecordNotFound)

	mine, err := s.store.ListRecordsByOwner(s.ctx, model.KindInvestment, u1.ID)
	s.Require().NoError(err)
	s.Len(mine, 1, "a foreign delete must not remove the record")
}

func (s *storeSuite) TestDeleteRecord() {
	owner := s.newUser("gina")
	r := s.newRecord(owner, model.KindExpense, "1", time.Now().UTC())

	s.Require().NoError(s.store.DeleteRecordByOwner(s.ctx, model.KindExpense, owner.ID, r.ID))
	s.ErrorIs(s.store.DeleteRecordByOwner(s.ctx, model.KindExpense, owner.ID, r.ID), ErrRecordNotFound)
	s.ErrorIs(s.store.DeleteRecordByOwner(s.ctx, model.KindExpense, owner.ID, "does-not-exist"), ErrRecordNotFound)
}

func (s *storeSuite) TestDeleteRecord_WrongKind() {
	owner := s.newUser("hank")
	r := s.newRecord(owner, model.KindExpense, "1", time.Now().UTC())

	s.ErrorIs(s.store.DeleteRecordByOwner(s.ctx, model.KindIncome, owner.ID, r.ID), ErrRecordNotFound)
}

func (s *storeSuite) TestInvalidKind() {
	owner := s.newUser("ivy")

	_, err := s.store.ListRecordsByOwner(s.ctx, model.Kind("transfer"), owner.ID)
	s.ErrorIs(err, ErrInvalidKind)

	err = s.store.CreateRecord(s.ctx, &model.Record{ID: "x", UserID: owner.ID, Kind: "transfer"})
	s.ErrorIs(err, ErrInvalidKind)
}

func (s *storeSuite) TestCreateRecord_UnknownOwner() {
	r := &model.Record{
		ID:        s.nextID("expense"),
		UserID:    "ghost",
		Kind:      model.KindExpense,
		Amount:    decimal.NewFromInt(1),
		Date:      time.Now().UTC(),
		Label:     "x",
		Category:  model.CategoryFood,
		CreatedAt: time.Now().UTC(),
	}
	s.Error(s.store.CreateRecord(s.ctx, r))
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &storeSuite{
		open: func(t *testing.T) Store {
			store, err := NewSQLite(context.Background(), ":memory:")
			require.NoError(t, err)
			return store
		},
	})
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql://localhost/db", Options{})
	assert.Error(t, err)
}

func TestOpen_SQLiteMemory(t *testing.T) {
	t.Parallel()

	store, err := Open(context.Background(), "sqlite::memory:", Options{})
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestSQLitePath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"sqlite::memory:":         ":memory:",
		"sqlite://fintrack.db":    "fintrack.db",
		"sqlite:///var/lib/ft.db": "/var/lib/ft.db",
		"sqlite:relative/path.db": "relative/path.db",
	}

	for in, want := range tests {
		assert.Equal(t, want, sqlitePath(in), in)
	}
}
