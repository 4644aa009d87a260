package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bibliotheca/internal/core/config"
	"bibliotheca/internal/core/database"
	"bibliotheca/internal/domain"
	"bibliotheca/internal/repo"
	"bibliotheca/internal/service"
)

// testClock 可拨动的时钟，所有断言围绕固定时间展开
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *testClock) AdvanceDays(n int)       { c.t = c.t.AddDate(0, 0, n) }

var testRules = config.Circulation{
	MaxLoanDays:       14,
	FinePerDayCents:   25,
	MaxBooksPerMember: 5,
}

type env struct {
	db      *gorm.DB
	clock   *testClock
	circ    *service.CirculationService
	catalog *service.CatalogService
	members *service.MemberService
	admin   service.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.New(database.Opts{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Book{}, &domain.Member{}, &domain.Loan{}))

	log := zap.NewNop()
	books := repo.NewBookRepo(db)
	membersRepo := repo.NewMemberRepo(db)
	loans := repo.NewLoanRepo(db)

	clock := &testClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	return &env{
		db:      db,
		clock:   clock,
		circ:    service.NewCirculationService(db, log, testRules, books, membersRepo, loans).WithClock(clock.Now),
		catalog: service.NewCatalogService(db, log, books, loans),
		members: service.NewMemberService(db, log, membersRepo, loans),
		admin:   service.Actor{MemberID: "admin-actor", IsAdmin: true},
	}
}

func (e *env) addBook(t *testing.T, title, isbn string, qty int) *domain.Book {
	t.Helper()
	b, err := e.catalog.Add(context.Background(), e.admin, service.BookInput{
		Title:    title,
		Author:   "Test Author",
		ISBN:     isbn,
		Quantity: qty,
	})
	require.NoError(t, err)
	return b
}

func (e *env) addMember(t *testing.T, email string) *domain.Member {
	t.Helper()
	m, err := e.members.Register(context.Background(), service.RegisterInput{
		FirstName: "Test",
		LastName:  "Member",
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)
	return m
}

func (e *env) availability(t *testing.T, bookID string) int {
	t.Helper()
	b, err := e.catalog.Get(context.Background(), bookID)
	require.NoError(t, err)
	return b.AvailableQuantity
}
