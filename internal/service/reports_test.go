package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bibliotheca/internal/service"
)

func newReports(e *env) *service.ReportService {
	return service.NewReportService(e.db, zap.NewNop(), nil).WithClock(e.clock.Now)
}

// 铺一份固定账本：
//   - popular 借出两次（一次已还）
//   - idle 从未被借出，且在架量为 0 的只有 lastcopy
//   - alice 有一条逾期在借，bruno 一切正常
func seedLedger(t *testing.T, e *env) (popularID string) {
	t.Helper()
	ctx := context.Background()

	popular := e.addBook(t, "Popular", "9780000000001", 2)
	e.addBook(t, "Idle", "9780000000002", 1)
	lastcopy := e.addBook(t, "Last Copy", "9780000000003", 1)
	alice := e.addMember(t, "alice@example.com")
	bruno := e.addMember(t, "bruno@example.com")

	_, err := e.circ.Checkout(ctx, e.admin, popular.ID, alice.ID)
	require.NoError(t, err)

	loan, err := e.circ.Checkout(ctx, e.admin, popular.ID, bruno.ID)
	require.NoError(t, err)
	e.clock.AdvanceDays(2)
	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	_, err = e.circ.Checkout(ctx, e.admin, lastcopy.ID, bruno.ID)
	require.NoError(t, err)

	// alice 的那条转入逾期
	e.clock.AdvanceDays(testRules.MaxLoanDays)
	return popular.ID
}

func TestCirculationStatsReport(t *testing.T) {
	e := newEnv(t)
	popularID := seedLedger(t, e)
	reports := newReports(e)

	out, err := reports.CirculationStats(context.Background(), e.admin, 30)
	require.NoError(t, err)

	assert.Equal(t, int64(3), out.TotalCheckouts)
	assert.Equal(t, int64(1), out.TotalReturns)
	assert.Equal(t, int64(2), out.ActiveLoans)
	assert.Equal(t, int64(1), out.OverdueLoans)
	assert.Equal(t, int64(0), out.FinesCollectedCents)

	require.NotEmpty(t, out.PopularBooks)
	assert.Equal(t, popularID, out.PopularBooks[0].BookID)
	assert.Equal(t, int64(2), out.PopularBooks[0].LoanCount)
}

func TestMemberActivityReport(t *testing.T) {
	e := newEnv(t)
	seedLedger(t, e)
	reports := newReports(e)

	out, err := reports.MemberActivity(context.Background(), e.admin, 30)
	require.NoError(t, err)

	require.NotEmpty(t, out.MostActive)
	assert.Equal(t, "bruno@example.com", out.MostActive[0].Email)
	assert.Equal(t, int64(2), out.MostActive[0].Count)
	assert.Equal(t, "Test Member", out.MostActive[0].Name)

	require.Len(t, out.WithOverdue, 1)
	assert.Equal(t, "alice@example.com", out.WithOverdue[0].Email)
	assert.Equal(t, int64(2), out.NewMembers)
}

func TestInventoryReport(t *testing.T) {
	e := newEnv(t)
	seedLedger(t, e)
	reports := newReports(e)

	out, err := reports.Inventory(context.Background(), e.admin)
	require.NoError(t, err)

	assert.Equal(t, int64(4), out.TotalCopies)
	assert.Equal(t, int64(3), out.UniqueTitles)
	assert.Equal(t, int64(1), out.NeverLoaned)
	require.Len(t, out.Unavailable, 1)
	assert.Equal(t, "Last Copy", out.Unavailable[0].Title)
}

func TestDashboardReport(t *testing.T) {
	e := newEnv(t)
	seedLedger(t, e)
	reports := newReports(e)

	out, err := reports.Dashboard(context.Background(), e.admin)
	require.NoError(t, err)

	assert.Equal(t, int64(4), out.TotalBooks)
	assert.Equal(t, int64(2), out.TotalMembers)
	assert.Equal(t, int64(2), out.ActiveLoans)
	assert.Equal(t, int64(1), out.OverdueLoans)
}

func TestReportsRequireAdmin(t *testing.T) {
	e := newEnv(t)
	reports := newReports(e)
	member := service.Actor{MemberID: "m1"}
	ctx := context.Background()

	_, err := reports.Dashboard(ctx, member)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	_, err = reports.CirculationStats(ctx, member, 30)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	_, err = reports.MemberActivity(ctx, member, 30)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	_, err = reports.Inventory(ctx, member)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}
