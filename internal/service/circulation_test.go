package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotheca/internal/service"
)

func TestCheckoutDecrementsAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 3)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, e.availability(t, book.ID))
	assert.Equal(t, book.ID, loan.BookID)
	assert.Equal(t, member.ID, loan.MemberID)
	assert.True(t, loan.Active())
	assert.True(t, loan.DueDate.Equal(loan.CheckoutDate.AddDate(0, 0, testRules.MaxLoanDays)))
}

func TestCheckoutReturnRestoresAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 2)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, 1, e.availability(t, book.ID))

	returned, err := e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, e.availability(t, book.ID))
	assert.False(t, returned.Active())
	assert.Equal(t, int64(0), returned.FineCents)
}

func TestCheckoutLastCopyBlocksNextMember(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "The Name of the Wind", "9780756404741", 1)
	alice := e.addMember(t, "alice@example.com")
	bruno := e.addMember(t, "bruno@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 0, e.availability(t, book.ID))

	_, err = e.circ.Checkout(ctx, e.admin, book.ID, bruno.ID)
	assert.ErrorIs(t, err, service.ErrBookUnavailable)

	// 归还后再次可借
	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)
	_, err = e.circ.Checkout(ctx, e.admin, book.ID, bruno.ID)
	assert.NoError(t, err)
}

func TestCheckoutLoanLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	member := e.addMember(t, "reader@example.com")

	for i := 0; i < testRules.MaxBooksPerMember; i++ {
		b := e.addBook(t, fmt.Sprintf("Book %d", i), fmt.Sprintf("978000000000%d", i), 1)
		_, err := e.circ.Checkout(ctx, e.admin, b.ID, member.ID)
		require.NoError(t, err)
	}

	extra := e.addBook(t, "One Too Many", "9780000000099", 1)
	_, err := e.circ.Checkout(ctx, e.admin, extra.ID, member.ID)
	assert.ErrorIs(t, err, service.ErrLoanLimitExceeded)
}

func TestCheckoutBlockedByOverdueLoan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.addBook(t, "First", "9780000000001", 1)
	second := e.addBook(t, "Second", "9780000000002", 1)
	member := e.addMember(t, "reader@example.com")

	_, err := e.circ.Checkout(ctx, e.admin, first.ID, member.ID)
	require.NoError(t, err)

	e.clock.AdvanceDays(testRules.MaxLoanDays + 1)

	_, err = e.circ.Checkout(ctx, e.admin, second.ID, member.ID)
	assert.ErrorIs(t, err, service.ErrMemberHasOverdueBooks)
}

func TestCheckoutInactiveMember(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	inactive := false
	_, err := e.members.Update(ctx, e.admin, member.ID, service.UpdateMemberInput{
		FirstName: member.FirstName,
		LastName:  member.LastName,
		IsActive:  &inactive,
	})
	require.NoError(t, err)

	_, err = e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	assert.ErrorIs(t, err, service.ErrMemberInactive)
}

func TestCheckoutUnknownIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	_, err := e.circ.Checkout(ctx, e.admin, book.ID, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = e.circ.Checkout(ctx, e.admin, "missing", member.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestReturnLateSettlesFine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)

	// 借期 14 天，第 20 天归还：迟 6 天，每天 25 分
	e.clock.AdvanceDays(20)
	returned, err := e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(150), returned.FineCents)
	assert.False(t, returned.FinePaid)
	assert.True(t, returned.OverdueAt(e.clock.Now()))
}

func TestReturnTwice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 2)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)
	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyReturned)
	// 重复归还不得再加在架量
	assert.Equal(t, 2, e.availability(t, book.ID))
}

func TestRenewExtendsDueDate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)

	e.clock.AdvanceDays(10)
	renewed, err := e.circ.Renew(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	// 以原到期日为基准顺延，而不是续借当天
	assert.True(t, renewed.DueDate.Equal(loan.DueDate.AddDate(0, 0, testRules.MaxLoanDays)))
	// 可用量不受续借影响
	assert.Equal(t, 0, e.availability(t, book.ID))
}

func TestRenewRejectedWhenOverdue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)

	e.clock.AdvanceDays(testRules.MaxLoanDays + 1)
	_, err = e.circ.Renew(ctx, e.admin, loan.ID)
	assert.ErrorIs(t, err, service.ErrRenewalBlockedOverdue)

	got, err := e.circ.Get(ctx, e.admin, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.DueDate.Equal(loan.DueDate))
}

func TestRenewRejectedAfterReturn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)
	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	_, err = e.circ.Renew(ctx, e.admin, loan.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyReturned)
}

func TestPayFineIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	member := e.addMember(t, "reader@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, member.ID)
	require.NoError(t, err)
	e.clock.AdvanceDays(testRules.MaxLoanDays + 4)
	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	paid, err := e.circ.PayFine(ctx, e.admin, loan.ID)
	require.NoError(t, err)
	assert.True(t, paid.FinePaid)
	assert.Equal(t, int64(100), paid.FineCents)

	again, err := e.circ.PayFine(ctx, e.admin, loan.ID)
	require.NoError(t, err)
	assert.True(t, again.FinePaid)
	assert.Equal(t, int64(100), again.FineCents)
}

func TestMemberScopedAccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 2)
	alice := e.addMember(t, "alice@example.com")
	bruno := e.addMember(t, "bruno@example.com")

	aliceActor := service.Actor{MemberID: alice.ID}
	brunoActor := service.Actor{MemberID: bruno.ID}

	loan, err := e.circ.Checkout(ctx, aliceActor, book.ID, alice.ID)
	require.NoError(t, err)

	// 为他人办借出、看他人记录都被拒
	_, err = e.circ.Checkout(ctx, aliceActor, book.ID, bruno.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	_, err = e.circ.Get(ctx, brunoActor, loan.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	_, err = e.circ.Return(ctx, brunoActor, loan.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	// 列表强制只看自己
	_, err = e.circ.Checkout(ctx, brunoActor, book.ID, bruno.ID)
	require.NoError(t, err)
	ls, total, err := e.circ.List(ctx, brunoActor, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, ls, 1)
	assert.Equal(t, bruno.ID, ls[0].MemberID)

	// 罚金结清只属于管理端
	_, err = e.circ.PayFine(ctx, aliceActor, loan.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestOverdueListing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	early := e.addBook(t, "Early", "9780000000001", 1)
	late := e.addBook(t, "Late", "9780000000002", 1)
	member := e.addMember(t, "reader@example.com")

	first, err := e.circ.Checkout(ctx, e.admin, early.ID, member.ID)
	require.NoError(t, err)
	e.clock.AdvanceDays(2)
	_, err = e.circ.Checkout(ctx, e.admin, late.ID, member.ID)
	require.NoError(t, err)

	e.clock.AdvanceDays(testRules.MaxLoanDays + 1)
	ls, err := e.circ.Overdue(ctx, e.admin)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	// 到期最早的排前
	assert.Equal(t, first.ID, ls[0].ID)

	has, err := e.circ.HasOverdue(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFineCents(t *testing.T) {
	due := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		ret  time.Time
		want int64
	}{
		{"early", due.AddDate(0, 0, -2), 0},
		{"on the due instant", due, 0},
		{"hours late, under a day", due.Add(20 * time.Hour), 0},
		{"one day late", due.AddDate(0, 0, 1), 25},
		{"six days late", due.AddDate(0, 0, 6), 150},
		{"thirty days late", due.AddDate(0, 0, 30), 750},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.FineCents(due, tc.ret, 25))
		})
	}

	// 单调性：归还越晚罚金不减
	prev := int64(-1)
	for d := 0; d <= 40; d++ {
		got := service.FineCents(due, due.AddDate(0, 0, d), 25)
		require.GreaterOrEqual(t, got, prev)
		prev = got
	}
}
