package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotheca/internal/domain"
	"bibliotheca/internal/service"
)

func TestRegisterNormalizesEmailAndRejectsDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.members.Register(ctx, service.RegisterInput{
		FirstName: "Alice",
		LastName:  "Reader",
		Email:     "  Alice@Example.COM ",
		Password:  "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", m.Email)
	assert.True(t, m.IsActive)
	assert.False(t, m.IsAdmin)
	assert.Regexp(t, `^MEM[0-9A-F]{8}$`, m.MemberNo)

	_, err = e.members.Register(ctx, service.RegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "alice@example.com",
		Password:  "secret456",
	})
	assert.ErrorIs(t, err, service.ErrDuplicateKey)
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.addMember(t, "alice@example.com")

	got, err := e.members.Authenticate(ctx, "Alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = e.members.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = e.members.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	inactive := false
	_, err = e.members.Update(ctx, e.admin, m.ID, service.UpdateMemberInput{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		IsActive:  &inactive,
	})
	require.NoError(t, err)
	_, err = e.members.Authenticate(ctx, "alice@example.com", "secret123")
	assert.ErrorIs(t, err, service.ErrMemberInactive)
}

func TestMemberUpdateFlagsAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.addMember(t, "alice@example.com")

	self := service.Actor{MemberID: m.ID}
	yes := true
	updated, err := e.members.Update(ctx, self, m.ID, service.UpdateMemberInput{
		FirstName: "Alicia",
		LastName:  m.LastName,
		Phone:     "555-0100",
		IsAdmin:   &yes, // 普通成员改不了自己的角色
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.False(t, updated.IsAdmin)

	updated, err = e.members.Update(ctx, e.admin, m.ID, service.UpdateMemberInput{
		FirstName: updated.FirstName,
		LastName:  updated.LastName,
		IsAdmin:   &yes,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
}

func TestMemberUpdatePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.addMember(t, "alice@example.com")

	_, err := e.members.Update(ctx, service.Actor{MemberID: m.ID}, m.ID, service.UpdateMemberInput{
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		NewPassword: "changed456",
	})
	require.NoError(t, err)

	_, err = e.members.Authenticate(ctx, m.Email, "secret123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = e.members.Authenticate(ctx, m.Email, "changed456")
	assert.NoError(t, err)
}

func TestMemberViewScoped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.addMember(t, "alice@example.com")
	bruno := e.addMember(t, "bruno@example.com")

	_, err := e.members.Get(ctx, service.Actor{MemberID: alice.ID}, bruno.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, _, err = e.members.List(ctx, service.Actor{MemberID: alice.ID}, 0, 10)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	got, err := e.members.Get(ctx, service.Actor{MemberID: alice.ID}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
}

func TestMemberDeleteGuardedByActiveLoan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.addBook(t, "Dune", "9780441013593", 1)
	m := e.addMember(t, "alice@example.com")

	loan, err := e.circ.Checkout(ctx, e.admin, book.ID, m.ID)
	require.NoError(t, err)

	err = e.members.Delete(ctx, e.admin, m.ID)
	assert.ErrorIs(t, err, service.ErrHasActiveLoans)

	_, err = e.circ.Return(ctx, e.admin, loan.ID)
	require.NoError(t, err)

	require.NoError(t, e.members.Delete(ctx, e.admin, m.ID))
	_, err = e.members.Get(ctx, e.admin, m.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.circ.Get(ctx, e.admin, loan.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMemberSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.members.Register(ctx, service.RegisterInput{
		FirstName: "Alice", LastName: "Okafor", Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	_, err = e.members.Register(ctx, service.RegisterInput{
		FirstName: "Bruno", LastName: "Silva", Email: "bruno@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	ms, total, err := e.members.Search(ctx, e.admin, "okaf", 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "Alice", ms[0].FirstName)

	_, total, err = e.members.Search(ctx, e.admin, "example.com", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestAdminAddMemberFlags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.members.Add(ctx, e.admin, service.RegisterInput{
		FirstName: "Staff", LastName: "Member", Email: "staff@example.com", Password: "secret123",
	}, false, true)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	assert.True(t, m.IsAdmin)
	assert.Equal(t, domain.RoleAdmin, m.Role())

	_, err = e.members.Add(ctx, service.Actor{MemberID: "pleb"}, service.RegisterInput{
		FirstName: "X", LastName: "Y", Email: "x@example.com", Password: "secret123",
	}, true, false)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}
