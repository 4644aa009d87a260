package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bibliotheca/internal/domain"
	"bibliotheca/internal/repo"
	"bibliotheca/pkg/utils"
)

// MemberService manages member accounts and credentials.
type MemberService struct {
	db      *gorm.DB
	log     *zap.Logger
	members *repo.MemberRepo
	loans   *repo.LoanRepo
}

func NewMemberService(db *gorm.DB, log *zap.Logger, members *repo.MemberRepo, loans *repo.LoanRepo) *MemberService {
	return &MemberService{db: db, log: log, members: members, loans: loans}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
}

// Register creates a regular active member account (self-service signup).
func (s *MemberService) Register(ctx context.Context, in RegisterInput) (*domain.Member, error) {
	return s.create(ctx, in, true, false)
}

// Add creates a member on behalf of an admin, with explicit flags.
func (s *MemberService) Add(ctx context.Context, actor Actor, in RegisterInput, isActive, isAdmin bool) (*domain.Member, error) {
	if err := Can(actor, ActionManageMembers, ""); err != nil {
		return nil, err
	}
	return s.create(ctx, in, isActive, isAdmin)
}

func (s *MemberService) create(ctx context.Context, in RegisterInput, isActive, isAdmin bool) (*domain.Member, error) {
	db := s.db.WithContext(ctx)

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.members.GetByEmail(db, email); err == nil {
		return nil, ErrDuplicateKey
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	m := &domain.Member{
		ID:           utils.NewID(),
		MemberNo:     utils.NewMemberNo(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Address:      in.Address,
		IsActive:     isActive,
		IsAdmin:      isAdmin,
	}
	if err := s.members.Create(db, m); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	s.log.Info("member created",
		zap.String("member_id", m.ID),
		zap.String("member_no", m.MemberNo),
		zap.Bool("admin", m.IsAdmin),
	)
	return m, nil
}

// Authenticate checks credentials and rejects inactive accounts.
func (s *MemberService) Authenticate(ctx context.Context, email, password string) (*domain.Member, error) {
	m, err := s.members.GetByEmail(s.db.WithContext(ctx), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, m.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !m.IsActive {
		return nil, ErrMemberInactive
	}
	return m, nil
}

// Get returns one member; members may look at themselves, admins at anyone.
func (s *MemberService) Get(ctx context.Context, actor Actor, id string) (*domain.Member, error) {
	if err := Can(actor, ActionViewMember, id); err != nil {
		return nil, err
	}
	m, err := s.members.GetByID(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return m, nil
}

type UpdateMemberInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Address     string
	NewPassword string // empty means keep
	IsActive    *bool  // admin only
	IsAdmin     *bool  // admin only
}

// Update edits a profile. Only admins may flip is_active / is_admin.
func (s *MemberService) Update(ctx context.Context, actor Actor, id string, in UpdateMemberInput) (*domain.Member, error) {
	if err := Can(actor, ActionEditMember, id); err != nil {
		return nil, err
	}

	var updated *domain.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.members.GetByID(tx, id)
		if err != nil {
			return notFoundOr(err)
		}

		email := strings.ToLower(strings.TrimSpace(in.Email))
		if email != "" && email != m.Email {
			if _, err := s.members.GetByEmail(tx, email); err == nil {
				return ErrDuplicateKey
			} else if !isNotFound(err) {
				return err
			}
			m.Email = email
		}

		m.FirstName = in.FirstName
		m.LastName = in.LastName
		m.Phone = in.Phone
		m.Address = in.Address

		if in.NewPassword != "" {
			hash, err := utils.HashPassword(in.NewPassword)
			if err != nil {
				return err
			}
			m.PasswordHash = hash
		}

		if actor.IsAdmin {
			if in.IsActive != nil {
				m.IsActive = *in.IsActive
			}
			if in.IsAdmin != nil {
				m.IsAdmin = *in.IsAdmin
			}
		}

		if err := s.members.Save(tx, m); err != nil {
			if isDupKey(err) {
				return ErrDuplicateKey
			}
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("member updated", zap.String("member_id", id))
	return updated, nil
}

// Delete removes a member account. Rejected while the member still holds
// active loans; returned loan history goes with the account.
func (s *MemberService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := Can(actor, ActionManageMembers, ""); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.members.GetByID(tx, id); err != nil {
			return notFoundOr(err)
		}
		active, err := s.loans.CountActiveByMember(tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrHasActiveLoans
		}
		if err := s.loans.DeleteByMember(tx, id); err != nil {
			return err
		}
		return s.members.SoftDelete(tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("member deleted", zap.String("member_id", id))
	return nil
}

func (s *MemberService) List(ctx context.Context, actor Actor, offset, limit int) ([]domain.Member, int64, error) {
	if err := Can(actor, ActionManageMembers, ""); err != nil {
		return nil, 0, err
	}
	return s.members.List(s.db.WithContext(ctx), offset, limit)
}

func (s *MemberService) Search(ctx context.Context, actor Actor, query string, offset, limit int) ([]domain.Member, int64, error) {
	if err := Can(actor, ActionManageMembers, ""); err != nil {
		return nil, 0, err
	}
	return s.members.Search(s.db.WithContext(ctx), query, offset, limit)
}
