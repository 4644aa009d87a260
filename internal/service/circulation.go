package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bibliotheca/internal/core/config"
	"bibliotheca/internal/domain"
	"bibliotheca/internal/repo"
	"bibliotheca/pkg/utils"
)

// CirculationService is the circulation rule engine: it validates and
// executes checkout, return and renewal transitions and computes fines.
// Every mutation runs in one transaction so the loan row and the book's
// availability counter commit together or not at all.
type CirculationService struct {
	db      *gorm.DB
	log     *zap.Logger
	rules   config.Circulation
	books   *repo.BookRepo
	members *repo.MemberRepo
	loans   *repo.LoanRepo
	now     func() time.Time
}

func NewCirculationService(
	db *gorm.DB,
	log *zap.Logger,
	rules config.Circulation,
	books *repo.BookRepo,
	members *repo.MemberRepo,
	loans *repo.LoanRepo,
) *CirculationService {
	return &CirculationService{
		db:      db,
		log:     log,
		rules:   rules,
		books:   books,
		members: members,
		loans:   loans,
		now:     time.Now,
	}
}

// WithClock replaces the engine's clock. Used by tests; production code
// never calls it.
func (s *CirculationService) WithClock(now func() time.Time) *CirculationService {
	s.now = now
	return s
}

// Checkout lends a book to a member.
//
// Preconditions, checked in order inside the transaction:
//   - member exists and is active
//   - member holds fewer than MaxBooksPerMember active loans
//   - member has no overdue active loan
//   - the book has an available copy
//
// The availability decrement is a guarded UPDATE (available_quantity > 0),
// so two concurrent checkouts of the last copy cannot both succeed.
func (s *CirculationService) Checkout(ctx context.Context, actor Actor, bookID, memberID string) (*domain.Loan, error) {
	if err := Can(actor, ActionCheckout, memberID); err != nil {
		return nil, err
	}

	var loan *domain.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.members.GetByID(tx, memberID)
		if err != nil {
			return notFoundOr(err)
		}
		if !member.IsActive {
			return ErrMemberInactive
		}
		if _, err := s.books.GetByID(tx, bookID); err != nil {
			return notFoundOr(err)
		}

		now := s.now().UTC()

		active, err := s.loans.CountActiveByMember(tx, memberID)
		if err != nil {
			return err
		}
		if active >= int64(s.rules.MaxBooksPerMember) {
			return ErrLoanLimitExceeded
		}

		overdue, err := s.loans.CountOverdueByMember(tx, memberID, now)
		if err != nil {
			return err
		}
		if overdue > 0 {
			return ErrMemberHasOverdueBooks
		}

		rows, err := s.books.DecrementAvailable(tx, bookID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrBookUnavailable
		}

		loan = &domain.Loan{
			ID:           utils.NewID(),
			BookID:       bookID,
			MemberID:     memberID,
			CheckoutDate: now,
			DueDate:      now.AddDate(0, 0, s.rules.MaxLoanDays),
		}
		return s.loans.Create(tx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout",
		zap.String("loan_id", loan.ID),
		zap.String("book_id", bookID),
		zap.String("member_id", memberID),
		zap.Time("due", loan.DueDate),
	)
	return loan, nil
}

// Return closes an active loan: stamps the return date, settles the fine
// once, and puts the copy back on the shelf. Returning twice fails with
// ErrAlreadyReturned and changes nothing.
func (s *CirculationService) Return(ctx context.Context, actor Actor, loanID string) (*domain.Loan, error) {
	var returned *domain.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loan, err := s.loans.GetByID(tx, loanID)
		if err != nil {
			return notFoundOr(err)
		}
		if err := Can(actor, ActionReturn, loan.MemberID); err != nil {
			return err
		}
		if loan.ReturnDate != nil {
			return ErrAlreadyReturned
		}

		now := s.now().UTC()
		fine := FineCents(loan.DueDate, now, s.rules.FinePerDayCents)

		rows, err := s.loans.MarkReturned(tx, loan.ID, now, fine)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyReturned
		}

		rows, err = s.books.IncrementAvailable(tx, loan.BookID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// 在架量已到馆藏上限，钳制不再加，留痕排查
			s.log.Warn("availability already at quantity on return",
				zap.String("book_id", loan.BookID), zap.String("loan_id", loan.ID))
		}

		returned, err = s.loans.GetByID(tx, loan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("return",
		zap.String("loan_id", returned.ID),
		zap.String("book_id", returned.BookID),
		zap.Int64("fine_cents", returned.FineCents),
	)
	return returned, nil
}

// Renew extends an active, not-yet-overdue loan by another MaxLoanDays.
func (s *CirculationService) Renew(ctx context.Context, actor Actor, loanID string) (*domain.Loan, error) {
	var renewed *domain.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loan, err := s.loans.GetByID(tx, loanID)
		if err != nil {
			return notFoundOr(err)
		}
		if err := Can(actor, ActionRenewLoan, loan.MemberID); err != nil {
			return err
		}
		if loan.ReturnDate != nil {
			return ErrAlreadyReturned
		}
		if s.now().UTC().After(loan.DueDate) {
			return ErrRenewalBlockedOverdue
		}

		newDue := loan.DueDate.AddDate(0, 0, s.rules.MaxLoanDays)
		rows, err := s.loans.ExtendDue(tx, loan.ID, newDue)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyReturned
		}

		renewed, err = s.loans.GetByID(tx, loan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("renew",
		zap.String("loan_id", renewed.ID),
		zap.Time("due", renewed.DueDate),
	)
	return renewed, nil
}

// PayFine settles an outstanding fine. Idempotent: a loan with no unpaid
// fine is returned unchanged.
func (s *CirculationService) PayFine(ctx context.Context, actor Actor, loanID string) (*domain.Loan, error) {
	if err := Can(actor, ActionPayFine, ""); err != nil {
		return nil, err
	}
	loan, err := s.loans.GetByID(s.db.WithContext(ctx), loanID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if loan.FineCents == 0 || loan.FinePaid {
		return loan, nil
	}
	if _, err := s.loans.MarkFinePaid(s.db.WithContext(ctx), loanID); err != nil {
		return nil, err
	}
	loan.FinePaid = true
	return loan, nil
}

// Get returns one loan, subject to the view policy.
func (s *CirculationService) Get(ctx context.Context, actor Actor, loanID string) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(s.db.WithContext(ctx), loanID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := Can(actor, ActionViewLoan, loan.MemberID); err != nil {
		return nil, err
	}
	return loan, nil
}

// List pages through circulation records, newest checkout first. Plain
// members only ever see their own records regardless of the filter.
func (s *CirculationService) List(ctx context.Context, actor Actor, memberID string, offset, limit int) ([]domain.Loan, int64, error) {
	if !actor.IsAdmin {
		memberID = actor.MemberID
	}
	return s.loans.List(s.db.WithContext(ctx), memberID, offset, limit)
}

// Overdue lists active loans past their due date, soonest-due first.
func (s *CirculationService) Overdue(ctx context.Context, actor Actor) ([]domain.Loan, error) {
	memberID := ""
	if !actor.IsAdmin {
		memberID = actor.MemberID
	}
	return s.loans.ListOverdue(s.db.WithContext(ctx), memberID, s.now().UTC())
}

// ActiveLoanCount and HasOverdue are the read accessors other components
// use to display a member's circulation status.
func (s *CirculationService) ActiveLoanCount(ctx context.Context, memberID string) (int64, error) {
	return s.loans.CountActiveByMember(s.db.WithContext(ctx), memberID)
}

func (s *CirculationService) HasOverdue(ctx context.Context, memberID string) (bool, error) {
	n, err := s.loans.CountOverdueByMember(s.db.WithContext(ctx), memberID, s.now().UTC())
	return n > 0, err
}

// IsOverdue reports whether a loan is past due: a returned loan is judged
// by its return date, an active one by the current time. Pure, no mutation.
func (s *CirculationService) IsOverdue(l *domain.Loan) bool {
	return l.OverdueAt(s.now().UTC())
}

// Fine returns the fine the loan carries right now: the settled amount for
// a returned loan, the accrued-so-far amount for an active one.
func (s *CirculationService) Fine(l *domain.Loan) int64 {
	if l.ReturnDate != nil {
		return l.FineCents
	}
	return FineCents(l.DueDate, s.now().UTC(), s.rules.FinePerDayCents)
}

// FineCents computes the fine for a loan due at due and effectively
// returned at ret. Whole days only, truncated, never negative; zero when
// the return is on time. Integer arithmetic keeps the result reproducible.
func FineCents(due, ret time.Time, perDayCents int64) int64 {
	if !ret.After(due) {
		return 0
	}
	days := int64(ret.Sub(due) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return days * perDayCents
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
