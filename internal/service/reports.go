package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bibliotheca/internal/core/cache"
	"bibliotheca/internal/domain"
)

// ReportService runs the admin-only read models. It owns no business rules
// and never mutates; everything here is plain aggregation over the ledger.
type ReportService struct {
	db    *gorm.DB
	log   *zap.Logger
	cache *cache.Cache // nil 时直查数据库
	now   func() time.Time
}

func NewReportService(db *gorm.DB, log *zap.Logger, c *cache.Cache) *ReportService {
	return &ReportService{db: db, log: log, cache: c, now: time.Now}
}

// WithClock replaces the service clock, for tests.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

type BookCount struct {
	BookID    string `json:"bookId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	LoanCount int64  `json:"loanCount"`
}

type MemberCount struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Count    int64  `json:"count"`
}

type CirculationStats struct {
	Days                int         `json:"days"`
	TotalCheckouts      int64       `json:"totalCheckouts"`
	TotalReturns        int64       `json:"totalReturns"`
	ActiveLoans         int64       `json:"activeLoans"`
	OverdueLoans        int64       `json:"overdueLoans"`
	FinesCollectedCents int64       `json:"finesCollectedCents"`
	PopularBooks        []BookCount `json:"popularBooks"`
}

// CirculationStats aggregates checkout activity over the trailing window.
func (s *ReportService) CirculationStats(ctx context.Context, actor Actor, days int) (*CirculationStats, error) {
	if err := Can(actor, ActionViewReports, ""); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	now := s.now().UTC()
	since := now.AddDate(0, 0, -days)
	db := s.db.WithContext(ctx)

	out := &CirculationStats{Days: days}

	if err := db.Model(&domain.Loan{}).
		Where("checkout_date >= ?", since).
		Count(&out.TotalCheckouts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Loan{}).
		Where("return_date IS NOT NULL AND return_date >= ?", since).
		Count(&out.TotalReturns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Loan{}).
		Where("return_date IS NULL").
		Count(&out.ActiveLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Loan{}).
		Where("return_date IS NULL AND due_date < ?", now).
		Count(&out.OverdueLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Loan{}).
		Where("fine_paid = ? AND return_date >= ?", true, since).
		Select("COALESCE(SUM(fine_cents), 0)").
		Scan(&out.FinesCollectedCents).Error; err != nil {
		return nil, err
	}
	err := db.Model(&domain.Loan{}).
		Select("loans.book_id AS book_id, books.title AS title, books.author AS author, COUNT(loans.id) AS loan_count").
		Joins("JOIN books ON books.id = loans.book_id").
		Where("loans.checkout_date >= ?", since).
		Group("loans.book_id, books.title, books.author").
		Order("loan_count DESC").
		Limit(10).
		Scan(&out.PopularBooks).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type MemberActivity struct {
	Days        int           `json:"days"`
	MostActive  []MemberCount `json:"mostActive"`
	WithOverdue []MemberCount `json:"withOverdue"`
	NewMembers  int64         `json:"newMembers"`
}

func (s *ReportService) MemberActivity(ctx context.Context, actor Actor, days int) (*MemberActivity, error) {
	if err := Can(actor, ActionViewReports, ""); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	now := s.now().UTC()
	since := now.AddDate(0, 0, -days)
	db := s.db.WithContext(ctx)

	out := &MemberActivity{Days: days}

	memberName := "members.first_name || ' ' || members.last_name"

	err := db.Model(&domain.Loan{}).
		Select("loans.member_id AS member_id, "+memberName+" AS name, members.email AS email, COUNT(loans.id) AS count").
		Joins("JOIN members ON members.id = loans.member_id").
		Where("loans.checkout_date >= ?", since).
		Group("loans.member_id, members.first_name, members.last_name, members.email").
		Order("count DESC").
		Limit(10).
		Scan(&out.MostActive).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&domain.Loan{}).
		Select("loans.member_id AS member_id, "+memberName+" AS name, members.email AS email, COUNT(loans.id) AS count").
		Joins("JOIN members ON members.id = loans.member_id").
		Where("loans.return_date IS NULL AND loans.due_date < ?", now).
		Group("loans.member_id, members.first_name, members.last_name, members.email").
		Order("count DESC").
		Scan(&out.WithOverdue).Error
	if err != nil {
		return nil, err
	}

	if err := db.Model(&domain.Member{}).
		Where("created_at >= ?", since).
		Count(&out.NewMembers).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type CategoryCount struct {
	Category    string `json:"category"`
	BookCount   int64  `json:"bookCount"`
	TotalCopies int64  `json:"totalCopies"`
}

type Inventory struct {
	TotalCopies  int64           `json:"totalCopies"`
	UniqueTitles int64           `json:"uniqueTitles"`
	ByCategory   []CategoryCount `json:"byCategory"`
	Unavailable  []domain.Book   `json:"unavailable"`
	NeverLoaned  int64           `json:"neverLoaned"`
}

func (s *ReportService) Inventory(ctx context.Context, actor Actor) (*Inventory, error) {
	if err := Can(actor, ActionViewReports, ""); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	out := &Inventory{}

	if err := db.Model(&domain.Book{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&out.TotalCopies).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Book{}).Count(&out.UniqueTitles).Error; err != nil {
		return nil, err
	}
	err := db.Model(&domain.Book{}).
		Select("category, COUNT(id) AS book_count, SUM(quantity) AS total_copies").
		Group("category").
		Order("book_count DESC").
		Scan(&out.ByCategory).Error
	if err != nil {
		return nil, err
	}
	if err := db.Where("available_quantity = 0").Find(&out.Unavailable).Error; err != nil {
		return nil, err
	}
	err = db.Model(&domain.Book{}).
		Where("NOT EXISTS (SELECT 1 FROM loans WHERE loans.book_id = books.id)").
		Count(&out.NeverLoaned).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type Dashboard struct {
	TotalBooks   int64 `json:"totalBooks"`
	TotalMembers int64 `json:"totalMembers"`
	ActiveLoans  int64 `json:"activeLoans"`
	OverdueLoans int64 `json:"overdueLoans"`
}

const dashboardKey = "bibliotheca:dashboard"

// Dashboard is the landing-page summary. It is hit on every admin page
// load, so it sits behind a short-TTL cache with singleflight.
func (s *ReportService) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	if err := Can(actor, ActionViewReports, ""); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.loadDashboard(ctx)
	}
	return cache.GetOrLoadJSON[Dashboard](s.cache, ctx, dashboardKey, 30*time.Second, func(ctx context.Context) (*Dashboard, error) {
		return s.loadDashboard(ctx)
	})
}

func (s *ReportService) loadDashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	out := &Dashboard{}
	if err := db.Model(&domain.Book{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&out.TotalBooks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Member{}).Count(&out.TotalMembers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Loan{}).
		Where("return_date IS NULL").
		Count(&out.ActiveLoans).Error; err != nil {
		return nil, err
	}
	return out, db.Model(&domain.Loan{}).
		Where("return_date IS NULL AND due_date < ?", s.now().UTC()).
		Count(&out.OverdueLoans).Error
}
