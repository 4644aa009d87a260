package repo

import (
	"time"

	"gorm.io/gorm"

	"bibliotheca/internal/domain"
)

type LoanRepo struct{ db *gorm.DB }

func NewLoanRepo(db *gorm.DB) *LoanRepo { return &LoanRepo{db: db} }

func (r *LoanRepo) conn(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *LoanRepo) Create(db *gorm.DB, l *domain.Loan) error {
	return r.conn(db).Create(l).Error
}

func (r *LoanRepo) GetByID(db *gorm.DB, id string) (*domain.Loan, error) {
	var l domain.Loan
	err := r.conn(db).Preload("Book").Preload("Member").First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepo) List(db *gorm.DB, memberID string, offset, limit int) ([]domain.Loan, int64, error) {
	q := r.conn(db).Model(&domain.Loan{})
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ls []domain.Loan
	err := q.Preload("Book").Preload("Member").
		Order("checkout_date DESC").Offset(offset).Limit(limit).Find(&ls).Error
	if err != nil {
		return nil, 0, err
	}
	return ls, total, nil
}

// ListOverdue 在借且已过期的记录，按到期时间升序；memberID 为空查全部。
func (r *LoanRepo) ListOverdue(db *gorm.DB, memberID string, now time.Time) ([]domain.Loan, error) {
	q := r.conn(db).Model(&domain.Loan{}).
		Where("return_date IS NULL AND due_date < ?", now)
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	var ls []domain.Loan
	err := q.Preload("Book").Preload("Member").Order("due_date ASC").Find(&ls).Error
	if err != nil {
		return nil, err
	}
	return ls, nil
}

func (r *LoanRepo) CountActiveByMember(db *gorm.DB, memberID string) (int64, error) {
	var n int64
	err := r.conn(db).Model(&domain.Loan{}).
		Where("member_id = ? AND return_date IS NULL", memberID).
		Count(&n).Error
	return n, err
}

func (r *LoanRepo) CountOverdueByMember(db *gorm.DB, memberID string, now time.Time) (int64, error) {
	var n int64
	err := r.conn(db).Model(&domain.Loan{}).
		Where("member_id = ? AND return_date IS NULL AND due_date < ?", memberID, now).
		Count(&n).Error
	return n, err
}

func (r *LoanRepo) CountActiveByBook(db *gorm.DB, bookID string) (int64, error) {
	var n int64
	err := r.conn(db).Model(&domain.Loan{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&n).Error
	return n, err
}

// MarkReturned 只允许从在借态迁移一次；返回受影响行数，0 即已归还过。
func (r *LoanRepo) MarkReturned(db *gorm.DB, id string, at time.Time, fineCents int64) (int64, error) {
	res := r.conn(db).Model(&domain.Loan{}).
		Where("id = ? AND return_date IS NULL", id).
		Updates(map[string]interface{}{
			"return_date": at,
			"fine_cents":  fineCents,
		})
	return res.RowsAffected, res.Error
}

func (r *LoanRepo) ExtendDue(db *gorm.DB, id string, newDue time.Time) (int64, error) {
	res := r.conn(db).Model(&domain.Loan{}).
		Where("id = ? AND return_date IS NULL", id).
		UpdateColumn("due_date", newDue)
	return res.RowsAffected, res.Error
}

func (r *LoanRepo) MarkFinePaid(db *gorm.DB, id string) (int64, error) {
	res := r.conn(db).Model(&domain.Loan{}).
		Where("id = ? AND fine_cents > 0 AND fine_paid = ?", id, false).
		UpdateColumn("fine_paid", true)
	return res.RowsAffected, res.Error
}

// DeleteByBook / DeleteByMember：随所属记录级联清除历史（仅在无在借记录时由上层调用）。
func (r *LoanRepo) DeleteByBook(db *gorm.DB, bookID string) error {
	return r.conn(db).Where("book_id = ?", bookID).Delete(&domain.Loan{}).Error
}

func (r *LoanRepo) DeleteByMember(db *gorm.DB, memberID string) error {
	return r.conn(db).Where("member_id = ?", memberID).Delete(&domain.Loan{}).Error
}
