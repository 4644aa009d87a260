package repo

import (
	"strings"

	"gorm.io/gorm"

	"bibliotheca/internal/domain"
)

type MemberRepo struct{ db *gorm.DB }

func NewMemberRepo(db *gorm.DB) *MemberRepo { return &MemberRepo{db: db} }

func (r *MemberRepo) conn(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *MemberRepo) Create(db *gorm.DB, m *domain.Member) error {
	return r.conn(db).Create(m).Error
}

func (r *MemberRepo) GetByID(db *gorm.DB, id string) (*domain.Member, error) {
	var m domain.Member
	if err := r.conn(db).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) GetByEmail(db *gorm.DB, email string) (*domain.Member, error) {
	var m domain.Member
	if err := r.conn(db).First(&m, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) Save(db *gorm.DB, m *domain.Member) error {
	return r.conn(db).Save(m).Error
}

func (r *MemberRepo) SoftDelete(db *gorm.DB, id string) error {
	return r.conn(db).Where("id = ?", id).Delete(&domain.Member{}).Error
}

func (r *MemberRepo) List(db *gorm.DB, offset, limit int) ([]domain.Member, int64, error) {
	q := r.conn(db).Model(&domain.Member{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ms []domain.Member
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return ms, total, nil
}

// Search 姓名/邮箱/读者证号的大小写不敏感子串匹配。
func (r *MemberRepo) Search(db *gorm.DB, query string, offset, limit int) ([]domain.Member, int64, error) {
	q := r.conn(db).Model(&domain.Member{})
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(member_no) LIKE ?",
			like, like, like, like,
		)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ms []domain.Member
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return ms, total, nil
}
