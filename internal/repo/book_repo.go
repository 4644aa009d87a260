package repo

import (
	"strings"

	"gorm.io/gorm"

	"bibliotheca/internal/domain"
)

// BookRepo 目录仓储。方法均接受可选的 tx（传 nil 用默认连接），
// 便于在流通事务里复用同一套查询。
type BookRepo struct{ db *gorm.DB }

func NewBookRepo(db *gorm.DB) *BookRepo { return &BookRepo{db: db} }

func (r *BookRepo) conn(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *BookRepo) Create(db *gorm.DB, b *domain.Book) error {
	return r.conn(db).Create(b).Error
}

func (r *BookRepo) GetByID(db *gorm.DB, id string) (*domain.Book, error) {
	var b domain.Book
	if err := r.conn(db).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepo) GetByISBN(db *gorm.DB, isbn string) (*domain.Book, error) {
	var b domain.Book
	if err := r.conn(db).First(&b, "isbn = ?", isbn).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepo) Save(db *gorm.DB, b *domain.Book) error {
	return r.conn(db).Save(b).Error
}

func (r *BookRepo) SoftDelete(db *gorm.DB, id string) error {
	return r.conn(db).Where("id = ?", id).Delete(&domain.Book{}).Error
}

// DecrementAvailable 带条件的扣减：available_quantity 不会被并发借出扣成负数。
// 返回受影响行数，0 表示没有在架副本。
func (r *BookRepo) DecrementAvailable(db *gorm.DB, id string) (int64, error) {
	res := r.conn(db).Model(&domain.Book{}).
		Where("id = ? AND available_quantity > 0", id).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1"))
	return res.RowsAffected, res.Error
}

// IncrementAvailable 归还回架，钳制在 quantity 以内。
func (r *BookRepo) IncrementAvailable(db *gorm.DB, id string) (int64, error) {
	res := r.conn(db).Model(&domain.Book{}).
		Where("id = ? AND available_quantity < quantity", id).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity + 1"))
	return res.RowsAffected, res.Error
}

func (r *BookRepo) List(db *gorm.DB, offset, limit int) ([]domain.Book, int64, error) {
	q := r.conn(db).Model(&domain.Book{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var books []domain.Book
	if err := q.Order("title ASC").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// Search 标题/作者/ISBN 的大小写不敏感子串匹配，可叠加分类过滤。
func (r *BookRepo) Search(db *gorm.DB, query, category string, offset, limit int) ([]domain.Book, int64, error) {
	q := r.conn(db).Model(&domain.Book{})
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", like, like, like)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var books []domain.Book
	if err := q.Order("title ASC").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}
