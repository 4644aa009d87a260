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

// CatalogService manages the book catalog. Availability counters are only
// ever mutated here on create/edit; circulation owns the per-loan +-1.
type CatalogService struct {
	db    *gorm.DB
	log   *zap.Logger
	books *repo.BookRepo
	loans *repo.LoanRepo
}

func NewCatalogService(db *gorm.DB, log *zap.Logger, books *repo.BookRepo, loans *repo.LoanRepo) *CatalogService {
	return &CatalogService{db: db, log: log, books: books, loans: loans}
}

// BookInput carries the descriptive fields of a catalog entry.
type BookInput struct {
	Title           string
	Author          string
	ISBN            string
	Publisher       string
	PublicationYear int
	Description     string
	Category        string
	Language        string
	Pages           int
	Quantity        int
	LocationShelf   string
	CoverImage      string
}

// Add creates a catalog entry with all copies on the shelf.
func (s *CatalogService) Add(ctx context.Context, actor Actor, in BookInput) (*domain.Book, error) {
	if err := Can(actor, ActionManageCatalog, ""); err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	db := s.db.WithContext(ctx)
	if _, err := s.books.GetByISBN(db, in.ISBN); err == nil {
		return nil, ErrDuplicateKey
	} else if !isNotFound(err) {
		return nil, err
	}

	book := &domain.Book{
		ID:                utils.NewID(),
		Title:             in.Title,
		Author:            in.Author,
		ISBN:              in.ISBN,
		Publisher:         in.Publisher,
		PublicationYear:   in.PublicationYear,
		Description:       in.Description,
		Category:          in.Category,
		Language:          in.Language,
		Pages:             in.Pages,
		Quantity:          in.Quantity,
		AvailableQuantity: in.Quantity,
		LocationShelf:     in.LocationShelf,
		CoverImage:        in.CoverImage,
	}
	if err := s.books.Create(db, book); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	s.log.Info("book added", zap.String("book_id", book.ID), zap.String("isbn", book.ISBN))
	return book, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.GetByID(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return book, nil
}

// Update edits descriptive fields and the owned quantity. A quantity change
// shifts available_quantity by the same delta so checked-out copies stay
// accounted for; availability is clamped into [0, quantity].
func (s *CatalogService) Update(ctx context.Context, actor Actor, id string, in BookInput) (*domain.Book, error) {
	if err := Can(actor, ActionManageCatalog, ""); err != nil {
		return nil, err
	}

	var updated *domain.Book
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := s.books.GetByID(tx, id)
		if err != nil {
			return notFoundOr(err)
		}

		if in.ISBN != book.ISBN {
			if _, err := s.books.GetByISBN(tx, in.ISBN); err == nil {
				return ErrDuplicateKey
			} else if !isNotFound(err) {
				return err
			}
		}

		if in.Quantity < 1 {
			in.Quantity = 1
		}
		delta := in.Quantity - book.Quantity

		book.Title = in.Title
		book.Author = in.Author
		book.ISBN = in.ISBN
		book.Publisher = in.Publisher
		book.PublicationYear = in.PublicationYear
		book.Description = in.Description
		book.Category = in.Category
		book.Language = in.Language
		book.Pages = in.Pages
		book.LocationShelf = in.LocationShelf
		book.CoverImage = in.CoverImage
		book.Quantity = in.Quantity
		book.AvailableQuantity += delta
		if book.AvailableQuantity < 0 {
			book.AvailableQuantity = 0
		}
		if book.AvailableQuantity > book.Quantity {
			book.AvailableQuantity = book.Quantity
		}

		if err := s.books.Save(tx, book); err != nil {
			if isDupKey(err) {
				return ErrDuplicateKey
			}
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("book updated", zap.String("book_id", id))
	return updated, nil
}

// Delete removes a book. Rejected while any active loan references it;
// returned loan history goes with the book.
func (s *CatalogService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := Can(actor, ActionManageCatalog, ""); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.books.GetByID(tx, id); err != nil {
			return notFoundOr(err)
		}
		active, err := s.loans.CountActiveByBook(tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrHasActiveLoans
		}
		if err := s.loans.DeleteByBook(tx, id); err != nil {
			return err
		}
		return s.books.SoftDelete(tx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("book deleted", zap.String("book_id", id))
	return nil
}

func (s *CatalogService) List(ctx context.Context, offset, limit int) ([]domain.Book, int64, error) {
	return s.books.List(s.db.WithContext(ctx), offset, limit)
}

func (s *CatalogService) Search(ctx context.Context, query, category string, offset, limit int) ([]domain.Book, int64, error) {
	return s.books.Search(s.db.WithContext(ctx), query, category, offset, limit)
}

func isNotFound(err error) bool {
	return err != nil && notFoundOr(err) == ErrNotFound
}

// isDupKey 不依赖 gorm.ErrDuplicatedKey，避免驱动差异
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
