// 开发用种子数据：演示账号、馆藏样本和几条不同状态的流通记录。
// 幂等：检测到管理员账号已存在即退出。
package main

import (
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bibliotheca/internal/core/config"
	"bibliotheca/internal/core/database"
	"bibliotheca/internal/core/logger"
	"bibliotheca/internal/domain"
	"bibliotheca/internal/service"
	"bibliotheca/pkg/utils"
)

const adminEmail = "admin@bibliotheca.local"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db, err := database.New(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if err := db.AutoMigrate(&domain.Book{}, &domain.Member{}, &domain.Loan{}); err != nil {
		log.Fatal("automigrate", zap.Error(err))
	}

	var n int64
	if err := db.Model(&domain.Member{}).Where("email = ?", adminEmail).Count(&n).Error; err != nil {
		log.Fatal("probe", zap.Error(err))
	}
	if n > 0 {
		log.Info("already seeded, nothing to do")
		return
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return seed(tx, cfg.Circulation) }); err != nil {
		log.Fatal("seed", zap.Error(err))
	}
	log.Info("seed done", zap.String("admin", adminEmail), zap.String("password", "admin123"))
}

func seed(tx *gorm.DB, rules config.Circulation) error {
	books := sampleBooks()
	if err := tx.Create(&books).Error; err != nil {
		return err
	}

	members, err := sampleMembers()
	if err != nil {
		return err
	}
	if err := tx.Create(&members).Error; err != nil {
		return err
	}

	// members[0] 是管理员，流通记录挂在读者账号上
	now := time.Now().UTC()
	loanDays := rules.MaxLoanDays

	type plan struct {
		book, member int
		checkedOut   int // 几天前借出
		returnedAgo  int // <0 表示仍在借
	}
	plans := []plan{
		{book: 0, member: 1, checkedOut: 3, returnedAgo: -1},         // 在借，未到期
		{book: 1, member: 1, checkedOut: loanDays + 6, returnedAgo: -1}, // 在借，已逾期
		{book: 2, member: 2, checkedOut: loanDays + 9, returnedAgo: 1},  // 已还，迟还产生罚金
		{book: 3, member: 3, checkedOut: 10, returnedAgo: 2},            // 已还，按时
	}

	for _, p := range plans {
		checkout := now.AddDate(0, 0, -p.checkedOut)
		due := checkout.AddDate(0, 0, loanDays)
		loan := domain.Loan{
			ID:           utils.NewID(),
			BookID:       books[p.book].ID,
			MemberID:     members[p.member].ID,
			CheckoutDate: checkout,
			DueDate:      due,
		}
		if p.returnedAgo >= 0 {
			ret := now.AddDate(0, 0, -p.returnedAgo)
			loan.ReturnDate = &ret
			loan.FineCents = service.FineCents(due, ret, rules.FinePerDayCents)
		} else {
			books[p.book].AvailableQuantity--
		}
		if err := tx.Create(&loan).Error; err != nil {
			return err
		}
	}

	// 回写在借册扣减后的在架量
	for i := range books {
		if err := tx.Model(&domain.Book{}).Where("id = ?", books[i].ID).
			Update("available_quantity", books[i].AvailableQuantity).Error; err != nil {
			return err
		}
	}
	return nil
}

func sampleBooks() []domain.Book {
	type b struct {
		title, author, isbn, category string
		year, pages, qty              int
	}
	raw := []b{
		{"The Go Programming Language", "Alan A. A. Donovan", "9780134190440", "Programming", 2015, 380, 3},
		{"Designing Data-Intensive Applications", "Martin Kleppmann", "9781449373320", "Programming", 2017, 616, 2},
		{"The Pragmatic Programmer", "David Thomas", "9780135957059", "Programming", 2019, 352, 2},
		{"Dune", "Frank Herbert", "9780441013593", "Science Fiction", 1965, 688, 4},
		{"The Left Hand of Darkness", "Ursula K. Le Guin", "9780441478125", "Science Fiction", 1969, 304, 2},
		{"Pride and Prejudice", "Jane Austen", "9780141439518", "Classics", 1813, 432, 3},
		{"One Hundred Years of Solitude", "Gabriel García Márquez", "9780060883287", "Classics", 1967, 417, 2},
		{"Thinking, Fast and Slow", "Daniel Kahneman", "9780374533557", "Psychology", 2011, 499, 2},
		{"Sapiens", "Yuval Noah Harari", "9780062316097", "History", 2015, 443, 3},
		{"The Name of the Wind", "Patrick Rothfuss", "9780756404741", "Fantasy", 2007, 662, 1},
	}
	out := make([]domain.Book, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.Book{
			ID:                utils.NewID(),
			Title:             r.title,
			Author:            r.author,
			ISBN:              r.isbn,
			Category:          r.category,
			Language:          "English",
			PublicationYear:   r.year,
			Pages:             r.pages,
			Quantity:          r.qty,
			AvailableQuantity: r.qty,
		})
	}
	return out
}

func sampleMembers() ([]domain.Member, error) {
	type m struct {
		first, last, email, password string
		admin                        bool
	}
	raw := []m{
		{"Alice", "Admin", adminEmail, "admin123", true},
		{"Bruno", "Okafor", "bruno@example.com", "reader123", false},
		{"Chen", "Wei", "chen@example.com", "reader123", false},
		{"Dana", "Silva", "dana@example.com", "reader123", false},
	}
	out := make([]domain.Member, 0, len(raw))
	for _, r := range raw {
		hash, err := utils.HashPassword(r.password)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Member{
			ID:           utils.NewID(),
			MemberNo:     utils.NewMemberNo(),
			FirstName:    r.first,
			LastName:     r.last,
			Email:        r.email,
			PasswordHash: hash,
			IsActive:     true,
			IsAdmin:      r.admin,
		})
	}
	return out, nil
}
