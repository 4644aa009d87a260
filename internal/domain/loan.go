package domain

import "time"

// Loan 流通记录：一册书与一位读者之间的借阅关系。
// return_date 为空即在借；罚金在归还时一次性结算，之后不再变动。
type Loan struct {
	ID       string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	BookID   string `gorm:"type:varchar(32);index;not null" json:"bookId"`
	MemberID string `gorm:"type:varchar(32);index;not null" json:"memberId"`

	Book   *Book   `gorm:"foreignKey:BookID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"book,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"member,omitempty"`

	CheckoutDate time.Time  `gorm:"index;not null" json:"checkoutDate"`
	DueDate      time.Time  `gorm:"index;not null" json:"dueDate"`
	ReturnDate   *time.Time `gorm:"index" json:"returnDate,omitempty"`

	FineCents int64  `gorm:"not null;default:0" json:"fineCents"`
	FinePaid  bool   `gorm:"not null;default:false" json:"finePaid"`
	Notes     string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Active 在借中（尚未归还）
func (l *Loan) Active() bool { return l.ReturnDate == nil }

// OverdueAt 相对 now 是否逾期；已归还的看归还时间，未归还的看 now。
func (l *Loan) OverdueAt(now time.Time) bool {
	if l.ReturnDate != nil {
		return l.ReturnDate.After(l.DueDate)
	}
	return now.After(l.DueDate)
}
