package service

// Actor is the authenticated identity acting on a request. The rule engine
// treats it as an opaque input supplied by the auth layer.
type Actor struct {
	MemberID string
	IsAdmin  bool
}

type Action string

const (
	ActionViewLoan      Action = "loan.view"
	ActionCheckout      Action = "loan.checkout"
	ActionReturn        Action = "loan.return"
	ActionRenewLoan     Action = "loan.renew"
	ActionPayFine       Action = "loan.pay_fine"
	ActionManageCatalog Action = "catalog.manage"
	ActionViewMember    Action = "member.view"
	ActionEditMember    Action = "member.edit"
	ActionManageMembers Action = "member.manage"
	ActionViewReports   Action = "reports.view"
)

// Can is the single authorization gate every mutating operation goes
// through. Admins may do anything; a plain member may only act on records
// they own (ownerID is the member id the target belongs to, empty when the
// action has no owner).
func Can(actor Actor, action Action, ownerID string) error {
	if actor.IsAdmin {
		return nil
	}
	switch action {
	case ActionViewLoan, ActionRenewLoan, ActionCheckout, ActionReturn,
		ActionViewMember, ActionEditMember:
		if ownerID != "" && ownerID == actor.MemberID {
			return nil
		}
	}
	return ErrPermissionDenied
}
