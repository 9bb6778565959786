package types

type LedgerEntryKind string

const (
	LedgerEntryKindPurchaseTopup   LedgerEntryKind = "purchase_topup"
	LedgerEntryKindDebitActivation LedgerEntryKind = "debit_activation"
	LedgerEntryKindRefund          LedgerEntryKind = "refund"
	LedgerEntryKindBonus           LedgerEntryKind = "bonus"
)
