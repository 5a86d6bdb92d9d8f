package types

// InvoiceItemType is the kind of an invoice line as reported by the billing host
type InvoiceItemType string

const (
	InvoiceItemTypeExternalCharge InvoiceItemType = "EXTERNAL_CHARGE"
	InvoiceItemTypeFixed          InvoiceItemType = "FIXED"
	InvoiceItemTypeRecurring      InvoiceItemType = "RECURRING"
	InvoiceItemTypeUsage          InvoiceItemType = "USAGE"
	InvoiceItemTypeTax            InvoiceItemType = "TAX"
	InvoiceItemTypeItemAdj        InvoiceItemType = "ITEM_ADJ"
	InvoiceItemTypeRepairAdj      InvoiceItemType = "REPAIR_ADJ"
	InvoiceItemTypeCreditAdj      InvoiceItemType = "CREDIT_ADJ"
	InvoiceItemTypeCBAAdj         InvoiceItemType = "CBA_ADJ"
	InvoiceItemTypeParentSummary  InvoiceItemType = "PARENT_SUMMARY"
)

// IsAdjustment reports whether items of this type adjust a previously invoiced item
func (t InvoiceItemType) IsAdjustment() bool {
	return t == InvoiceItemTypeItemAdj || t == InvoiceItemTypeRepairAdj
}

// IsTaxable reports whether items of this type carry a taxable amount
func (t InvoiceItemType) IsTaxable() bool {
	switch t {
	case InvoiceItemTypeExternalCharge, InvoiceItemTypeFixed, InvoiceItemTypeRecurring, InvoiceItemTypeUsage:
		return true
	}
	return false
}
