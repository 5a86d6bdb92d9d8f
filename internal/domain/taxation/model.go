package taxation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Taxation is an append-only ledger entry recording the items accounted for by one
// tax computation over an invoice.
type Taxation struct {
	// RecordID is assigned by the store and only orders entries
	RecordID  int64           `db:"record_id" json:"record_id"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	AccountID string          `db:"account_id" json:"account_id"`
	InvoiceID string          `db:"invoice_id" json:"invoice_id"`
	TotalTax  decimal.Decimal `db:"total_tax" json:"total_tax"`
	// InvoiceItemIDs maps each taxable item ID to the adjustment and tax item IDs
	// recorded against it. Both kinds share one set.
	InvoiceItemIDs ItemIDs `db:"-" json:"invoice_item_ids"`
}

// Copy returns a snapshot that shares no maps with t
func (t *Taxation) Copy() *Taxation {
	if t == nil {
		return nil
	}
	copied := *t
	copied.InvoiceItemIDs = t.InvoiceItemIDs.Clone()
	return &copied
}

// IDSet is a set of invoice item IDs. It encodes as a sorted JSON array.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	s.Add(ids...)
	return s
}

func (s IDSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// ContainsAll reports whether every id is in the set
func (s IDSet) ContainsAll(ids []string) bool {
	for _, id := range ids {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Slice returns the members in ascending order
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// ItemIDs maps a taxable invoice item ID to the set of item IDs accounted for against it.
type ItemIDs map[string]IDSet

// Add records ids under taxableID, creating the entry if needed
func (m ItemIDs) Add(taxableID string, ids ...string) {
	set, ok := m[taxableID]
	if !ok {
		set = NewIDSet()
		m[taxableID] = set
	}
	set.Add(ids...)
}

// Contains reports whether taxableID has an entry
func (m ItemIDs) Contains(taxableID string) bool {
	_, ok := m[taxableID]
	return ok
}

func (m ItemIDs) Clone() ItemIDs {
	if m == nil {
		return nil
	}
	out := make(ItemIDs, len(m))
	for k, set := range m {
		out.Add(k, set.Slice()...)
	}
	return out
}

// Merge combines the mappings of prior ledger entries into one view of what has
// already been taxed. A single entry is returned as is, several are unioned key by
// key, and no entries give an empty mapping.
func Merge(entries []*Taxation) ItemIDs {
	switch len(entries) {
	case 0:
		return ItemIDs{}
	case 1:
		if entries[0].InvoiceItemIDs == nil {
			return ItemIDs{}
		}
		return entries[0].InvoiceItemIDs
	}

	merged := ItemIDs{}
	for _, entry := range entries {
		for taxableID, set := range entry.InvoiceItemIDs {
			merged.Add(taxableID, set.Slice()...)
		}
	}
	return merged
}
