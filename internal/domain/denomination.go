package domain

import (
	"github.com/shopspring/decimal"
)

type DenominationKind string

const (
	KindBill DenominationKind = "BILL"
	KindCoin DenominationKind = "COIN"
)

// DenominationCount is one counted row of a cash count: how many pieces of a
// given face value were in the drawer. Kind is always derived from the
// denomination table, never taken from input.
type DenominationCount struct {
	FaceValue int64            `json:"face_value"`
	Kind      DenominationKind `json:"kind"`
	Quantity  int64            `json:"quantity"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

// DenominationTable classifies face values into bills and coins. It is built
// once at startup and never mutated afterwards.
type DenominationTable struct {
	order []int64
	kinds map[int64]DenominationKind
}

// NewDenominationTable builds the COP legal-tender table, ordered from the
// largest bill down to the smallest coin.
func NewDenominationTable() *DenominationTable {
	type entry struct {
		face int64
		kind DenominationKind
	}
	entries := []entry{
		{100000, KindBill},
		{50000, KindBill},
		{20000, KindBill},
		{10000, KindBill},
		{5000, KindBill},
		{2000, KindBill},
		{1000, KindCoin},
		{500, KindCoin},
		{200, KindCoin},
		{100, KindCoin},
		{50, KindCoin},
	}

	t := &DenominationTable{kinds: make(map[int64]DenominationKind, len(entries))}
	for _, e := range entries {
		t.order = append(t.order, e.face)
		t.kinds[e.face] = e.kind
	}
	return t
}

// Classify returns the kind for a face value. Unrecognized values classify as
// BILL so that an odd denomination never blocks a count.
func (t *DenominationTable) Classify(faceValue int64) DenominationKind {
	if kind, ok := t.kinds[faceValue]; ok {
		return kind
	}
	return KindBill
}

// FaceValues returns the known face values in table order.
func (t *DenominationTable) FaceValues() []int64 {
	out := make([]int64, len(t.order))
	copy(out, t.order)
	return out
}

// Subtotal computes faceValue × quantity as a scale-2 decimal.
func Subtotal(faceValue, quantity int64) decimal.Decimal {
	return decimal.NewFromInt(faceValue).Mul(decimal.NewFromInt(quantity))
}
