package model

import "time"

// Purchase records an on-chain purchase reported by the client.  TxHash is
// unique.  Amount is a non-negative decimal string in the smallest unit the
// client reports (wei for ETH purchases) and is never converted to float.
type Purchase struct {
	ID           string    `json:"id"`
	BookID       uint64    `json:"bookId"`
	BuyerAddress string    `json:"buyerAddress"`
	Amount       string    `json:"amount"`
	TxHash       string    `json:"txHash"`
	Timestamp    time.Time `json:"timestamp"`
	Book         *Book     `json:"book,omitempty"`
}

// PurchaseStats aggregates all recorded purchases.  TotalVolume is the exact
// sum of all amounts rendered as a decimal string.
type PurchaseStats struct {
	TotalPurchases int64  `json:"totalPurchases"`
	UniqueBuyers   int64  `json:"uniqueBuyers"`
	TotalVolume    string `json:"totalVolume"`
}
