package handler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// numeric accepts a JSON number or a numeric string and keeps its literal
// text.  Clients send ids and amounts both ways.
type numeric string

func (n *numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numeric(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = numeric(num.String())
	return nil
}

func (n numeric) String() string { return string(n) }

// Uint returns n as a positive id, or 0 when absent or not an integer.
func (n numeric) Uint() uint64 {
	v, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Int returns n as an int.  ok is false only when n is present but not an
// integer.
func (n numeric) Int() (v int, ok bool) {
	if n == "" {
		return 0, true
	}
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, false
	}
	return v, true
}

type createBookReq struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Author        string  `json:"author"`
	Genre         string  `json:"genre"`
	PublishedYear numeric `json:"publishedYear"`
	CoverImage    string  `json:"coverImage"`
	OwnerAddress  string  `json:"ownerAddress"`
}

type uploadCoverReq struct {
	ImageData string `json:"imageData"`
}

type createReviewReq struct {
	BookID      numeric `json:"bookId"`
	UserAddress string  `json:"userAddress"`
	ReviewText  string  `json:"reviewText"`
	Rating      numeric `json:"rating"`
	ReviewHash  string  `json:"reviewHash"`
}

type createBorrowReq struct {
	BookID          numeric `json:"bookId"`
	BorrowerAddress string  `json:"borrowerAddress"`
	DurationDays    numeric `json:"durationDays"`
}

type updateBorrowReq struct {
	Status string `json:"status"`
	TxHash string `json:"txHash"`
}

type recordPurchaseReq struct {
	BookID       numeric `json:"bookId"`
	BuyerAddress string  `json:"buyerAddress"`
	Amount       numeric `json:"amount"`
	TxHash       string  `json:"txHash"`
}

type loginReq struct {
	WalletAddress string `json:"walletAddress"`
}

type userPart struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
}
