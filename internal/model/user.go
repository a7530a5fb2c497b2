package model

import "time"

// User is a wallet identity.  Users are created on first login and are
// unique by lower-cased WalletAddress.
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}
