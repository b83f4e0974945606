package models

import "github.com/shopspring/decimal"

// ClientAccount is the running state of one client.
type ClientAccount struct {
	Available decimal.Decimal // funds that can be withdrawn or disputed
	Held      decimal.Decimal // funds frozen by open disputes
	Locked    bool            // set by a chargeback, never cleared
}

// Total returns available plus held funds.
func (a ClientAccount) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// DepositRecord remembers a deposit so later disputes can refer to it.
// It stores the owning client by id only.
type DepositRecord struct {
	Client       ClientID
	Amount       decimal.Decimal
	UnderDispute bool
}
