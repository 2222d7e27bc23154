package domain

import "github.com/shopspring/decimal"

type HouseAvailability string

const (
	HouseAvailable HouseAvailability = "available"
	HouseRented    HouseAvailability = "rented"
)

type House struct {
	ID           int32             `json:"id"`
	HouseNo      string            `json:"houseNo"`
	Price        decimal.Decimal   `json:"price"`
	Availability HouseAvailability `json:"availability"`
}
