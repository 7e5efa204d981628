package domain

import "time"

type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "PENDING"
	ShipmentStatusShipped   ShipmentStatus = "SHIPPED"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
)

type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

type Shipment struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	Address      ShippingAddress `json:"address"`
	ShipmentDate time.Time       `json:"shipment_date"`
	Status       ShipmentStatus  `json:"status"`
}
