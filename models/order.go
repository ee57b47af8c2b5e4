package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
)

// ListOrdersLimit caps the admin order listing to the newest records.
const ListOrdersLimit = 200

type Order struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	User      string    `json:"user" gorm:"size:100;not null"`
	Game      string    `json:"game" gorm:"size:100;not null"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Status    string    `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Order) TableName() string {
	return "orders"
}

func InsertOrder(db *gorm.DB, order *Order) error {
	return db.Create(order).Error
}

// MarkOrderPaid transitions a PENDING order to PAID. The status guard makes a
// replayed webhook idempotent and keeps PAID from ever regressing. The bool
// reports whether any row actually changed.
func MarkOrderPaid(db *gorm.DB, id string) (bool, error) {
	res := db.Model(&Order{}).
		Where("id = ? AND status = ?", id, OrderStatusPending).
		Update("status", OrderStatusPaid)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListRecentOrders returns up to limit orders, newest first.
func ListRecentOrders(db *gorm.DB, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = ListOrdersLimit
	}
	var orders []Order
	err := db.Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func GetOrderByID(db *gorm.DB, id string) (*Order, error) {
	var order Order
	if err := db.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
