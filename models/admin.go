package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Default first-run credentials. Documented in the README as a deployment
// liability: production refuses admin data access until they are rotated.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

type Admin struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Username   string    `json:"username" gorm:"unique;not null"`
	Password   string    `json:"-" gorm:"not null"` // bcrypt hash, never serialized
	MustRotate bool      `json:"must_rotate" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// HashPassword replaces the plaintext Password field with its bcrypt hash.
func (a *Admin) HashPassword(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

// ValidatePassword checks if the provided password matches the hashed password
func (a *Admin) ValidatePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// GetAdminByUsername retrieves an admin by username
func GetAdminByUsername(db *gorm.DB, username string) (*Admin, error) {
	var admin Admin
	if err := db.Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func CountAdmins(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&Admin{}).Count(&n).Error
	return n, err
}

// SeedDefaultAdmin inserts the documented default account the first time the
// admins table is empty. The seeded account carries MustRotate so production
// deployments cannot keep using it.
func SeedDefaultAdmin(db *gorm.DB, cost int) error {
	n, err := CountAdmins(db)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	admin := Admin{
		Username:   DefaultAdminUsername,
		Password:   DefaultAdminPassword,
		MustRotate: true,
	}
	if err := admin.HashPassword(cost); err != nil {
		return err
	}
	return db.Create(&admin).Error
}

// UpdateAdminPassword re-hashes and stores a new password, clearing the
// rotation flag.
func UpdateAdminPassword(db *gorm.DB, id int64, newPassword string, cost int) error {
	admin := Admin{Password: newPassword}
	if err := admin.HashPassword(cost); err != nil {
		return err
	}
	return db.Model(&Admin{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password": admin.Password, "must_rotate": false}).Error
}
