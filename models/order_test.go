package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Admin{}, &Order{}))
	return db
}

func TestInsertOrder_RetrievablePending(t *testing.T) {
	db := openTestDB(t)

	order := Order{
		ID:     utils.GenerateOrderID(),
		User:   "alice",
		Game:   "COIN-100",
		Amount: 50000,
		Status: OrderStatusPending,
	}
	require.NoError(t, InsertOrder(db, &order))

	got, err := GetOrderByID(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User)
	assert.Equal(t, "COIN-100", got.Game)
	assert.Equal(t, int64(50000), got.Amount)
	assert.Equal(t, OrderStatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMarkOrderPaid_Idempotent(t *testing.T) {
	db := openTestDB(t)

	order := Order{ID: utils.GenerateOrderID(), User: "alice", Game: "COIN-100", Amount: 50000, Status: OrderStatusPending}
	require.NoError(t, InsertOrder(db, &order))

	updated, err := MarkOrderPaid(db, order.ID)
	require.NoError(t, err)
	assert.True(t, updated)

	// Replayed webhook: no row changes, status stays PAID
	updated, err = MarkOrderPaid(db, order.ID)
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := GetOrderByID(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, got.Status)
}

func TestMarkOrderPaid_UnknownIDNoError(t *testing.T) {
	db := openTestDB(t)

	updated, err := MarkOrderPaid(db, "TPU-does-not-exist")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestListRecentOrders_NewestFirstAndCapped(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		order := Order{
			ID:        fmt.Sprintf("TPU-test-%d", i),
			User:      "alice",
			Game:      "COIN-100",
			Amount:    int64(1000 * (i + 1)),
			Status:    OrderStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, InsertOrder(db, &order))
	}

	orders, err := ListRecentOrders(db, 3)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "TPU-test-4", orders[0].ID)
	assert.Equal(t, "TPU-test-3", orders[1].ID)
	assert.Equal(t, "TPU-test-2", orders[2].ID)
}

func TestSeedDefaultAdmin_FirstRunOnly(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, SeedDefaultAdmin(db, bcrypt.MinCost))

	n, err := CountAdmins(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	admin, err := GetAdminByUsername(db, DefaultAdminUsername)
	require.NoError(t, err)
	assert.True(t, admin.MustRotate)
	assert.True(t, admin.ValidatePassword(DefaultAdminPassword))
	assert.False(t, admin.ValidatePassword("wrongpass"))
	assert.NotEqual(t, DefaultAdminPassword, admin.Password, "password must be stored hashed")

	// Second boot with a populated table seeds nothing
	require.NoError(t, SeedDefaultAdmin(db, bcrypt.MinCost))
	n, err = CountAdmins(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUpdateAdminPassword_ClearsRotationFlag(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SeedDefaultAdmin(db, bcrypt.MinCost))

	admin, err := GetAdminByUsername(db, DefaultAdminUsername)
	require.NoError(t, err)

	require.NoError(t, UpdateAdminPassword(db, admin.ID, "new-password", bcrypt.MinCost))

	admin, err = GetAdminByUsername(db, DefaultAdminUsername)
	require.NoError(t, err)
	assert.False(t, admin.MustRotate)
	assert.True(t, admin.ValidatePassword("new-password"))
	assert.False(t, admin.ValidatePassword(DefaultAdminPassword))
}
