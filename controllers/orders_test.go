package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rafiabim35-star/web-topup-robekcviip/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Order{}))
	return db
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestTopup_CreatesPendingOrder(t *testing.T) {
	db := openTestDB(t)
	c := NewOrderController(db)

	rec := postJSON(t, c.Topup, "/api/topup", `{"user":"alice","game":"COIN-100","amount":50000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OrderID    string `json:"orderId"`
		PaymentURL string `json:"paymentUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "/success?order_id="+resp.OrderID, resp.PaymentURL)

	order, err := models.GetOrderByID(db, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "alice", order.User)
	assert.Equal(t, "COIN-100", order.Game)
	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestTopup_UniqueOrderIDs(t *testing.T) {
	db := openTestDB(t)
	c := NewOrderController(db)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec := postJSON(t, c.Topup, "/api/topup", `{"user":"alice","game":"COIN-100","amount":100}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			OrderID string `json:"orderId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.False(t, seen[resp.OrderID], "order id issued twice")
		seen[resp.OrderID] = true
	}
}

func TestTopup_RejectsInvalidInput(t *testing.T) {
	db := openTestDB(t)
	c := NewOrderController(db)

	cases := []struct {
		name string
		body string
	}{
		{"missing user", `{"game":"COIN-100","amount":100}`},
		{"missing game", `{"user":"alice","amount":100}`},
		{"missing amount", `{"user":"alice","game":"COIN-100"}`},
		{"zero amount", `{"user":"alice","game":"COIN-100","amount":0}`},
		{"negative amount", `{"user":"alice","game":"COIN-100","amount":-5}`},
		{"fractional amount", `{"user":"alice","game":"COIN-100","amount":10.5}`},
		{"non-numeric amount", `{"user":"alice","game":"COIN-100","amount":"lots"}`},
		{"not json", `user=alice`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, c.Topup, "/api/topup", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// No record may exist after any rejected request
	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestMockPay_TransitionsOrderToPaid(t *testing.T) {
	db := openTestDB(t)
	c := NewOrderController(db)

	order := models.Order{ID: "TPU-webhook-test", User: "alice", Game: "COIN-100", Amount: 100, Status: models.OrderStatusPending}
	require.NoError(t, models.InsertOrder(db, &order))

	rec := postJSON(t, c.MockPay, "/api/webhook/mock-pay", `{"orderId":"TPU-webhook-test"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := models.GetOrderByID(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	// Replay stays a success and the status stays PAID
	rec = postJSON(t, c.MockPay, "/api/webhook/mock-pay", `{"orderId":"TPU-webhook-test"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got, err = models.GetOrderByID(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
}

func TestMockPay_MissingOrderID(t *testing.T) {
	db := openTestDB(t)
	c := NewOrderController(db)

	rec := postJSON(t, c.MockPay, "/api/webhook/mock-pay", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMockPay_UnknownOrderIDReportsSuccess(t *testing.T) {
	db := openTestDB(t)
	c := NewOrderController(db)

	rec := postJSON(t, c.MockPay, "/api/webhook/mock-pay", `{"orderId":"TPU-nope"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
}
