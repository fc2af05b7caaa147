package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/config"
	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
	"github.com/framekart/storefront/internal/pricing"
)

var testSecret = []byte("test-jwt-secret")

func newHandler(t *testing.T) *OrderHandler {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &OrderHandler{
		DB:        db,
		Producer:  &mykafka.Producer{},
		JWTSecret: testSecret,
		Policy:    pricing.DefaultPolicy(),
	}
}

func authCookie(t *testing.T, userID uint) *http.Cookie {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": "user",
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: token}
}

func newContext(t *testing.T, e *echo.Echo, method, path string, userID uint, payload any) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if payload != nil {
		bodyBytes, _ := json.Marshal(payload)
		req = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(authCookie(t, userID))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func seedCheckoutFixtures(t *testing.T, db *gorm.DB, userID uint) (models.Product, models.Address) {
	product := models.Product{Name: "Oak frame 8x10", Price: decimal.NewFromInt(500), Stock: 10}
	require.NoError(t, db.Create(&product).Error)

	addr := models.Address{
		UserID:     userID,
		Label:      "home",
		Street:     "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
		IsDefault:  true,
	}
	require.NoError(t, db.Create(&addr).Error)

	require.NoError(t, db.Create(&models.CartItem{UserID: userID, ProductID: product.ID, Quantity: 2}).Error)
	return product, addr
}

func TestCheckout(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	product, addr := seedCheckoutFixtures(t, h.DB, 1)

	c, rec := newContext(t, e, http.MethodPost, "/checkout", 1, map[string]any{
		"address_id":     addr.ID,
		"payment_method": "cod",
	})
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var o models.Order
	require.NoError(t, h.DB.Where("user_id = ?", 1).First(&o).Error)
	require.Equal(t, models.StatusPending, o.Status)
	require.Equal(t, "cod", o.PaymentMethod)
	require.Equal(t, "pending", o.PaymentStatus)
	require.NotEmpty(t, o.OrderNumber)
	// 2 x 500 = 1000, free shipping, 18% tax
	require.True(t, o.Total.Equal(decimal.NewFromInt(1180)), "total = %s", o.Total)

	// address is snapshotted by value
	require.Equal(t, "12 MG Road", o.ShippingAddress.Street)
	require.Equal(t, "560001", o.ShippingAddress.PostalCode)

	var items []models.OrderItem
	require.NoError(t, h.DB.Where("order_id = ?", o.ID).Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, product.ID, items[0].ProductID)
	require.EqualValues(t, 2, items[0].Quantity)
	require.True(t, items[0].Price.Equal(product.Price), "item keeps a price snapshot")

	var history []models.OrderStatusHistory
	require.NoError(t, h.DB.Where("order_id = ?", o.ID).Find(&history).Error)
	require.Len(t, history, 1)
	require.Equal(t, models.StatusPending, history[0].Status)

	var cartRows int64
	require.NoError(t, h.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartRows).Error)
	require.EqualValues(t, 0, cartRows, "cart cleared after checkout")
}

func TestCheckoutEmptyCart(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	addr := models.Address{UserID: 1, Label: "home", Street: "s", City: "c", State: "st", PostalCode: "1", Country: "India"}
	require.NoError(t, h.DB.Create(&addr).Error)

	c, _ := newContext(t, e, http.MethodPost, "/checkout", 1, map[string]any{"address_id": addr.ID})
	err := h.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)

	var orders int64
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orders).Error)
	require.EqualValues(t, 0, orders)
}

func TestCheckoutWithoutAddress(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	product := models.Product{Name: "Pine frame", Price: decimal.NewFromInt(150)}
	require.NoError(t, h.DB.Create(&product).Error)
	require.NoError(t, h.DB.Create(&models.CartItem{UserID: 1, ProductID: product.ID, Quantity: 1}).Error)

	c, _ := newContext(t, e, http.MethodPost, "/checkout", 1, map[string]any{"address_id": 42})
	err := h.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)

	var cartRows int64
	require.NoError(t, h.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartRows).Error)
	require.EqualValues(t, 1, cartRows, "cart survives a failed checkout")
}

func TestCheckoutUnknownPaymentMethod(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	_, addr := seedCheckoutFixtures(t, h.DB, 1)

	c, _ := newContext(t, e, http.MethodPost, "/checkout", 1, map[string]any{
		"address_id":     addr.ID,
		"payment_method": "barter",
	})
	err := h.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCheckoutRollsBackOnFailure(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	_, addr := seedCheckoutFixtures(t, h.DB, 1)

	// force the history insert to fail mid-transaction
	require.NoError(t, h.DB.Migrator().DropTable(&models.OrderStatusHistory{}))

	c, _ := newContext(t, e, http.MethodPost, "/checkout", 1, map[string]any{"address_id": addr.ID})
	err := h.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusInternalServerError, he.Code)

	var orders, items, cartRows int64
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, h.DB.Model(&models.OrderItem{}).Count(&items).Error)
	require.NoError(t, h.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartRows).Error)
	require.EqualValues(t, 0, orders, "no order header written")
	require.EqualValues(t, 0, items, "no order items written")
	require.EqualValues(t, 1, cartRows, "cart intact")
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	product, addr := seedCheckoutFixtures(t, h.DB, 1)

	payload := map[string]any{
		"address_id":      addr.ID,
		"idempotency_key": "retry-abc",
	}

	c1, rec1 := newContext(t, e, http.MethodPost, "/checkout", 1, payload)
	require.NoError(t, h.Checkout(c1))
	require.Equal(t, http.StatusCreated, rec1.Code)

	// client retries with the same key, even with a fresh cart
	require.NoError(t, h.DB.Create(&models.CartItem{UserID: 1, ProductID: product.ID, Quantity: 5}).Error)

	c2, rec2 := newContext(t, e, http.MethodPost, "/checkout", 1, payload)
	require.NoError(t, h.Checkout(c2))
	require.Equal(t, http.StatusOK, rec2.Code, "replay returns the original order")

	var orders int64
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orders).Error)
	require.EqualValues(t, 1, orders, "no duplicate order created")

	var cartRows int64
	require.NoError(t, h.DB.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartRows).Error)
	require.EqualValues(t, 1, cartRows, "replay does not touch the new cart")
}

func TestIdempotencyKeyUniquePerUser(t *testing.T) {
	h := newHandler(t)

	key := "retry-abc"
	mkOrder := func(userID uint, idemKey *string) models.Order {
		return models.Order{
			UserID:         userID,
			OrderNumber:    newOrderNumber(),
			Status:         models.StatusPending,
			Total:          decimal.NewFromInt(1180),
			PaymentMethod:  "cod",
			PaymentStatus:  "pending",
			IdempotencyKey: idemKey,
			CreatedAt:      time.Now().Unix(),
		}
	}

	first := mkOrder(1, &key)
	require.NoError(t, h.DB.Create(&first).Error)

	// the database, not just the pre-insert check, refuses a duplicate key
	dup := mkOrder(1, &key)
	require.Error(t, h.DB.Create(&dup).Error)

	// another user may present the same key
	other := mkOrder(2, &key)
	require.NoError(t, h.DB.Create(&other).Error)

	// keyless orders never collide with each other
	require.NoError(t, h.DB.Create(&[]models.Order{mkOrder(1, nil), mkOrder(1, nil)}).Error)
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, status models.OrderStatus) models.Order {
	o := models.Order{
		UserID:        userID,
		OrderNumber:   newOrderNumber(),
		Status:        status,
		Total:         decimal.NewFromInt(1180),
		PaymentMethod: "cod",
		PaymentStatus: "pending",
		CreatedAt:     time.Now().Unix(),
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}

func TestCancelOrder(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	for _, status := range []models.OrderStatus{models.StatusPending, models.StatusProcessing} {
		o := seedOrder(t, h.DB, 1, status)

		c, rec := newContext(t, e, http.MethodPost, "/orders/:id/cancel", 1, nil)
		c.SetParamNames("id")
		c.SetParamValues(strconv.Itoa(int(o.ID)))
		require.NoError(t, h.CancelOrder(c), "status %s", status)
		require.Equal(t, http.StatusOK, rec.Code)

		var reloaded models.Order
		require.NoError(t, h.DB.First(&reloaded, o.ID).Error)
		require.Equal(t, models.StatusCancelled, reloaded.Status)

		var history int64
		require.NoError(t, h.DB.Model(&models.OrderStatusHistory{}).Where("order_id = ?", o.ID).Count(&history).Error)
		require.EqualValues(t, 1, history, "exactly one history row for the cancellation")
	}
}

func TestCancelOrderRejectedStatuses(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	for _, status := range []models.OrderStatus{models.StatusShipped, models.StatusDelivered, models.StatusCancelled} {
		o := seedOrder(t, h.DB, 1, status)

		c, _ := newContext(t, e, http.MethodPost, "/orders/:id/cancel", 1, nil)
		c.SetParamNames("id")
		c.SetParamValues(strconv.Itoa(int(o.ID)))
		err := h.CancelOrder(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError for %s", status)
		require.Equal(t, http.StatusConflict, he.Code, "status %s", status)

		var reloaded models.Order
		require.NoError(t, h.DB.First(&reloaded, o.ID).Error)
		require.Equal(t, status, reloaded.Status, "status unchanged")

		var history int64
		require.NoError(t, h.DB.Model(&models.OrderStatusHistory{}).Where("order_id = ?", o.ID).Count(&history).Error)
		require.EqualValues(t, 0, history, "no history row on a refused cancel")
	}
}

func TestCancelOrderOfOtherUser(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 2, models.StatusPending)

	c, _ := newContext(t, e, http.MethodPost, "/orders/:id/cancel", 1, nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	err := h.CancelOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestGetOrderScopedToUser(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 2, models.StatusPending)

	c, _ := newContext(t, e, http.MethodGet, "/orders/:id", 1, nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	err := h.GetOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateStatus(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 1, models.StatusPending)

	c, rec := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
		"status": "confirmed",
		"notes":  "Payment verified",
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Order
	require.NoError(t, h.DB.First(&reloaded, o.ID).Error)
	require.Equal(t, models.StatusConfirmed, reloaded.Status)

	var entry models.OrderStatusHistory
	require.NoError(t, h.DB.Where("order_id = ?", o.ID).First(&entry).Error)
	require.Equal(t, models.StatusConfirmed, entry.Status)
	require.Equal(t, "Payment verified", entry.Notes)
}

func TestUpdateStatusSkippingStates(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 1, models.StatusPending)

	c, _ := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
		"status": "delivered",
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	err := h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)

	var reloaded models.Order
	require.NoError(t, h.DB.First(&reloaded, o.ID).Error)
	require.Equal(t, models.StatusPending, reloaded.Status, "status unchanged")

	var history int64
	require.NoError(t, h.DB.Model(&models.OrderStatusHistory{}).Where("order_id = ?", o.ID).Count(&history).Error)
	require.EqualValues(t, 0, history, "no history row for a refused transition")
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 1, models.StatusPending)

	c, _ := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
		"status": "teleported",
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	err := h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	h := newHandler(t)
	e := echo.New()

	c, _ := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
		"status": "confirmed",
	})
	c.SetParamNames("id")
	c.SetParamValues("123")
	err := h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateStatusSetsTrackingNumber(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 1, models.StatusPacked)

	c, rec := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
		"status":          "shipped",
		"tracking_number": "AWB123456",
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Order
	require.NoError(t, h.DB.First(&reloaded, o.ID).Error)
	require.Equal(t, models.StatusShipped, reloaded.Status)
	require.Equal(t, "AWB123456", reloaded.TrackingNumber)
}

func TestFullLifecycle(t *testing.T) {
	h := newHandler(t)
	e := echo.New()
	o := seedOrder(t, h.DB, 1, models.StatusPending)

	steps := []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusProcessing,
		models.StatusPacked,
		models.StatusShipped,
		models.StatusOutForDelivery,
		models.StatusDelivered,
		models.StatusRefundRequested,
		models.StatusRefunded,
	}
	for _, next := range steps {
		c, rec := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
			"status": string(next),
		})
		c.SetParamNames("id")
		c.SetParamValues(strconv.Itoa(int(o.ID)))
		require.NoError(t, h.UpdateStatus(c), "transition to %s", next)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var history int64
	require.NoError(t, h.DB.Model(&models.OrderStatusHistory{}).Where("order_id = ?", o.ID).Count(&history).Error)
	require.EqualValues(t, len(steps), history, "one history row per transition")

	// refunded is terminal
	c, _ := newContext(t, e, http.MethodPost, "/admin/orders/:id/status", 1, map[string]any{
		"status": "pending",
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(o.ID)))
	err := h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}
