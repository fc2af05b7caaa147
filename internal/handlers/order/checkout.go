package order

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/pricing"
)

type checkoutRequest struct {
	AddressID      uint   `json:"address_id"`
	PaymentMethod  string `json:"payment_method"`
	PromoCode      string `json:"promo_code"`
	IdempotencyKey string `json:"idempotency_key"`
}

var paymentMethods = map[string]bool{
	"cod":  true,
	"upi":  true,
	"card": true,
}

// Checkout turns the user's cart into a persisted order. The order header,
// its items, the first history row and the cart wipe commit in one
// transaction: on any failure nothing is written and the cart survives for a
// retry. A repeated idempotency key returns the order created the first time.
func (h *OrderHandler) Checkout(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}
	if !paymentMethods[req.PaymentMethod] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment method")
	}

	if req.IdempotencyKey != "" {
		var existing models.Order
		err := h.DB.Where("user_id = ? AND idempotency_key = ?", userID, req.IdempotencyKey).
			First(&existing).Error
		if err == nil {
			detail, err := loadDetail(h.DB, existing)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			return c.JSON(http.StatusOK, detail)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	// Stored as NULL when absent so the unique index only bites on real keys.
	var idemKey *string
	if req.IdempotencyKey != "" {
		idemKey = &req.IdempotencyKey
	}

	var (
		order      models.Order
		orderItems []models.OrderItem
		quote      pricing.Quote
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: no items in cart", ErrValidation)
		}

		var addr models.Address
		if err := tx.Where("id = ? AND user_id = ?", req.AddressID, userID).First(&addr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no address selected", ErrValidation)
			}
			return err
		}

		lines := make([]pricing.Line, 0, len(items))
		products := make([]models.Product, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d not found", ErrValidation, it.ProductID)
				}
				return err
			}
			products = append(products, p)
			lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: it.Quantity})
		}

		quote = h.Policy.Quote(lines, req.PromoCode)

		paymentStatus := "paid"
		if req.PaymentMethod == "cod" {
			paymentStatus = "pending"
		}

		order = models.Order{
			UserID:          userID,
			OrderNumber:     newOrderNumber(),
			Status:          models.StatusPending,
			Total:           quote.Total,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   paymentStatus,
			IdempotencyKey:  idemKey,
			ShippingAddress: models.SnapshotOf(addr),
			CreatedAt:       time.Now().Unix(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrOrderCreation, err)
		}

		orderItems = make([]models.OrderItem, 0, len(items))
		for i, it := range items {
			oi := models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     products[i].Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrOrderCreation, err)
			}
			orderItems = append(orderItems, oi)
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.StatusPending,
			Notes:     "Order placed successfully",
			CreatedAt: time.Now().Unix(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrOrderCreation, err)
		}

		// Cart is cleared last, inside the same transaction: a failure here
		// rolls back the whole order, never strands a half-written one.
		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrOrderCreation, err)
		}
		return nil
	})

	if txErr != nil {
		if errors.Is(txErr, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, txErr.Error())
		}
		// The unique index on idempotency_key means a concurrent checkout with
		// the same key may have won the race. Return its order as a replay.
		if req.IdempotencyKey != "" {
			var existing models.Order
			if err := h.DB.Where("user_id = ? AND idempotency_key = ?", userID, req.IdempotencyKey).
				First(&existing).Error; err == nil {
				detail, err := loadDetail(h.DB, existing)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
				}
				return c.JSON(http.StatusOK, detail)
			}
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, fmt.Sprint(userID), map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       order.Total,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"order": order,
		"items": orderItems,
		"quote": quote,
	})
}
