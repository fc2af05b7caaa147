package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
	"github.com/framekart/storefront/internal/pricing"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInvalidTransition = errors.New("invalid transition") // 409
	ErrOrderCreation     = errors.New("order creation failed")
)

type OrderHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
	Policy    pricing.Policy
}

func (h *OrderHandler) publish(c echo.Context, key string, event map[string]any) {
	handlers.Publish(c, h.Producer, "order_events", key, event)
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// appendTransition writes the history row and then the status update inside
// the given transaction, so the two can never diverge.
func appendTransition(tx *gorm.DB, o *models.Order, next models.OrderStatus, notes string) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	entry := models.OrderStatusHistory{
		OrderID:   o.ID,
		Status:    next,
		Notes:     notes,
		CreatedAt: time.Now().Unix(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	o.Status = next
	return tx.Model(&models.Order{}).Where("id = ?", o.ID).Update("status", next).Error
}

type orderDetail struct {
	Order   models.Order                `json:"order"`
	Items   []models.OrderItem          `json:"items"`
	History []models.OrderStatusHistory `json:"history"`
}

func loadDetail(db *gorm.DB, o models.Order) (orderDetail, error) {
	detail := orderDetail{Order: o}

	if err := db.Where("order_id = ?", o.ID).Order("id ASC").Find(&detail.Items).Error; err != nil {
		return detail, err
	}
	if err := db.Where("order_id = ?", o.ID).Order("id ASC").Find(&detail.History).Error; err != nil {
		return detail, err
	}
	return detail, nil
}
