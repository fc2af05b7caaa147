package order

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/models"
)

func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var o models.Order
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	detail, err := loadDetail(h.DB, o)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, detail)
}

// CancelOrder is the customer-facing cancellation: permitted only from
// pending or processing, and always paired with a history row.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var o models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&o).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order", ErrNotFound)
			}
			return err
		}

		if !o.Status.CancellableByCustomer() {
			return fmt.Errorf("%w: cannot cancel order in status %s", ErrInvalidTransition, o.Status)
		}
		return appendTransition(tx, &o, models.StatusCancelled, "Order cancelled by customer")
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(txErr, ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, txErr.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
		}
	}

	h.publish(c, fmt.Sprint(userID), map[string]any{
		"type":    "order_cancelled",
		"userID":  userID,
		"orderID": o.ID,
	})
	return c.JSON(http.StatusOK, o)
}
