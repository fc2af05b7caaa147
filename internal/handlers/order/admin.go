package order

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/util"
)

func (h *OrderHandler) AdminListOrders(c echo.Context) error {
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		page = v
	}
	size := util.DefaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("size")); err == nil {
		size = v
	}
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Order{})
	if status := c.QueryParam("status"); status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var orders []models.Order
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *OrderHandler) AdminGetOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var o models.Order
	if err := h.DB.First(&o, id).Error; err != nil {
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

// UpdateStatus moves an order along the lifecycle. Every move is validated
// against the transition table and mirrored into the history log in the same
// transaction.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status         models.OrderStatus `json:"status"`
		Notes          string             `json:"notes"`
		TrackingNumber string             `json:"tracking_number"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	var o models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order", ErrNotFound)
			}
			return err
		}

		if err := appendTransition(tx, &o, req.Status, req.Notes); err != nil {
			return err
		}

		if req.TrackingNumber != "" {
			o.TrackingNumber = req.TrackingNumber
			if err := tx.Model(&models.Order{}).
				Where("id = ?", o.ID).
				Update("tracking_number", req.TrackingNumber).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(txErr, ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, txErr.Error())
		case errors.Is(txErr, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, txErr.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
		}
	}

	h.publish(c, fmt.Sprint(o.UserID), map[string]any{
		"type":    "order_status_updated",
		"orderID": o.ID,
		"status":  o.Status,
	})
	return c.JSON(http.StatusOK, o)
}
