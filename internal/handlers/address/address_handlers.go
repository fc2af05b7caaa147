package address

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
)

type AddressHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
}

type addressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

func (r addressRequest) validate() error {
	missing := []string{}
	if r.Label == "" {
		missing = append(missing, "label")
	}
	if r.Street == "" {
		missing = append(missing, "street")
	}
	if r.City == "" {
		missing = append(missing, "city")
	}
	if r.State == "" {
		missing = append(missing, "state")
	}
	if r.PostalCode == "" {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (h *AddressHandler) publish(c echo.Context, userID uint, event map[string]any) {
	handlers.Publish(c, h.Producer, "user_events", fmt.Sprint(userID), event)
}

func (h *AddressHandler) ListAddresses(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var addresses []models.Address
	if err := h.DB.Where("user_id = ?", userID).
		Order("is_default DESC, id ASC").
		Find(&addresses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, addresses)
}

func (h *AddressHandler) AddAddress(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Country == "" {
		req.Country = "India"
	}

	addr := models.Address{
		UserID:     userID,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		// First saved address becomes the default automatically.
		var count int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		addr.IsDefault = count == 0 || req.IsDefault

		if addr.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&addr).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, userID, map[string]any{
		"type":      "address_added",
		"userID":    userID,
		"addressID": addr.ID,
	})
	return c.JSON(http.StatusCreated, addr)
}

// SetDefault clears every other default and marks the target, in a single
// transaction so no reader ever observes zero defaults.
func (h *AddressHandler) SetDefault(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var addr models.Address
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "address not found")
			}
			return err
		}

		if err := tx.Model(&models.Address{}).
			Where("user_id = ?", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}

		addr.IsDefault = true
		return tx.Save(&addr).Error
	})
	if txErr != nil {
		if he, ok := txErr.(*echo.HTTPError); ok {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, userID, map[string]any{
		"type":      "default_address_changed",
		"userID":    userID,
		"addressID": addr.ID,
	})
	return c.JSON(http.StatusOK, addr)
}

// DeleteAddress removes the address unconditionally. Past orders keep their
// own snapshot, so history is unaffected; checkout guards against a user with
// no addresses left.
func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result := h.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "address not found")
	}

	h.publish(c, userID, map[string]any{
		"type":      "address_deleted",
		"userID":    userID,
		"addressID": id,
	})
	return c.JSON(http.StatusOK, echo.Map{"deleted_address": id})
}
