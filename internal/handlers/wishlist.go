package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
)

type WishlistHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var items []models.WishlistItem
	if err := h.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// AddToWishlist is idempotent: re-adding an already saved product returns the
// existing row.
func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	var item models.WishlistItem
	tx := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item)
	if tx.Error == nil {
		return c.JSON(http.StatusOK, item)
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	item = models.WishlistItem{UserID: userID, ProductID: req.ProductID}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	Publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "wishlist_item_added",
		"userID":    userID,
		"productID": req.ProductID,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result := h.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.WishlistItem{})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}

	Publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":   "wishlist_item_removed",
		"userID": userID,
		"itemID": id,
	})
	return c.JSON(http.StatusOK, echo.Map{"deleted_item": id})
}

// MoveToCart merges the wishlisted product into the cart and removes the
// wishlist row, in one transaction.
func (h *WishlistHandler) MoveToCart(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var cartItem models.CartItem
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var item models.WishlistItem
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "item not found")
			}
			return err
		}

		err := tx.Where("user_id = ? AND product_id = ?", userID, item.ProductID).First(&cartItem).Error
		switch {
		case err == nil:
			cartItem.Quantity += 1
			if err := tx.Save(&cartItem).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			cartItem = models.CartItem{UserID: userID, ProductID: item.ProductID, Quantity: 1}
			if err := tx.Create(&cartItem).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Delete(&item).Error
	})
	if txErr != nil {
		if he, ok := txErr.(*echo.HTTPError); ok {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	Publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "wishlist_moved_to_cart",
		"userID":    userID,
		"productID": cartItem.ProductID,
	})
	return c.JSON(http.StatusOK, cartItem)
}
