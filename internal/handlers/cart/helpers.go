package cart

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/pricing"
	"gorm.io/gorm"
)

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	handlers.Publish(c, h.Producer, "cart_events", fmt.Sprint(event["userID"]), event)
}

// loadLines joins the user's cart with live product prices for quoting.
func loadLines(db *gorm.DB, userID uint) ([]models.CartItem, []pricing.Line, error) {
	var items []models.CartItem
	if err := db.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		var p models.Product
		if err := db.First(&p, it.ProductID).Error; err != nil {
			return nil, nil, err
		}
		lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: it.Quantity})
	}
	return items, lines, nil
}
