package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/models"
)

// FrameOptionHandler manages the custom frame builder catalog: materials,
// sizes, colors and finishes with their price modifiers.
type FrameOptionHandler struct {
	DB *gorm.DB
}

type frameOptionRequest struct {
	Category      string          `json:"category"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	ImageURL      string          `json:"image_url"`
	Available     bool            `json:"available"`
	SortOrder     int             `json:"sort_order"`
}

// ListOptions returns only available options, grouped the way the builder
// renders them.
func (h *FrameOptionHandler) ListOptions(c echo.Context) error {
	q := h.DB.Where("available = ?", true)
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	var options []models.FrameOption
	if err := q.Order("category ASC, sort_order ASC").Find(&options).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, options)
}

func (h *FrameOptionHandler) ListAllOptions(c echo.Context) error {
	var options []models.FrameOption
	if err := h.DB.Order("category ASC, sort_order ASC").Find(&options).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, options)
}

func (h *FrameOptionHandler) CreateOption(c echo.Context) error {
	var req frameOptionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Category == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category and name required")
	}

	option := models.FrameOption{
		Category:      req.Category,
		Name:          req.Name,
		Description:   req.Description,
		PriceModifier: req.PriceModifier,
		ImageURL:      req.ImageURL,
		Available:     req.Available,
		SortOrder:     req.SortOrder,
	}
	if err := h.DB.Create(&option).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, option)
}

func (h *FrameOptionHandler) PatchOption(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req frameOptionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var option models.FrameOption
	if err := h.DB.First(&option, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "option not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	option.Category = req.Category
	option.Name = req.Name
	option.Description = req.Description
	option.PriceModifier = req.PriceModifier
	option.ImageURL = req.ImageURL
	option.Available = req.Available
	option.SortOrder = req.SortOrder

	if err := h.DB.Save(&option).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, option)
}

func (h *FrameOptionHandler) DeleteOption(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.FrameOption{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
