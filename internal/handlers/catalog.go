package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
)

// CatalogHandler serves collections and bundles, the two curated groupings of
// products the storefront sells.
type CatalogHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Featured    bool   `json:"featured"`
	ProductIDs  []uint `json:"product_ids"`
}

type bundleRequest struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	ImageURL           string          `json:"image_url"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Featured           bool            `json:"featured"`
	ProductIDs         []uint          `json:"product_ids"`
}

func (h *CatalogHandler) ListCollections(c echo.Context) error {
	var collections []models.Collection
	if err := h.DB.Order("featured DESC, id ASC").Find(&collections).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, collections)
}

func (h *CatalogHandler) GetCollection(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var collection models.Collection
	if err := h.DB.First(&collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "collection not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var products []models.Product
	if err := h.DB.
		Joins("JOIN product_collections ON product_collections.product_id = products.id").
		Where("product_collections.collection_id = ?", collection.ID).
		Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"collection": collection,
		"products":   products,
	})
}

func (h *CatalogHandler) CreateCollection(c echo.Context) error {
	var req collectionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}

	collection := models.Collection{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Featured:    req.Featured,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&collection).Error; err != nil {
			return err
		}
		return replaceCollectionProducts(tx, collection.ID, req.ProductIDs)
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	Publish(c, h.Producer, "product_events", fmt.Sprint(collection.ID), map[string]any{
		"type":         "collection_created",
		"collectionID": collection.ID,
		"name":         collection.Name,
	})
	return c.JSON(http.StatusCreated, collection)
}

func (h *CatalogHandler) PatchCollection(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req collectionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var collection models.Collection
	if err := h.DB.First(&collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "collection not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	collection.Name = req.Name
	collection.Description = req.Description
	collection.ImageURL = req.ImageURL
	collection.Featured = req.Featured

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&collection).Error; err != nil {
			return err
		}
		return replaceCollectionProducts(tx, collection.ID, req.ProductIDs)
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	return c.JSON(http.StatusOK, collection)
}

func (h *CatalogHandler) DeleteCollection(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.ProductCollection{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Collection{}, id).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func replaceCollectionProducts(tx *gorm.DB, collectionID uint, productIDs []uint) error {
	if productIDs == nil {
		return nil
	}
	if err := tx.Where("collection_id = ?", collectionID).Delete(&models.ProductCollection{}).Error; err != nil {
		return err
	}
	for _, pid := range productIDs {
		link := models.ProductCollection{ProductID: pid, CollectionID: collectionID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (h *CatalogHandler) ListBundles(c echo.Context) error {
	var bundles []models.Bundle
	if err := h.DB.Order("featured DESC, id ASC").Find(&bundles).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bundles)
}

func (h *CatalogHandler) GetBundle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var bundle models.Bundle
	if err := h.DB.First(&bundle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bundle not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var products []models.Product
	if err := h.DB.
		Joins("JOIN bundle_products ON bundle_products.product_id = products.id").
		Where("bundle_products.bundle_id = ?", bundle.ID).
		Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	listPrice := decimal.Zero
	for _, p := range products {
		listPrice = listPrice.Add(p.Price)
	}
	hundred := decimal.NewFromInt(100)
	bundlePrice := listPrice.
		Mul(hundred.Sub(bundle.DiscountPercentage)).
		Div(hundred).
		Round(2)

	return c.JSON(http.StatusOK, echo.Map{
		"bundle":       bundle,
		"products":     products,
		"list_price":   listPrice.Round(2),
		"bundle_price": bundlePrice,
	})
}

func (h *CatalogHandler) CreateBundle(c echo.Context) error {
	var req bundleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}

	bundle := models.Bundle{
		Name:               req.Name,
		Description:        req.Description,
		ImageURL:           req.ImageURL,
		DiscountPercentage: req.DiscountPercentage,
		Featured:           req.Featured,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&bundle).Error; err != nil {
			return err
		}
		return replaceBundleProducts(tx, bundle.ID, req.ProductIDs)
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	Publish(c, h.Producer, "product_events", fmt.Sprint(bundle.ID), map[string]any{
		"type":     "bundle_created",
		"bundleID": bundle.ID,
		"name":     bundle.Name,
	})
	return c.JSON(http.StatusCreated, bundle)
}

func (h *CatalogHandler) PatchBundle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req bundleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var bundle models.Bundle
	if err := h.DB.First(&bundle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bundle not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	bundle.Name = req.Name
	bundle.Description = req.Description
	bundle.ImageURL = req.ImageURL
	bundle.DiscountPercentage = req.DiscountPercentage
	bundle.Featured = req.Featured

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&bundle).Error; err != nil {
			return err
		}
		return replaceBundleProducts(tx, bundle.ID, req.ProductIDs)
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	return c.JSON(http.StatusOK, bundle)
}

func (h *CatalogHandler) DeleteBundle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bundle_id = ?", id).Delete(&models.BundleProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bundle{}, id).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func replaceBundleProducts(tx *gorm.DB, bundleID uint, productIDs []uint) error {
	if productIDs == nil {
		return nil
	}
	if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.BundleProduct{}).Error; err != nil {
		return err
	}
	for _, pid := range productIDs {
		link := models.BundleProduct{BundleID: bundleID, ProductID: pid}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}
