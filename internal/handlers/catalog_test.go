package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/mykafka"
)

func TestCreateCollectionWithProducts(t *testing.T) {
	h := &CatalogHandler{DB: initTestDB(t), Producer: &mykafka.Producer{}}
	e := echo.New()

	p1 := models.Product{Name: "Oak frame", Price: decimal.NewFromInt(500)}
	p2 := models.Product{Name: "Walnut frame", Price: decimal.NewFromInt(700)}
	require.NoError(t, h.DB.Create(&p1).Error)
	require.NoError(t, h.DB.Create(&p2).Error)

	c, rec := postJSON(e, "/admin/collections", map[string]any{
		"name":        "Living Room",
		"product_ids": []uint{p1.ID, p2.ID},
	})
	require.NoError(t, h.CreateCollection(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Collection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	cGet, recGet := postJSON(e, "/collections/:id", nil)
	cGet.SetParamNames("id")
	cGet.SetParamValues(strconv.Itoa(int(created.ID)))
	require.NoError(t, h.GetCollection(cGet))
	require.Equal(t, http.StatusOK, recGet.Code)

	var resp struct {
		Collection models.Collection `json:"collection"`
		Products   []models.Product  `json:"products"`
	}
	require.NoError(t, json.Unmarshal(recGet.Body.Bytes(), &resp))
	require.Equal(t, "Living Room", resp.Collection.Name)
	require.Len(t, resp.Products, 2)
}

func TestGetBundlePrice(t *testing.T) {
	h := &CatalogHandler{DB: initTestDB(t), Producer: &mykafka.Producer{}}
	e := echo.New()

	p1 := models.Product{Name: "Oak frame", Price: decimal.NewFromInt(500)}
	p2 := models.Product{Name: "Matting", Price: decimal.NewFromInt(250)}
	require.NoError(t, h.DB.Create(&p1).Error)
	require.NoError(t, h.DB.Create(&p2).Error)

	bundle := models.Bundle{Name: "Starter set", DiscountPercentage: decimal.NewFromInt(20)}
	require.NoError(t, h.DB.Create(&bundle).Error)
	require.NoError(t, h.DB.Create(&models.BundleProduct{BundleID: bundle.ID, ProductID: p1.ID}).Error)
	require.NoError(t, h.DB.Create(&models.BundleProduct{BundleID: bundle.ID, ProductID: p2.ID}).Error)

	c, rec := postJSON(e, "/bundles/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(bundle.ID)))
	require.NoError(t, h.GetBundle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ListPrice   decimal.Decimal `json:"list_price"`
		BundlePrice decimal.Decimal `json:"bundle_price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// 750 at 20% off
	require.True(t, resp.ListPrice.Equal(decimal.NewFromInt(750)), "list price = %s", resp.ListPrice)
	require.True(t, resp.BundlePrice.Equal(decimal.NewFromInt(600)), "bundle price = %s", resp.BundlePrice)
}

func TestGetBundleNotFound(t *testing.T) {
	h := &CatalogHandler{DB: initTestDB(t), Producer: &mykafka.Producer{}}
	e := echo.New()

	c, _ := postJSON(e, "/bundles/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	err := h.GetBundle(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}
