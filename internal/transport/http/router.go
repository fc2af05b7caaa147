package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/handlers/address"
	"github.com/framekart/storefront/internal/handlers/cart"
	"github.com/framekart/storefront/internal/handlers/order"
	"github.com/framekart/storefront/internal/service/token"
)

type Deps struct {
	DB                 *gorm.DB
	AuthHandler        *handlers.AuthHandler
	ProductHandler     *handlers.ProductHandler
	CatalogHandler     *handlers.CatalogHandler
	FrameOptionHandler *handlers.FrameOptionHandler
	WishlistHandler    *handlers.WishlistHandler
	ProfileHandler     *handlers.ProfileHandler
	UsersHandler       *handlers.UsersHandler
	SearchHandler      *handlers.SearchHandler
	CartHandler        *cart.CartHandler
	AddressHandler     *address.AddressHandler
	OrderHandler       *order.OrderHandler
	ServiceHandler     *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	collections := v1.Group("/collections")
	collections.GET("", d.CatalogHandler.ListCollections)
	collections.GET("/:id", d.CatalogHandler.GetCollection)

	bundles := v1.Group("/bundles")
	bundles.GET("", d.CatalogHandler.ListBundles)
	bundles.GET("/:id", d.CatalogHandler.GetBundle)

	v1.GET("/frame-options", d.FrameOptionHandler.ListOptions)

	user := v1.Group("", d.ServiceHandler.AutoRefreshMiddleware)

	user.GET("/profile", d.ProfileHandler.GetProfile)
	user.PATCH("/profile", d.ProfileHandler.UpdateProfile)

	user.GET("/cart", d.CartHandler.GetCart)
	user.POST("/cart", d.CartHandler.AddToCart)
	user.PATCH("/cart/:id", d.CartHandler.UpdateQuantity)
	user.DELETE("/cart/:id", d.CartHandler.RemoveFromCart)
	user.DELETE("/cart", d.CartHandler.ClearCart)

	user.GET("/wishlist", d.WishlistHandler.GetWishlist)
	user.POST("/wishlist", d.WishlistHandler.AddToWishlist)
	user.DELETE("/wishlist/:id", d.WishlistHandler.RemoveFromWishlist)
	user.POST("/wishlist/:id/cart", d.WishlistHandler.MoveToCart)

	user.GET("/addresses", d.AddressHandler.ListAddresses)
	user.POST("/addresses", d.AddressHandler.AddAddress)
	user.POST("/addresses/:id/default", d.AddressHandler.SetDefault)
	user.DELETE("/addresses/:id", d.AddressHandler.DeleteAddress)

	user.POST("/checkout", d.OrderHandler.Checkout)
	user.GET("/orders", d.OrderHandler.ListOrders)
	user.GET("/orders/:id", d.OrderHandler.GetOrder)
	user.POST("/orders/:id/cancel", d.OrderHandler.CancelOrder)

	admin := v1.Group("/admin", d.ServiceHandler.AutoRefreshMiddlewareAdmin)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	admin.POST("/collections", d.CatalogHandler.CreateCollection)
	admin.PATCH("/collections/:id", d.CatalogHandler.PatchCollection)
	admin.DELETE("/collections/:id", d.CatalogHandler.DeleteCollection)

	admin.POST("/bundles", d.CatalogHandler.CreateBundle)
	admin.PATCH("/bundles/:id", d.CatalogHandler.PatchBundle)
	admin.DELETE("/bundles/:id", d.CatalogHandler.DeleteBundle)

	admin.GET("/frame-options", d.FrameOptionHandler.ListAllOptions)
	admin.POST("/frame-options", d.FrameOptionHandler.CreateOption)
	admin.PATCH("/frame-options/:id", d.FrameOptionHandler.PatchOption)
	admin.DELETE("/frame-options/:id", d.FrameOptionHandler.DeleteOption)

	admin.GET("/orders", d.OrderHandler.AdminListOrders)
	admin.GET("/orders/:id", d.OrderHandler.AdminGetOrder)
	admin.POST("/orders/:id/status", d.OrderHandler.UpdateStatus)

	admin.GET("/users", d.UsersHandler.ListUsers)
	admin.POST("/users/:id/admin", d.UsersHandler.GrantAdmin)
	admin.DELETE("/users/:id/admin", d.UsersHandler.RevokeAdmin)
}
