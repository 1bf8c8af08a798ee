package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/m2gi-davilori/ecom/auth"
	cartControllers "github.com/m2gi-davilori/ecom/controllers/cart"
	productControllers "github.com/m2gi-davilori/ecom/controllers/product"
	promotionControllers "github.com/m2gi-davilori/ecom/controllers/promotion"
	"github.com/m2gi-davilori/ecom/middleware"
)

// SetupRoutes is the single entry-point that wires up the auth and API
// route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Public auth routes (no middleware)
	r.POST("/auth/session", auth.CreateSession(db))

	api := r.Group("/api")
	{
		// Browse (public)
		api.GET("/products", productControllers.GetProducts(db))
		api.GET("/products/:id", productControllers.GetProductByID(db))
		api.GET("/promotions", promotionControllers.GetActivePromotions(db))

		// Cart (session-protected)
		cartGroup := api.Group("/cart")
		cartGroup.Use(middleware.ValidateToken)
		{
			cartGroup.GET("", cartControllers.GetCart(db))
			cartGroup.POST("/products/:id", cartControllers.AddProductToCart(db))
			cartGroup.PATCH("/products/:id", cartControllers.UpdateProductCartQuantity(db))
			cartGroup.DELETE("/products/:id", cartControllers.DeleteProductCart(db))
		}
	}
}
