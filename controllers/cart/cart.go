package cartControllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/m2gi-davilori/ecom/models"
)

// GET /api/cart
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		loginVal, exists := c.Get("login")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		login := loginVal.(string)

		var cart models.Cart
		if err := db.Preload("Lines.Product").Where("user_id = ?", login).First(&cart).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			}
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

// POST /api/cart/products/:id
func AddProductToCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		loginVal, exists := c.Get("login")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		login := loginVal.(string)

		productID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		// Fetch product from DB
		var product models.Product
		if err := db.First(&product, productID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product does not exist"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate product"})
			}
			return
		}

		// Check if user has a cart
		var cart models.Cart
		if err := db.Where("user_id = ?", login).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			return
		}

		// One line per product: an existing line is incremented, not duplicated
		var line models.ProductCart
		err = db.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&line).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart line"})
				return
			}
			line = models.ProductCart{
				CartID:           cart.ID,
				ProductID:        product.ID,
				Quantity:         1,
				CreationDatetime: time.Now(),
			}
			if err := db.Create(&line).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product to cart"})
				return
			}
			line.Product = product
			c.JSON(http.StatusCreated, line)
			return
		}

		line.Quantity++
		if err := db.Save(&line).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart line"})
			return
		}
		line.Product = product
		c.JSON(http.StatusCreated, line)
	}
}

// PATCH /api/cart/products/:id?quantity=n
func UpdateProductCartQuantity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		loginVal, exists := c.Get("login")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		login := loginVal.(string)

		lineID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart line ID"})
			return
		}

		quantity, err := strconv.Atoi(c.Query("quantity"))
		if err != nil || quantity < 1 {
			// Removal goes through DELETE, never through quantity 0
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be a positive integer"})
			return
		}

		var cart models.Cart
		if err := db.Where("user_id = ?", login).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			return
		}

		var line models.ProductCart
		if err := db.Preload("Product").Where("id = ? AND cart_id = ?", lineID, cart.ID).First(&line).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart line not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart line"})
			}
			return
		}

		line.Quantity = quantity
		if err := db.Save(&line).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart line"})
			return
		}

		c.JSON(http.StatusOK, line)
	}
}

// DELETE /api/cart/products/:id
func DeleteProductCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		loginVal, exists := c.Get("login")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		login := loginVal.(string)

		lineID := c.Param("id")

		var cart models.Cart
		if err := db.Where("user_id = ?", login).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User cart not found"})
			return
		}

		result := db.Where("id = ? AND cart_id = ?", lineID, cart.ID).Delete(&models.ProductCart{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete cart line"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart line not found"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}
