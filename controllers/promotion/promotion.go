package promotionControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/m2gi-davilori/ecom/models"
)

// GetActivePromotions returns the promotions whose window covers now.
// GET /api/promotions
func GetActivePromotions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		var promos []models.Promotion
		if err := db.Where("start_date <= ? AND end_date >= ?", now, now).Find(&promos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve promotions"})
			return
		}
		c.JSON(http.StatusOK, promos)
	}
}
