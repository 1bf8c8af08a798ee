package cartcache_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/m2gi-davilori/ecom/cartcache"
	"github.com/m2gi-davilori/ecom/cartclient"
	"github.com/m2gi-davilori/ecom/models"
	"github.com/m2gi-davilori/ecom/pricing"
	"github.com/m2gi-davilori/ecom/routes"
)

// Runs the cache against the real server stack: gin routes, JWT session,
// sqlite-backed handlers, HTTP client in between.
func TestCacheAgainstServer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:cache_e2e?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Cart{}, &models.ProductCart{}, &models.Promotion{},
	))

	cheese := models.Product{Name: "Comté", Price: decimal.NewFromInt(50), Weight: 1, WeightUnit: models.WeightUnitKG}
	milk := models.Product{Name: "Lait", Price: decimal.NewFromInt(30), Weight: 1, WeightUnit: models.WeightUnitL}
	require.NoError(t, db.Create(&cheese).Error)
	require.NoError(t, db.Create(&milk).Error)
	require.NoError(t, db.Create(&models.Promotion{
		ProductID: milk.ID,
		Token:     "(10%)",
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	}).Error)

	r := gin.New()
	routes.SetupRoutes(r, db)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// Open a session: the server creates the cart the first fetch needs.
	res, err := http.Post(srv.URL+"/auth/session", "application/json", strings.NewReader(`{"login": "alice"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&session))

	client := cartclient.New(srv.URL, cartclient.WithToken(session.Token))
	cache := cartcache.New(client)

	ctx := context.Background()
	require.NoError(t, cache.Refresh(ctx, ""))
	assert.True(t, cache.Active())
	assert.Equal(t, 0, cache.NbItems())

	// Add cheese twice: the server keeps a single incremented line.
	require.NoError(t, cache.AddProduct(ctx, cheese))
	require.NoError(t, cache.AddProduct(ctx, cheese))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 2, cache.NbItems())
	assert.Equal(t, "100", cache.Total())

	require.NoError(t, cache.AddProduct(ctx, milk))
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, 3, cache.NbItems())
	assert.Equal(t, "130", cache.Total())

	// Promotions fetched from the server feed the total.
	promos, err := client.FetchPromotions(ctx)
	require.NoError(t, err)
	cache.UsePromotions(pricing.TableFromPromotions(promos, time.Now()))
	// 50*2 + 27
	assert.Equal(t, "127", cache.Total())

	require.NoError(t, cache.ChangeQuantity(ctx, cheese, 5))
	assert.Equal(t, 6, cache.NbItems())
	// 50*5 + 27
	assert.Equal(t, "277", cache.Total())

	// Quantity zero removes the line, server-side too.
	require.NoError(t, cache.ChangeQuantity(ctx, milk, 0))
	_, ok := cache.Lookup(milk)
	assert.False(t, ok)
	var count int64
	require.NoError(t, db.Model(&models.ProductCart{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// A fresh refresh agrees with the mutated mirror.
	require.NoError(t, cache.Refresh(ctx, ""))
	assert.Equal(t, 5, cache.NbItems())
	assert.Equal(t, 1, cache.Len())
}
