package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dxb-props/propertyfinder-crawler/api/handler"
	"github.com/dxb-props/propertyfinder-crawler/api/middleware"
	"github.com/dxb-props/propertyfinder-crawler/internal/service"
)

func SetupRouter(propertyService *service.PropertyService) *gin.Engine {
	r := gin.Default()

	// 100 requests per hour for the query endpoints, a much tighter
	// budget for crawl triggers.
	generalLimiter := middleware.NewRateLimiter(100, time.Hour)
	crawlerLimiter := middleware.NewRateLimiter(10, time.Hour)

	propertyHandler := handler.NewPropertyHandler(propertyService)

	r.Use(middleware.CORSMiddleware())
	r.Use(generalLimiter.Middleware())

	r.GET("/properties", propertyHandler.GetProperties)
	r.GET("/properties/search", propertyHandler.SearchProperties)

	crawlerGroup := r.Group("/crawler")
	crawlerGroup.Use(crawlerLimiter.Middleware())
	{
		crawlerGroup.POST("/trigger", propertyHandler.TriggerCrawler)
		crawlerGroup.GET("/status", propertyHandler.GetCrawlerStatus)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "propertyfinder-crawler-api",
			"version": "1.0.0",
		})
	})

	return r
}
