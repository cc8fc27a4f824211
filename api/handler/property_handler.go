package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
	"github.com/dxb-props/propertyfinder-crawler/internal/service"
)

type PropertyHandler struct {
	Service *service.PropertyService
}

func NewPropertyHandler(s *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{Service: s}
}

func (h *PropertyHandler) GetProperties(c *gin.Context) {
	properties, err := h.Service.GetAllProperties(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch properties"})
		return
	}
	c.JSON(http.StatusOK, properties)
}

// SearchProperties filters stored records by the query parameters and
// returns one page of results.
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	filter := repository.PropertyFilter{
		Location:     c.Query("location"),
		PropertyType: c.Query("property_type"),
	}

	if priceMin := c.Query("price_min"); priceMin != "" {
		if val, err := strconv.ParseFloat(priceMin, 64); err == nil {
			filter.PriceMin = val
		}
	}
	if priceMax := c.Query("price_max"); priceMax != "" {
		if val, err := strconv.ParseFloat(priceMax, 64); err == nil {
			filter.PriceMax = val
		}
	}
	if bedroomsMin := c.Query("bedrooms_min"); bedroomsMin != "" {
		if val, err := strconv.Atoi(bedroomsMin); err == nil {
			filter.BedroomsMin = val
		}
	}
	if bedroomsMax := c.Query("bedrooms_max"); bedroomsMax != "" {
		if val, err := strconv.Atoi(bedroomsMax); err == nil {
			filter.BedroomsMax = val
		}
	}
	if areaMin := c.Query("area_min"); areaMin != "" {
		if val, err := strconv.ParseFloat(areaMin, 64); err == nil {
			filter.AreaMin = val
		}
	}
	if areaMax := c.Query("area_max"); areaMax != "" {
		if val, err := strconv.ParseFloat(areaMax, 64); err == nil {
			filter.AreaMax = val
		}
	}

	pagination := repository.PaginationParams{
		Page:     1,
		PageSize: 10,
	}
	if page := c.Query("page"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			pagination.Page = val
		}
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		if val, err := strconv.Atoi(pageSize); err == nil && val > 0 && val <= 100 {
			pagination.PageSize = val
		}
	}

	result, err := h.Service.SearchProperties(c.Request.Context(), filter, pagination)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to search properties", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerCrawler starts a background crawl with the configured criteria.
func (h *PropertyHandler) TriggerCrawler(c *gin.Context) {
	err := h.Service.ForceCrawling(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrCrawlInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to trigger crawler", "details": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Crawler triggered successfully"})
}

// GetCrawlerStatus reports whether a triggered run is still active.
func (h *PropertyHandler) GetCrawlerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"crawling": h.Service.IsCrawling()})
}
