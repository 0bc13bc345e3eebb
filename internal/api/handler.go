package api

import (
	"net/http"
	"strconv"
	"time"

	"pricing-service/internal/locality"
	"pricing-service/internal/service"
	"pricing-service/internal/store"
	"pricing-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog      *service.CatalogService
	zones        *service.ZoneService
	distribution *service.DistributionService
	resolver     *locality.Resolver
	slot         *locality.StateSlot
	store        *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	zones *service.ZoneService,
	distribution *service.DistributionService,
	resolver *locality.Resolver,
	slot *locality.StateSlot,
	store *store.Store,
) *Handler {
	return &Handler{
		catalog:      catalog,
		zones:        zones,
		distribution: distribution,
		resolver:     resolver,
		slot:         slot,
		store:        store,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/combos", h.getProductCombos)

		v1.GET("/localities", h.listLocalities)
		v1.GET("/localities/:id/catalogs", h.listLocalityCatalogs)
		v1.GET("/catalogs", h.listCatalogs)
		v1.PUT("/catalogs/:id/localities", h.updateCatalogLocalities)

		v1.GET("/zones", h.listZones)
		v1.GET("/zones/:id/localities", h.listZoneLocalities)
		v1.PUT("/zone-localities/:id", h.updateZoneLocality)
		v1.GET("/shipping", h.getShippingQuote)

		v1.GET("/detect-locality", h.detectLocality)
		v1.POST("/locality/select-address", h.selectAddress)
		v1.POST("/session/resume", h.resumeSession)

		v1.GET("/distribution/slots", h.listDistributionSlots)
		v1.PUT("/distribution/slots/:slot", h.assignDistributionSlot)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// localityFromRequest picks the locality scope: explicit locality_id query
// param, else the session's resolved slot, else 0 (unresolved — prices
// render as "Sin Precio").
func (h *Handler) localityFromRequest(c *gin.Context) int64 {
	if raw := c.Query("locality_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	if snapshot := h.slot.Snapshot(); snapshot != nil {
		return snapshot.ID
	}
	return 0
}

func quantityFromRequest(c *gin.Context) int {
	if raw := c.Query("quantity"); raw != "" {
		if q, err := strconv.Atoi(raw); err == nil && q > 0 {
			return q
		}
	}
	return 1
}

// listProducts handles the locality-gated product listing
func (h *Handler) listProducts(c *gin.Context) {
	localityID := h.localityFromRequest(c)
	includePromos := c.Query("include_promos") == "true"

	views, err := h.catalog.ListProducts(c.Request.Context(), localityID,
		includePromos, quantityFromRequest(c), time.Now())
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load products")
		return
	}

	respondOK(c, http.StatusOK, views)
}

// getProduct handles a single product view
func (h *Handler) getProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	includePromos := c.Query("include_promos") == "true"
	view, err := h.catalog.GetProduct(c.Request.Context(), productID,
		h.localityFromRequest(c), includePromos, quantityFromRequest(c), time.Now())
	if err != nil {
		respondErr(c, http.StatusNotFound, "Product not found")
		return
	}

	respondOK(c, http.StatusOK, view)
}

// getProductCombos handles combo assembly for a product
func (h *Handler) getProductCombos(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	combos, err := h.catalog.GetCombos(c.Request.Context(), productID,
		h.localityFromRequest(c), time.Now())
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to assemble combos")
		return
	}

	respondOK(c, http.StatusOK, combos)
}

// listLocalities handles the locality listing
func (h *Handler) listLocalities(c *gin.Context) {
	localities, err := h.store.GetLocalities(c.Request.Context())
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load localities")
		return
	}
	respondOK(c, http.StatusOK, localities)
}

// listLocalityCatalogs handles the catalogs a locality belongs to
func (h *Handler) listLocalityCatalogs(c *gin.Context) {
	localityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid locality ID")
		return
	}

	ids, err := h.store.GetCatalogIDsForLocality(c.Request.Context(), localityID)
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load catalog membership")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"locality_id": localityID, "catalog_ids": ids})
}

// listCatalogs handles the catalog listing
func (h *Handler) listCatalogs(c *gin.Context) {
	includeLocalities := c.Query("include_localities") == "true"

	catalogs, err := h.store.GetCatalogs(c.Request.Context(), includeLocalities)
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load catalogs")
		return
	}
	respondOK(c, http.StatusOK, catalogs)
}

type updateCatalogLocalitiesRequest struct {
	LocalityIDs []int64 `json:"locality_ids" binding:"required"`
}

// updateCatalogLocalities handles catalog membership replacement
func (h *Handler) updateCatalogLocalities(c *gin.Context) {
	catalogID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid catalog ID")
		return
	}

	var req updateCatalogLocalitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.ReplaceCatalogLocalities(c.Request.Context(), catalogID, req.LocalityIDs); err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to update catalog membership")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"catalog_id": catalogID, "locality_ids": req.LocalityIDs})
}

// listZones handles the zone listing
func (h *Handler) listZones(c *gin.Context) {
	zones, err := h.zones.ListZones(c.Request.Context())
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load zones")
		return
	}
	respondOK(c, http.StatusOK, zones)
}

// listZoneLocalities handles a zone's locality assignments
func (h *Handler) listZoneLocalities(c *gin.Context) {
	zoneID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	zls, err := h.zones.ListZoneLocalities(c.Request.Context(), zoneID)
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load zone localities")
		return
	}
	respondOK(c, http.StatusOK, zls)
}

type updateZoneLocalityRequest struct {
	IsThirdPartyTransport bool   `json:"is_third_party_transport"`
	ShippingPrice         *int64 `json:"shipping_price"`
}

// updateZoneLocality handles a zone locality's shipping override
func (h *Handler) updateZoneLocality(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid zone locality ID")
		return
	}

	var req updateZoneLocalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.zones.UpdateZoneLocality(c.Request.Context(), id,
		req.IsThirdPartyTransport, req.ShippingPrice); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}

	respondOK(c, http.StatusOK, gin.H{"zone_locality_id": id})
}

// getShippingQuote handles the shipping overlay for a locality
func (h *Handler) getShippingQuote(c *gin.Context) {
	localityID := h.localityFromRequest(c)
	if localityID <= 0 {
		respondErr(c, http.StatusBadRequest, "No resolved locality")
		return
	}

	quote, err := h.zones.GetShippingQuote(c.Request.Context(), localityID)
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to compute shipping")
		return
	}
	respondOK(c, http.StatusOK, quote)
}

// detectLocality handles locality resolution by IP or coordinates
func (h *Handler) detectLocality(c *gin.Context) {
	hint := locality.Hint{
		SessionID: c.Query("session_id"),
		IP:        c.Query("ip"),
	}
	if hint.IP == "" {
		hint.IP = c.ClientIP()
	}

	if raw := c.Query("customer_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			hint.CustomerID = id
		}
	}
	if raw := c.Query("stored_locality_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			hint.StoredLocalityID = id
		}
	}
	if latRaw, lonRaw := c.Query("lat"), c.Query("lon"); latRaw != "" && lonRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		if latErr == nil && lonErr == nil {
			hint.Lat, hint.Lon = &lat, &lon
		}
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), hint)
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Locality resolution failed")
		return
	}

	respondOK(c, http.StatusOK, resolution)
}

type selectAddressRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	AddressID int64  `json:"address_id" binding:"required"`
}

// selectAddress completes an ambiguous resolution with the chosen address
func (h *Handler) selectAddress(c *gin.Context) {
	var req selectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), locality.Hint{
		SessionID:       req.SessionID,
		StoredAddressID: req.AddressID,
	})
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Locality resolution failed")
		return
	}

	respondOK(c, http.StatusOK, resolution)
}

type resumeSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// resumeSession re-validates a session's cached locality on session start
func (h *Handler) resumeSession(c *gin.Context) {
	var req resumeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resolution, err := h.resolver.ResumeSession(c.Request.Context(), req.SessionID)
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Session resume failed")
		return
	}

	respondOK(c, http.StatusOK, resolution)
}

// listDistributionSlots handles the homepage slot listing
func (h *Handler) listDistributionSlots(c *gin.Context) {
	slots, err := h.distribution.Slots(c.Request.Context())
	if err != nil {
		respondErr(c, http.StatusBadGateway, "Failed to load distribution slots")
		return
	}
	respondOK(c, http.StatusOK, slots)
}

type assignSlotRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// assignDistributionSlot handles an optimistic homepage slot edit
func (h *Handler) assignDistributionSlot(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid slot")
		return
	}

	var req assignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.distribution.AssignSlot(c.Request.Context(), slot, req.ProductID); err != nil {
		respondErr(c, http.StatusBadGateway, "Slot assignment failed and was reverted")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"slot": slot, "product_id": req.ProductID})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
