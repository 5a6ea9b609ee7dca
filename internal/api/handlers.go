package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zerotwo/cloudprobe/internal/probexml"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReceiveProbeData accepts one raw XML site snapshot and reports a
// per-probe outcome. Structural parse failures reject the whole document;
// validation failures reject only the offending record.
func (s *Server) handleReceiveProbeData(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no data received"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	results, err := s.pipeline.ProcessDocument(ctx, data)
	if err != nil {
		var parseErr *probexml.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": parseErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"request_id": requestID, "error": err.Error()})
		return
	}

	s.log.WithField("request_id", requestID).Infof("processed %d probe records", len(results))
	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"processed":  len(results),
		"results":    results,
	})
}

func (s *Server) handleListClients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (s *Server) handleClientSites(c *gin.Context) {
	clientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sites, err := s.store.SitesForClient(ctx, clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (s *Server) handleSiteProbes(c *gin.Context) {
	siteID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	probes, err := s.store.ProbesForSite(ctx, siteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"probes": probes})
}

func (s *Server) handleProbeLatest(c *gin.Context) {
	address := c.Param("address")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	measurement, err := s.store.LatestMeasurement(ctx, address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if measurement == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no measurements for probe " + address})
		return
	}
	c.JSON(http.StatusOK, measurement)
}

func (s *Server) handleProbeHistory(c *gin.Context) {
	address := c.Param("address")

	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = parsed
	}

	pageSize := s.cfg.PageSize
	if sizeStr := c.Query("page_size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
			return
		}
		pageSize = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	measurements, total, err := s.store.MeasurementHistory(ctx, address, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      address,
		"page":         page,
		"page_size":    pageSize,
		"total":        total,
		"count":        len(measurements),
		"measurements": measurements,
	})
}
