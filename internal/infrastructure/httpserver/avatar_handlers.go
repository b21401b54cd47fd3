package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// getAvatar serves GET /avatar/:hash?size=<int>&default=<string>.
// It is the single catch-all boundary of the pipeline: a missing image maps
// to 404, anything unexpected to a detail-free 500.
func (s *Server) getAvatar(c echo.Context) error {
	hash := c.Param("hash")

	// Only an integer size takes effect; the service clamps the rest.
	size := 0
	if raw := c.QueryParam("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			size = n
		}
	}

	opts := avatar.Options{DefaultImage: c.QueryParam("default")}

	img, err := s.avatarSvc.GetImage(c.Request().Context(), hash, size, opts)
	if err != nil {
		if errors.Is(err, avatar.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"hash": hash}).WithError(err).Error("avatar request failed")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	return c.Blob(http.StatusOK, "image/jpeg", img)
}
