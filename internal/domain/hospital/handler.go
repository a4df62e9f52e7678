package hospital

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/pkg/pagination"
)

// Lifecycle performs the writes that also touch identities and doctors.
type Lifecycle interface {
	RegisterHospital(ctx context.Context, h *Hospital, password string) error
	CascadeDeleteHospital(ctx context.Context, hospitalID string) error
}

type Handler struct {
	svc       *Service
	lifecycle Lifecycle
}

func NewHandler(svc *Service, lifecycle Lifecycle) *Handler {
	return &Handler{svc: svc, lifecycle: lifecycle}
}

// RegisterRoutes mounts the admin hospital endpoints on g (/api/hospitals).
// The caller installs the admin guard on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/add", h.Add)
	g.GET("/all", h.List)
	g.GET("/getById/:hospitalId", h.Get)
	g.PUT("/getById/:hospitalId", h.Update)
	g.DELETE("/getById/:hospitalId", h.Delete)
}

func (h *Handler) Add(c echo.Context) error {
	var req Registration
	if err := apperr.Bind(c, &req); err != nil {
		return err
	}
	hosp := req.Hospital
	if err := h.lifecycle.RegisterHospital(c.Request().Context(), &hosp, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":  "Hospital added successfully",
		"hospital": &hosp,
	})
}

func (h *Handler) List(c echo.Context) error {
	hospitals, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.OK("All Hospital fetched successfully", hospitals))
}

func (h *Handler) Get(c echo.Context) error {
	hosp, err := h.svc.Get(c.Request().Context(), c.Param("hospitalId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) Update(c echo.Context) error {
	var patch Patch
	if err := apperr.Bind(c, &patch); err != nil {
		return err
	}
	hosp, err := h.svc.Update(c.Request().Context(), c.Param("hospitalId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Hospital updated successfully",
		"hospital": hosp,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.lifecycle.CascadeDeleteHospital(c.Request().Context(), c.Param("hospitalId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Hospital deleted successfully"})
}
