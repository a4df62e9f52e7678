package doctor

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

// Lifecycle performs the writes that also touch identities.
type Lifecycle interface {
	RegisterDoctor(ctx context.Context, caller auth.Principal, d *Doctor, password string) error
	CascadeDeleteDoctor(ctx context.Context, hospitalID, doctorID string) error
}

type Handler struct {
	svc       *Service
	lifecycle Lifecycle
}

func NewHandler(svc *Service, lifecycle Lifecycle) *Handler {
	return &Handler{svc: svc, lifecycle: lifecycle}
}

// RegisterRoutes mounts the doctor endpoints on g (/api/doctors), which the
// caller guards with the hospital role.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/add", h.Add)
	g.GET("/all", h.List)
	g.GET("/getDoctorLight", h.ListLight)
	g.GET("/getById/:doctorId", h.Get)
	g.PUT("/getById/:doctorId", h.Update)
	g.DELETE("/getById/:doctorId", h.Delete)
}

// hospitalID is the calling hospital's public id.
func hospitalID(c echo.Context) (string, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return "", apperr.MissingToken(auth.ErrMissingToken.Error())
	}
	if p.PublicID == "" {
		return "", apperr.Forbidden("Unauthorized: Hospital ID missing from token")
	}
	return p.PublicID, nil
}

func (h *Handler) Add(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return apperr.MissingToken(auth.ErrMissingToken.Error())
	}
	var req Registration
	if err := apperr.Bind(c, &req); err != nil {
		return err
	}
	d := req.Doctor
	if err := h.lifecycle.RegisterDoctor(c.Request().Context(), p, &d, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Doctor added successfully",
		"doctor":  &d,
	})
}

func (h *Handler) List(c echo.Context) error {
	hid, err := hospitalID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.List(c.Request().Context(), hid, pg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse("Doctors fetched successfully", doctors, total, pg))
}

func (h *Handler) ListLight(c echo.Context) error {
	hid, err := hospitalID(c)
	if err != nil {
		return err
	}
	light, err := h.svc.ListLight(c.Request().Context(), hid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.OK("Doctor list fetched successfully", light))
}

func (h *Handler) Get(c echo.Context) error {
	hid, err := hospitalID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), hid, c.Param("doctorId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Update(c echo.Context) error {
	hid, err := hospitalID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := apperr.Bind(c, &patch); err != nil {
		return err
	}
	d, err := h.svc.Update(c.Request().Context(), hid, c.Param("doctorId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Doctor updated successfully",
		"doctor":  d,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	hid, err := hospitalID(c)
	if err != nil {
		return err
	}
	if err := h.lifecycle.CascadeDeleteDoctor(c.Request().Context(), hid, c.Param("doctorId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Doctor deleted successfully"})
}
