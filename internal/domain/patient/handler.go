package patient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Lifecycle performs the writes that also touch identities.
type Lifecycle interface {
	RegisterPatient(ctx context.Context, caller auth.Principal, p *Patient, password string) error
	DeletePatient(ctx context.Context, scope Scope, patientID string) error
}

type Handler struct {
	svc       *Service
	lifecycle Lifecycle
}

func NewHandler(svc *Service, lifecycle Lifecycle) *Handler {
	return &Handler{svc: svc, lifecycle: lifecycle}
}

// RegisterRoutes mounts the patient endpoints on g (/api/patient), which
// the caller guards with the hospital and doctor roles.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/add", h.Add)
	g.GET("/all", h.List)
	g.GET("/export", h.Export)
	g.GET("/getById/:patientId", h.Get)
	g.PUT("/getById/:patientId", h.Update)
	g.DELETE("/getById/:patientId", h.Delete)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, apperr.MissingToken(auth.ErrMissingToken.Error())
	}
	return p, nil
}

func scope(c echo.Context) (Scope, error) {
	p, err := principal(c)
	if err != nil {
		return Scope{}, err
	}
	return ScopeFor(p)
}

// listScope narrows a hospital's scope to ?doctorId when given. Doctors are
// always limited to themselves.
func listScope(c echo.Context) (Scope, error) {
	s, err := scope(c)
	if err != nil {
		return Scope{}, err
	}
	if s.DoctorID == "" {
		s.DoctorID = c.QueryParam("doctorId")
	}
	return s, nil
}

func (h *Handler) Add(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req Registration
	if err := apperr.Bind(c, &req); err != nil {
		return err
	}
	pt := req.Patient
	if err := h.lifecycle.RegisterPatient(c.Request().Context(), p, &pt, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Patient added successfully",
		"patient": &pt,
	})
}

func (h *Handler) List(c echo.Context) error {
	s, err := listScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), s, pg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse("Patients fetched successfully", patients, total, pg))
}

func (h *Handler) Export(c echo.Context) error {
	s, err := listScope(c)
	if err != nil {
		return err
	}
	// Build the workbook before writing headers so a failure is still
	// answered as JSON.
	var buf bytes.Buffer
	if _, err := h.svc.Export(c.Request().Context(), s, &buf); err != nil {
		return err
	}
	filename := fmt.Sprintf("patients-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) Get(c echo.Context) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), s, c.Param("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.OK("Patient details fetched successfully", p))
}

func (h *Handler) Update(c echo.Context) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := apperr.Bind(c, &patch); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), s, c.Param("patientId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Patient updated successfully",
		"patient": p,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	s, err := scope(c)
	if err != nil {
		return err
	}
	if err := h.lifecycle.DeletePatient(c.Request().Context(), s, c.Param("patientId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}
