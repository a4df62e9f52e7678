package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/apilog"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/hospital"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/registry"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/credential"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/idgen"
	"github.com/hms/hms/internal/platform/metrics"
	"github.com/hms/hms/internal/platform/middleware"
)

const version = "0.1.0"

// newServer wires services and routes onto a fresh echo instance. m may be
// nil when metrics are disabled.
func newServer(cfg *config.Config, logger zerolog.Logger, st *stores, m *metrics.Metrics) (*echo.Echo, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return nil, err
	}
	hasher := credential.New(cfg.BcryptCost)
	ids := idgen.New(cfg.IDMaxAttempts)

	identitySvc := identity.NewService(st.identities, hasher, tokens, ids)
	hospitalSvc := hospital.NewService(st.hospitals)
	doctorSvc := doctor.NewService(st.doctors)
	patientSvc := patient.NewService(st.patients, doctorSvc)

	deps := registry.Deps{
		Identities: st.identities,
		Hospitals:  st.hospitals,
		Doctors:    st.doctors,
		Patients:   st.patients,
		Tx:         st.tx,
		IDs:        ids,
		Hasher:     hasher,
		Logger:     logger,
	}
	if m != nil {
		deps.Metrics = m
	}
	coordinator := registry.NewCoordinator(deps)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))
	e.Use(middleware.SecurityHeaders(cfg.TLSTerminated))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RequestLogEnabled {
		e.Use(middleware.RequestLog(logger, apilog.NewRecorder(st.apilogs)))
	}
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// API groups
	authenticate := auth.Authenticate(tokens)

	authGroup := e.Group("/api/auth")
	identity.NewHandler(identitySvc).RegisterRoutes(authGroup, auth.RequireAnyAuthenticated(tokens, identitySvc))

	hospitalGroup := e.Group("/api/hospitals", authenticate, auth.RequireRole(auth.RoleAdmin))
	hospital.NewHandler(hospitalSvc, coordinator).RegisterRoutes(hospitalGroup)

	doctorGroup := e.Group("/api/doctors", authenticate, auth.RequireRole(auth.RoleHospital))
	doctor.NewHandler(doctorSvc, coordinator).RegisterRoutes(doctorGroup)

	patientGroup := e.Group("/api/patient", authenticate, auth.RequireRole(auth.RoleHospital, auth.RoleDoctor))
	patient.NewHandler(patientSvc, coordinator).RegisterRoutes(patientGroup)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(st.probe))

	if m != nil {
		e.GET("/metrics", m.Handler())
	}

	return e, nil
}
