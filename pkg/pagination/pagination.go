// Package pagination parses page/limit query parameters and builds the
// response envelope shared by the list endpoints.
package pagination

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// FromContext reads ?page and ?limit, falling back to page 1 of 10 for
// missing or non-positive values.
func FromContext(c echo.Context) Params {
	return New(atoi(c.QueryParam("page")), atoi(c.QueryParam("limit")))
}

// New normalises page and limit.
func New(page, limit int) Params {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p Params) TotalPages(total int) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Window returns the [start, end) bounds of the page within n items.
func (p Params) Window(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

type Meta struct {
	TotalItems  int `json:"totalItems"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	PageSize    int `json:"pageSize"`
}

func (p Params) Meta(total int) *Meta {
	return &Meta{
		TotalItems:  total,
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages(total),
		PageSize:    p.Limit,
	}
}

// Envelope is the {status, success, message, data} body used by list and
// some detail endpoints.
type Envelope struct {
	Status     int         `json:"status"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination *Meta       `json:"pagination,omitempty"`
}

// OK wraps data in a 200 envelope.
func OK(message string, data interface{}) *Envelope {
	return &Envelope{Status: http.StatusOK, Success: true, Message: message, Data: data}
}

// NewResponse wraps one page of data with its pagination metadata.
func NewResponse(message string, data interface{}, total int, p Params) *Envelope {
	env := OK(message, data)
	env.Pagination = p.Meta(total)
	return env
}
