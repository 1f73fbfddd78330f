// Package pagination translates 1-based page/limit query params into
// offset/limit pairs. Invalid values are rejected, never clamped.
package pagination

import (
	"errors"
	"net/url"
	"strconv"
)

var (
	ErrInvalidPage  = errors.New("page query param needs to be a positive integer")
	ErrInvalidLimit = errors.New("limit query param needs to be a positive integer")
)

type Params struct {
	Page  int
	Limit int
}

func ParseQuery(q url.Values) (Params, error) {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		return Params{}, ErrInvalidPage
	}

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		return Params{}, ErrInvalidLimit
	}

	return Params{Page: page, Limit: limit}, nil
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Meta struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Count int    `json:"count"`
	Total *int64 `json:"total,omitempty"`
}

func NewMeta(p Params, count int, total *int64) Meta {
	return Meta{
		Page:  p.Page,
		Limit: p.Limit,
		Count: count,
		Total: total,
	}
}
