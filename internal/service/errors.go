package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/truongnet3103/albion-GE/internal/model"
)

var (
	ErrNoAPIKey        = errors.New("no Gemini API key configured")
	ErrQuotaExhausted  = errors.New("Gemini quota exhausted")
	ErrProvider        = errors.New("Gemini request failed")
	ErrNoRoster        = errors.New("no roster array found in model response")
	ErrNoImage         = errors.New("no image or roster text supplied")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoEventSelected = errors.New("no event selected")
	ErrEventNotFound   = errors.New("event not found")
	ErrEventExists     = errors.New("event already exists")
	ErrMemberNotFound  = errors.New("member not found")
	ErrMemberExists    = errors.New("member already exists")
	ErrInvalidName     = errors.New("invalid name")
	ErrReviewNotFound  = errors.New("review session not found or expired")
	ErrEmptyRoster     = errors.New("roster is empty")
	ErrLicenseRequired = errors.New("valid license key required")
	ErrInvalidValue    = errors.New("invalid value")
)

// ValidationError lists the rows that block a commit.
type ValidationError struct {
	Issues []model.RowIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("row %d %s: %s", is.Index+1, is.Field, is.Message))
	}
	return "roster has invalid rows: " + strings.Join(parts, "; ")
}
