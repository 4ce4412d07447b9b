package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/lumalearn/luma-api/internal/domain"
)

// Common errors
var (
	ErrNilRecord = errors.New("repetition record cannot be nil")
)

// Service defines the interface for spaced repetition scheduling operations
type Service interface {
	// Review computes the updated record for a quiz outcome with the
	// given quality grade. The input record is not mutated.
	Review(
		record *domain.RepetitionRecord,
		quality int,
		now time.Time,
	) (*domain.RepetitionRecord, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a scheduling service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Review implements the Service interface
func (s *defaultService) Review(
	record *domain.RepetitionRecord,
	quality int,
	now time.Time,
) (*domain.RepetitionRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}

	if quality < MinQuality || quality > MaxQuality {
		return nil, fmt.Errorf(
			"%w: quality %d outside [%d, %d]",
			domain.ErrInvalidInput, quality, MinQuality, MaxQuality,
		)
	}

	return calculateNextRecord(record, quality, now, s.params), nil
}

var _ Service = (*defaultService)(nil)
