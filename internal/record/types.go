// Package record persists generated growth reports.
package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown record backend")

// Record is one broadcast report. Records are written once and never updated.
type Record struct {
	PublisherID      string `json:"publisherId" dynamodbav:"publisherId" validate:"required"`
	Timestamp        int64  `json:"timestamp" dynamodbav:"timestamp" validate:"gt=0"`
	GeneratedMessage string `json:"generatedMessage" dynamodbav:"generatedMessage"`
	ImgURL           string `json:"imgUrl" dynamodbav:"imgUrl" validate:"required"`
	WeatherIconURL   string `json:"weatherIconUrl" dynamodbav:"weatherIconUrl"`
}

// Store appends records and reads the most recent ones back.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// Latest returns up to limit records for publisherID, newest first.
	Latest(ctx context.Context, publisherID string, limit int) ([]Record, error)
}

var validate = validator.New()

// Validate checks the fields every backend requires.
func Validate(rec Record) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	return nil
}
