// Package ingest normalises and validates disruption events before they are
// published to the raw disruption topic.
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

var ErrInvalidEvent = errors.New("invalid disruption event")

const defaultSource = "api"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Enrich trims free-text fields, canonicalises severity casing and fills the
// timestamp, source and data source when the producer left them empty.
func Enrich(e *contracts.DisruptionEvent, now time.Time) {
	e.Location = strings.TrimSpace(e.Location)
	e.EventType = strings.TrimSpace(e.EventType)
	e.Severity = contracts.ParseSeverity(string(e.Severity))
	e.Mode = contracts.TransportMode(strings.ToLower(strings.TrimSpace(string(e.Mode))))
	e.ContainerID = strings.TrimSpace(e.ContainerID)
	e.ShipName = strings.TrimSpace(e.ShipName)
	e.FlightNumber = strings.TrimSpace(e.FlightNumber)

	if strings.TrimSpace(e.Timestamp) == "" {
		e.Timestamp = now.UTC().Format(time.RFC3339)
	}
	if strings.TrimSpace(e.Source) == "" {
		e.Source = defaultSource
	}
	if e.DataSource == "" {
		e.DataSource = contracts.DataSourceReal
	}
}

// Validate reports every failed field as a single ErrInvalidEvent.
func Validate(e contracts.DisruptionEvent) error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", jsonName(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", jsonName(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", jsonName(fe.Field()), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidEvent, strings.Join(msgs, "; "))
}

// Prepare enriches then validates an event in place.
func Prepare(e *contracts.DisruptionEvent, now time.Time) error {
	Enrich(e, now)
	return Validate(*e)
}

func jsonName(field string) string {
	switch field {
	case "EventType":
		return "event_type"
	case "ContainerID":
		return "container_id"
	case "ShipName":
		return "ship_name"
	case "FlightNumber":
		return "flight_number"
	case "DataSource":
		return "data_source"
	}
	return strings.ToLower(field)
}
