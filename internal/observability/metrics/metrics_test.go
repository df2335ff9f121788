package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("household_id", "123"),
		attribute.String("user_id", "456"),
		attribute.String("meter_type", "electricity"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "household_id" && attrs[1].Key != "household_id" {
		t.Fatalf("expected household_id to be retained")
	}
	if attrs[0].Key != "meter_type" && attrs[1].Key != "meter_type" {
		t.Fatalf("expected meter_type to be retained")
	}
}

func TestFilterAttributesEmptyInput(t *testing.T) {
	attrs := FilterAttributes()
	if len(attrs) != 0 {
		t.Fatalf("expected no attributes, got %d", len(attrs))
	}
}
