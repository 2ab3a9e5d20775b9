package services_test

import (
	"context"
	"testing"

	"inkflow/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithDocument(ctx, "12345-2.xml")
	ctx = services.WithStage(ctx, "parse")
	ctx = services.WithRequestID(ctx, "req-123")

	if name, ok := services.DocumentFromContext(ctx); !ok || name != "12345-2.xml" {
		t.Fatalf("unexpected document: %v %v", name, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "parse" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
