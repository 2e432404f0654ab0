package services

import (
	"context"
	"testing"

	"github.com/lumenlearn/assessment-engine/internal/events"
	"github.com/lumenlearn/assessment-engine/internal/validator"
)

func TestServiceManagerLifecycle(t *testing.T) {
	f := newFakeRepository()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	sm := NewDefaultServiceManager(nil, f, logger, validator.New(), publisher)
	ctx := context.Background()

	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	// A second Initialize is a no-op.
	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("repeated Initialize() error = %v", err)
	}

	if sm.Quiz() == nil || sm.Response() == nil || sm.Progress() == nil || sm.Bank() == nil || sm.ImportExport() == nil {
		t.Fatal("initialized manager returned a nil service")
	}

	if err := sm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := sm.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := sm.Shutdown(ctx); err != nil {
		t.Fatalf("repeated Shutdown() error = %v", err)
	}
	if err := sm.HealthCheck(ctx); err == nil {
		t.Errorf("HealthCheck() after shutdown = nil, want error")
	}
}

func TestServiceManagerPanicsBeforeInitialize(t *testing.T) {
	f := newFakeRepository()
	sm := NewDefaultServiceManager(nil, f, testLogger(), validator.New(), nil)

	defer func() {
		if recover() == nil {
			t.Errorf("getter on an uninitialized manager did not panic")
		}
	}()
	sm.Quiz()
}
