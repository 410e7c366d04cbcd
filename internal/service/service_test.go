package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/payment"
	"github.com/unitv-next/internal/repository"
)

func setupServiceTest(t *testing.T) (*repository.GormCodeRepository, *repository.GormPaymentRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Code{}, &models.Payment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return repository.NewCodeRepository(db), repository.NewPaymentRepository(db)
}

// stubGateway is a scriptable payment.Gateway.
type stubGateway struct {
	createCalls int
	charge      *payment.Charge
	createErr   error
	pullCharge  *payment.Charge
	pullErr     error
	event       *payment.WebhookEvent
	resolveErr  error
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreateCharge(_ context.Context, input payment.CreateChargeInput) (*payment.Charge, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	charge := *g.charge
	charge.ExternalReference = input.ExternalReference
	return &charge, nil
}

func (g *stubGateway) GetChargeByExternalReference(_ context.Context, _ string) (*payment.Charge, error) {
	if g.pullErr != nil {
		return nil, g.pullErr
	}
	return g.pullCharge, nil
}

func (g *stubGateway) ResolveWebhook(_ context.Context, _ []byte) (*payment.WebhookEvent, error) {
	if g.resolveErr != nil {
		return nil, g.resolveErr
	}
	return g.event, nil
}

// stubSender records outbound WhatsApp messages.
type stubSender struct {
	sent    []string
	sendErr error
}

func (s *stubSender) SendText(_ context.Context, phone, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, phone+"|"+text)
	return nil
}

var errStub = errors.New("stub failure")
