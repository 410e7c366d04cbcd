package provider

import (
	"time"

	"github.com/unitv-next/internal/cache"
	"github.com/unitv-next/internal/config"
	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/notify/whatsapp"
	"github.com/unitv-next/internal/payment"
	"github.com/unitv-next/internal/payment/buckpay"
	"github.com/unitv-next/internal/payment/mercadopago"
	"github.com/unitv-next/internal/queue"
	"github.com/unitv-next/internal/repository"
	"github.com/unitv-next/internal/service"
)

// Container wires repositories, the gateway and services together.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	CodeRepo    repository.CodeRepository
	PaymentRepo repository.PaymentRepository

	// Gateway and notification channel
	Gateway  payment.Gateway
	WhatsApp *whatsapp.Client

	// Services
	ChargeService      *service.ChargeService
	FulfillmentService *service.FulfillmentService
	StatusService      *service.StatusService
	InventoryService   *service.InventoryService
	DeliveryService    *service.DeliveryService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	if err := c.initGateway(); err != nil {
		return nil, err
	}
	c.initNotifier()
	c.initServices()

	return c, nil
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CodeRepo = repository.NewCodeRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
}

func (c *Container) initGateway() error {
	switch c.Config.Gateway.Provider {
	case constants.GatewayProviderMercadoPago:
		gw, err := mercadopago.New(mercadopago.Config{
			BaseURL:     c.Config.Gateway.MercadoPago.BaseURL,
			AccessToken: c.Config.Gateway.MercadoPago.AccessToken,
			Timeout:     time.Duration(c.Config.Gateway.MercadoPago.TimeoutMS) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		c.Gateway = gw
	case constants.GatewayProviderBuckPay, "":
		gw, err := buckpay.New(buckpay.Config{
			BaseURL:     c.Config.Gateway.BuckPay.BaseURL,
			SecretToken: c.Config.Gateway.BuckPay.SecretToken,
			Timeout:     time.Duration(c.Config.Gateway.BuckPay.TimeoutMS) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		c.Gateway = gw
	default:
		return payment.ErrProviderNotSupported
	}
	logger.Infow("provider_gateway_ready", "provider", c.Gateway.Name())
	return nil
}

func (c *Container) initNotifier() {
	if !c.Config.Notifier.Enabled {
		return
	}
	client, err := whatsapp.New(whatsapp.Config{
		BaseURL:  c.Config.Notifier.BaseURL,
		APIKey:   c.Config.Notifier.APIKey,
		Instance: c.Config.Notifier.Instance,
		Timeout:  time.Duration(c.Config.Notifier.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		logger.Warnw("provider_init_whatsapp_failed", "error", err)
		return
	}
	c.WhatsApp = client
}

func (c *Container) initServices() {
	var sender service.TextSender
	if c.WhatsApp != nil {
		sender = c.WhatsApp
	}
	c.DeliveryService = service.NewDeliveryService(c.PaymentRepo, sender)
	c.ChargeService = service.NewChargeService(c.PaymentRepo, c.Gateway)
	c.FulfillmentService = service.NewFulfillmentService(c.PaymentRepo, c.CodeRepo, c.QueueClient, c.DeliveryService)
	c.StatusService = service.NewStatusService(c.PaymentRepo, c.Gateway, c.FulfillmentService)
	c.InventoryService = service.NewInventoryService(c.CodeRepo, c.PaymentRepo)
}
