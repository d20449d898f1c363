package payment

import (
	"context"
	"fmt"

	"fanpass/internal/services/payment/mockpay"
	"fanpass/internal/services/payment/stripe"
)

// Factory creates payment gateway instances
type Factory struct{}

// NewFactory creates a new payment gateway factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateGateway creates a gateway instance based on provider type and configuration
func (f *Factory) CreateGateway(ctx context.Context, provider Provider, config interface{}) (Gateway, error) {
	switch provider {
	case ProviderStripe:
		stripeConfig, ok := config.(*stripe.Config)
		if !ok {
			return nil, fmt.Errorf("invalid stripe config type, expected *stripe.Config")
		}
		return NewStripeGateway(ctx, stripeConfig)

	case ProviderMockpay:
		mockpayConfig, ok := config.(*mockpay.Config)
		if !ok {
			return nil, fmt.Errorf("invalid mockpay config type, expected *mockpay.Config")
		}
		return NewMockpayGateway(ctx, mockpayConfig)

	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", provider)
	}
}

// GetSupportedProviders returns list of supported payment providers
func (f *Factory) GetSupportedProviders() []Provider {
	return []Provider{
		ProviderStripe,
		ProviderMockpay,
	}
}
