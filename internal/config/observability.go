package config

import (
	"github.com/knadh/koanf/v2"
	"github.com/lodestonenet/lodestone/internal/observability"
	"go.uber.org/zap"
)

func LoadObservabilityConfig(config *koanf.Koanf, log *zap.Logger) observability.Config {
	observabilityConfig := observability.Config{
		OtelEndpoint: config.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  config.String("OTEL_SERVICE_NAME"),
		Environment:  config.String("ENVIRONMENT"),
		OtelHeaders:  config.String("OTEL_EXPORTER_OTLP_HEADERS"),
	}

	if observabilityConfig.ServiceName == "" {
		observabilityConfig.ServiceName = "lodestone"
	}

	return observabilityConfig
}
