package service

import (
	"github.com/flexprice/taxledger/internal/clock"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/catalog"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	"github.com/flexprice/taxledger/internal/domain/taxcode"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/publisher"
	"github.com/flexprice/taxledger/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Clock  clock.Clock
	Sentry *sentry.Service

	// Repositories
	TaxCodeRepo  taxcode.Repository
	TaxationRepo taxation.Repository

	// Collaborators
	Catalog           catalog.Lookup
	TaxConfigs        TaxConfigProvider
	TaxResolvers      *TaxResolvers
	TaxationPublisher publisher.TaxationPublisher
}

// NewServiceParams creates a new ServiceParams
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	clock clock.Clock,
	sentry *sentry.Service,
	taxCodeRepo taxcode.Repository,
	taxationRepo taxation.Repository,
	catalog catalog.Lookup,
	taxConfigs TaxConfigProvider,
	taxResolvers *TaxResolvers,
	taxationPublisher publisher.TaxationPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		Clock:             clock,
		Sentry:            sentry,
		TaxCodeRepo:       taxCodeRepo,
		TaxationRepo:      taxationRepo,
		Catalog:           catalog,
		TaxConfigs:        taxConfigs,
		TaxResolvers:      taxResolvers,
		TaxationPublisher: taxationPublisher,
	}
}
