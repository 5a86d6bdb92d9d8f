package repository

import (
	"github.com/flexprice/taxledger/internal/domain/taxation"
	"github.com/flexprice/taxledger/internal/domain/taxcode"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/postgres"
	postgresRepo "github.com/flexprice/taxledger/internal/repository/postgres"
)

func NewTaxCodeRepository(db *postgres.DB, logger *logger.Logger) taxcode.Repository {
	return postgresRepo.NewTaxCodeRepository(db, logger)
}

func NewTaxationRepository(db *postgres.DB, logger *logger.Logger) taxation.Repository {
	return postgresRepo.NewTaxationRepository(db, logger)
}
