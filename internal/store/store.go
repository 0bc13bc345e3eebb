package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricing-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetLocalities retrieves all localities
func (s *Store) GetLocalities(ctx context.Context) ([]models.Locality, error) {
	var localities []models.Locality
	err := s.db.SelectContext(ctx, &localities, "SELECT * FROM localities ORDER BY name")
	return localities, err
}

// GetLocalityByID retrieves a locality by ID
func (s *Store) GetLocalityByID(ctx context.Context, id int64) (*models.Locality, error) {
	var locality models.Locality
	err := s.db.GetContext(ctx, &locality, "SELECT * FROM localities WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("locality not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &locality, nil
}

// GetCatalogs retrieves all catalogs, optionally with their member localities
func (s *Store) GetCatalogs(ctx context.Context, includeLocalities bool) ([]models.Catalog, error) {
	var catalogs []models.Catalog
	err := s.db.SelectContext(ctx, &catalogs, "SELECT * FROM catalogs ORDER BY id")
	if err != nil {
		return nil, err
	}

	if includeLocalities {
		for i := range catalogs {
			localities, err := s.GetCatalogLocalities(ctx, catalogs[i].ID)
			if err != nil {
				return nil, err
			}
			catalogs[i].Localities = localities
		}
	}

	return catalogs, nil
}

// GetCatalogLocalities retrieves the member localities of a catalog
func (s *Store) GetCatalogLocalities(ctx context.Context, catalogID int64) ([]models.Locality, error) {
	var localities []models.Locality
	err := s.db.SelectContext(ctx, &localities, `
		SELECT l.* FROM localities l
		JOIN catalog_localities cl ON cl.locality_id = l.id
		WHERE cl.catalog_id = $1
		ORDER BY l.name`, catalogID)
	return localities, err
}

// ReplaceCatalogLocalities replaces a catalog's membership set in one transaction
func (s *Store) ReplaceCatalogLocalities(ctx context.Context, catalogID int64, localityIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM catalog_localities WHERE catalog_id = $1", catalogID); err != nil {
		return fmt.Errorf("failed to clear catalog membership: %w", err)
	}

	for _, localityID := range localityIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO catalog_localities (catalog_id, locality_id) VALUES ($1, $2)",
			catalogID, localityID); err != nil {
			return fmt.Errorf("failed to add locality %d to catalog: %w", localityID, err)
		}
	}

	return tx.Commit()
}

// GetCatalogIDsForLocality retrieves the catalogs a locality belongs to
func (s *Store) GetCatalogIDsForLocality(ctx context.Context, localityID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT catalog_id FROM catalog_localities WHERE locality_id = $1", localityID)
	return ids, err
}

// GetAddressesByCustomer retrieves a customer's saved delivery addresses
func (s *Store) GetAddressesByCustomer(ctx context.Context, customerID int64) ([]models.CustomerAddress, error) {
	var addresses []models.CustomerAddress
	err := s.db.SelectContext(ctx, &addresses,
		"SELECT * FROM customer_addresses WHERE customer_id = $1 ORDER BY id", customerID)
	return addresses, err
}

// GetAddressByID retrieves a saved address by ID
func (s *Store) GetAddressByID(ctx context.Context, id int64) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := s.db.GetContext(ctx, &address, "SELECT * FROM customer_addresses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("address not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}
