package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository handles all database operations for the receiving node
type Repository struct {
	db             *gorm.DB
	routineTimeout time.Duration
	inTx           bool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new repository instance
func NewRepository(routineTimeout time.Duration) *Repository {
	return &Repository{routineTimeout: routineTimeout}
}

// NewRepositoryWithDB wraps an already opened gorm handle
func NewRepositoryWithDB(db *gorm.DB, routineTimeout time.Duration) *Repository {
	return &Repository{db: db, routineTimeout: routineTimeout}
}

// ConnectDB establishes database connection and performs migrations
func (r *Repository) ConnectDB(dsn string) error {
	for i := 0; i < 10; i++ {
		log.Printf("Database connection attempt %d...\n", i+1)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Printf("Connection attempt %d failed: %v\n", i+1, err)
			time.Sleep(2 * time.Second)
			continue
		}
		r.db = db
		log.Println("✓ Connected to database")

		if err := r.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		r.Seed()

		return nil
	}
	return fmt.Errorf("failed to connect to database after 10 attempts")
}

// Migrate performs database schema migrations
func (r *Repository) Migrate() error {
	log.Println("Running database migrations...")

	migrator := r.db.Migrator()

	// Order matters due to foreign keys
	tables := []interface{}{
		&models.FacilityConfig{},
		&models.RequirementProfile{},
		&models.Operator{},
		&models.Product{},
		&models.Confirmation{},
		&models.Batch{},
		&models.BatchReceiver{},
		&models.PurchaseOrder{},
		&models.Pallet{},
		&models.PalletDetail{},
		&models.InventoryLot{},
		&models.InventoryTransaction{},
		&models.Hold{},
		&models.CrossDockOrder{},
		&models.Location{},
		&models.AuditRecord{},
		&models.InventoryException{},
	}

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := migrator.CreateTable(table); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}

// Seed initializes database with demo data
func (r *Repository) Seed() {
	var facilityCount int64
	r.db.Model(&models.FacilityConfig{}).Count(&facilityCount)
	if facilityCount > 0 {
		log.Println("Seed data already exists, skipping...")
		return
	}

	log.Println("Seeding database with demo data...")

	fx := DemoFixtures()
	rows := []interface{}{
		&fx.Facilities, &fx.Profiles, &fx.Operators, &fx.Products,
		&fx.Confirmations, &fx.Batches, &fx.PurchaseOrders,
		&fx.CrossDockOrders, &fx.Locations,
	}
	for _, row := range rows {
		if err := r.db.Create(row).Error; err != nil {
			log.Printf("Error seeding %T: %v", row, err)
		}
	}

	log.Println("✓ Database seeding completed")
}

// WithTx runs fn inside one database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if r.inTx {
		return fn(r)
	}

	dbTx := r.db.WithContext(ctx).Begin()
	if dbTx.Error != nil {
		return &RepositoryError{
			Code:    CodeDatabase,
			Message: "Failed to start transaction",
			Detail:  dbTx.Error.Error(),
		}
	}

	txRepo := &Repository{db: dbTx, routineTimeout: r.routineTimeout, inTx: true}
	if err := fn(txRepo); err != nil {
		dbTx.Rollback()
		return err
	}

	if err := dbTx.Commit().Error; err != nil {
		return &RepositoryError{
			Code:    CodeDatabase,
			Message: "Failed to commit transaction",
			Detail:  err.Error(),
		}
	}
	return nil
}

// DB exposes the underlying gorm handle
func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}
