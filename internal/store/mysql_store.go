package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evyataryagoni/cepcache/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CEPModel is the GORM model for the cep table
//
//	CREATE TABLE cep (
//	    id           BIGINT AUTO_INCREMENT PRIMARY KEY,
//	    code         CHAR(8)      NOT NULL UNIQUE,
//	    street       VARCHAR(255),
//	    neighborhood VARCHAR(255),
//	    city         VARCHAR(255),
//	    state        CHAR(2)
//	);
type CEPModel struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Code         string `gorm:"column:code;size:8;uniqueIndex"`
	Street       string `gorm:"column:street"`
	Neighborhood string `gorm:"column:neighborhood"`
	City         string `gorm:"column:city"`
	State        string `gorm:"column:state;size:2"`
}

// TableName specifies the table name for GORM
// By default, GORM would pluralize to "cep_models"
func (CEPModel) TableName() string {
	return "cep"
}

func newCEPModel(record *models.PostalRecord) *CEPModel {
	return &CEPModel{
		Code:         record.Code,
		Street:       record.Street,
		Neighborhood: record.Neighborhood,
		City:         record.City,
		State:        record.State,
	}
}

func (m *CEPModel) toRecord() models.PostalRecord {
	return models.PostalRecord{
		ID:           m.ID,
		Code:         m.Code,
		Street:       m.Street,
		Neighborhood: m.Neighborhood,
		City:         m.City,
		State:        m.State,
	}
}

// MySQLStore implements Store using MySQL with GORM
// Each call borrows a pooled connection for its duration only
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store using GORM
//
// Parameters:
//   - dsn: Data Source Name (connection string)
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//     Example: root:password@tcp(localhost:3306)/cep?parseTime=true
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: MYSQL_DSN is empty", models.ErrStorage)
	}

	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // set to Info for query debugging
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to MySQL: %w", models.ErrStorage, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get database instance: %w", models.ErrStorage, err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%w: failed to ping MySQL database: %w", models.ErrStorage, err)
	}

	return &MySQLStore{db: db}, nil
}

// Insert stores a record and returns the auto-increment id
// A duplicate code violates the unique index and is reported as a storage error
func (s *MySQLStore) Insert(ctx context.Context, record *models.PostalRecord) (int64, error) {
	row := newCEPModel(record)

	// INSERT INTO `cep` (`code`,`street`,`neighborhood`,`city`,`state`) VALUES (?,?,?,?,?)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("%w: insert cep %s: %w", models.ErrStorage, record.Code, err)
	}

	record.ID = row.ID
	return row.ID, nil
}

// FindByCode looks up a record by its normalized code
func (s *MySQLStore) FindByCode(ctx context.Context, code string) (*models.PostalRecord, bool, error) {
	var row CEPModel

	// SELECT * FROM `cep` WHERE code = ? ORDER BY `cep`.`id` LIMIT 1
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: query cep %s: %w", models.ErrStorage, code, err)
	}

	record := row.toRecord()
	return &record, true, nil
}

// ListAll returns every record ordered by id
func (s *MySQLStore) ListAll(ctx context.Context) ([]models.PostalRecord, error) {
	var rows []CEPModel

	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list ceps: %w", models.ErrStorage, err)
	}

	records := make([]models.PostalRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}
	return records, nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
