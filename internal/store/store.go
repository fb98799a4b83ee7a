// Package store persists finished scans in SQLite.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"netscout/internal/scan"
)

// ScanRecord is one persisted scan run.
type ScanRecord struct {
	gorm.Model

	Network   string `gorm:"index"`
	Started   time.Time
	Finished  time.Time
	Cancelled bool
	// Probed port list
	Ports        datatypes.JSON
	TotalFound   int
	RoutersFound int
	Findings     []Finding `gorm:"foreignKey:ScanID;constraint:OnDelete:CASCADE"`
}

// Finding is one web service found during a scan.
type Finding struct {
	gorm.Model

	ScanID        uint   `gorm:"index"`
	IP            string `gorm:"index"`
	Port          int
	URL           string
	StatusCode    int
	Title         string
	Server        string
	ContentType   string
	Encoding      string
	ContentLength int
	IsRouter      bool
	DeviceType    string
}

// Store wraps the database connection.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := db.AutoMigrate(&ScanRecord{}, &Finding{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}
	return &Store{db: db}, nil
}

// dsn enables foreign keys through the connection string so that every
// pooled connection enforces the findings cascade.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun stores run and its findings in a single transaction and returns
// the new record.
func (s *Store) SaveRun(ctx context.Context, network string, run scan.Run) (*ScanRecord, error) {
	ports, err := json.Marshal(run.Config.Ports)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode ports")
	}

	record := &ScanRecord{
		Network:      network,
		Started:      run.Started,
		Finished:     run.Finished,
		Cancelled:    run.Cancelled,
		Ports:        datatypes.JSON(ports),
		TotalFound:   len(run.Results),
		RoutersFound: len(run.Routers()),
	}
	for _, res := range run.Results {
		record.Findings = append(record.Findings, fromResult(res))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return errors.Wrap(err, "failed to create scan record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Scans lists stored runs, newest first.
func (s *Store) Scans(ctx context.Context) ([]ScanRecord, error) {
	var records []ScanRecord
	if err := s.db.WithContext(ctx).Order("id desc").Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list scans")
	}
	return records, nil
}

// Findings returns the results stored for scanID in insertion order.
func (s *Store) Findings(ctx context.Context, scanID uint) ([]scan.Result, error) {
	var rows []Finding
	if err := s.db.WithContext(ctx).Where("scan_id = ?", scanID).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find findings")
	}
	out := make([]scan.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toResult())
	}
	return out, nil
}

func fromResult(res scan.Result) Finding {
	return Finding{
		IP:            res.IP,
		Port:          res.Port,
		URL:           res.URL,
		StatusCode:    res.StatusCode,
		Title:         res.Title,
		Server:        res.Server,
		ContentType:   res.ContentType,
		Encoding:      res.Encoding,
		ContentLength: res.ContentLength,
		IsRouter:      res.IsRouter,
		DeviceType:    string(res.DeviceType),
	}
}

func (f Finding) toResult() scan.Result {
	return scan.Result{
		IP:            f.IP,
		Port:          f.Port,
		URL:           f.URL,
		StatusCode:    f.StatusCode,
		Title:         f.Title,
		Server:        f.Server,
		ContentType:   f.ContentType,
		Encoding:      f.Encoding,
		ContentLength: f.ContentLength,
		IsRouter:      f.IsRouter,
		DeviceType:    scan.DeviceType(f.DeviceType),
	}
}
