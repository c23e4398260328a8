package services

import (
	"context"
	"fmt"
	"time"

	"github.com/crocodeal/crocodealphotographie/pkg/models"
	"github.com/rfberaldo/sqlz"
)

type RunServicer interface {
	Record(report models.RunReport) error
	GetRecent(limit int) ([]models.RunReport, error)
}

type RunServiceConfig struct {
	DB *sqlz.DB
}

/*
RunService keeps the history of regeneration runs for operator visibility.
*/
type RunService struct {
	db *sqlz.DB
}

func NewRunService(config RunServiceConfig) RunService {
	return RunService{
		db: config.DB,
	}
}

func (s RunService) Record(report models.RunReport) error {
	var (
		err error
	)

	sql := `
INSERT INTO runs (
   started_at
   , triggered_by
   , scanned
   , valid
   , rejected
   , covers
   , changed
   , success
   , message
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

	params := []any{
		report.StartedAt,
		report.Trigger,
		report.Scanned,
		report.Valid,
		report.Rejected,
		report.Covers,
		report.Changed,
		report.Success,
		report.Message,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error recording regeneration run: %w", err)
	}

	return nil
}

func (s RunService) GetRecent(limit int) ([]models.RunReport, error) {
	var (
		err error
	)

	result := []models.RunReport{}

	sql := `
SELECT
   r.id
   , r.started_at
   , r.triggered_by
   , r.scanned
   , r.valid
   , r.rejected
   , r.covers
   , r.changed
   , r.success
   , r.message
FROM runs AS r
ORDER BY r.started_at DESC
LIMIT ?
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, limit); err != nil {
		return result, fmt.Errorf("error querying for recent runs: %w", err)
	}

	return result, nil
}
