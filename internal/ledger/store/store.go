package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/database"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
)

type Store struct {
	db database.DBTX
}

func New(db database.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) AddRaised(ctx context.Context, projectID uuid.UUID, amount decimal.Decimal) (int64, error) {
	query := `
		UPDATE projects
		SET donation_raised = donation_raised + $1, updated_at = NOW()
		WHERE id = $2
	`

	res, err := s.db.ExecContext(ctx, query, amount, projectID)
	if err != nil {
		return 0, fmt.Errorf("incrementing donation_raised: %w", err)
	}

	return res.RowsAffected()
}

func (s *Store) ProjectTotals(ctx context.Context) ([]ledger.ProjectTotal, error) {
	query := `
		SELECT p.id, p.name, p.donation_raised,
			COALESCE(SUM(d.amount) FILTER (WHERE d.status = 'completed'), 0) AS completed,
			COUNT(d.id) FILTER (WHERE d.status = 'completed') AS completed_count
		FROM projects p
		LEFT JOIN donations d ON d.project_id = p.id
		GROUP BY p.id, p.name, p.donation_raised
		ORDER BY p.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying project totals: %w", err)
	}
	defer rows.Close()

	var totals []ledger.ProjectTotal

	for rows.Next() {
		var t ledger.ProjectTotal
		if err := rows.Scan(&t.ProjectID, &t.ProjectName, &t.Raised, &t.Completed, &t.CompletedCount); err != nil {
			return nil, fmt.Errorf("scanning project total: %w", err)
		}

		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project totals: %w", err)
	}

	return totals, nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*ledger.Project, error) {
	query := `SELECT id, name, donation_raised FROM projects WHERE id = $1`

	var p ledger.Project

	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Raised)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrProjectNotFound
		}

		return nil, fmt.Errorf("getting project: %w", err)
	}

	return &p, nil
}
