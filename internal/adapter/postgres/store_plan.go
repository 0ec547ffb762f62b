package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

const planColumns = `id, owner_id, title, original_idea, template_id, sections, version, created_at, updated_at`

func scanPlan(row scannable) (*plan.Plan, error) {
	var (
		p        plan.Plan
		sections []byte
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.OriginalIdea, &p.TemplateID, &sections, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var body plan.Sections
	if err := json.Unmarshal(sections, &body); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	p.SetSections(body)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Normalize()
	return &p, nil
}

// --- Plans ---

func (s *Store) SavePlan(ctx context.Context, ownerID string, p *plan.Plan) (string, error) {
	id := p.ID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	sections, err := json.Marshal(p.Sections())
	if err != nil {
		return "", fmt.Errorf("marshal sections: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO plans (id, owner_id, title, original_idea, template_id, sections, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, COALESCE($7, now()), now())
		 RETURNING version, created_at, updated_at`,
		id, ownerID, p.Title, p.OriginalIdea, optional(p.TemplateID), sections, nullTime(p),
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return "", classify("save plan "+id, err)
	}

	p.ID = id
	p.OwnerID = ownerID
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return id, nil
}

func (s *Store) ListPlans(ctx context.Context, ownerID string, opts plan.ListOptions) ([]plan.Plan, error) {
	opts = opts.Normalized()
	rows, err := s.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans
		 WHERE owner_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		ownerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []plan.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, id, ownerID string) (*plan.Plan, error) {
	p, err := scanPlan(s.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		return nil, classify("get plan "+id, err)
	}
	return p, nil
}

func (s *Store) UpdatePlan(ctx context.Context, ownerID string, p *plan.Plan) error {
	sections, err := json.Marshal(p.Sections())
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`UPDATE plans SET title = $1, sections = $2, version = version + 1, updated_at = now()
		 WHERE id = $3 AND owner_id = $4 AND version = $5
		 RETURNING version, updated_at`,
		p.Title, sections, p.ID, ownerID, p.Version,
	).Scan(&p.Version, &p.UpdatedAt)
	if err == nil {
		p.UpdatedAt = p.UpdatedAt.UTC()
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return classify("update plan "+p.ID, err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM plans WHERE id = $1 AND owner_id = $2)`, p.ID, ownerID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("update plan %s: %w", p.ID, err)
	}
	if !exists {
		return fmt.Errorf("update plan %s: %w", p.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("update plan %s: %w", p.ID, domain.ErrConflict)
}

func (s *Store) DeletePlan(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return classify("delete plan "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete plan %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// nullTime keeps a generated plan's createdAt and lets the database stamp
// plans that were never generated.
func nullTime(p *plan.Plan) any {
	if p.CreatedAt.IsZero() {
		return nil
	}
	return p.CreatedAt
}
