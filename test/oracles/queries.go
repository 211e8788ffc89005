// Package oracles holds the data invariants the stress harness checks while
// the actors churn. Every query returns rows only when an invariant is
// violated.
package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_zone_window_valid",
			SQL:  `SELECT id, start_at, end_at FROM zones WHERE end_at <= start_at`,
		},
		{
			Name: "O2_circle_radius_bounds",
			SQL: `SELECT id, geometry->>'radius' FROM zones
                  WHERE geometry->>'type' = 'circle'
                    AND ((geometry->>'radius')::float < 100 OR (geometry->>'radius')::float > 4000)`,
		},
		{
			Name: "O3_polygon_min_points",
			SQL: `SELECT id FROM zones
                  WHERE geometry->>'type' = 'polygon'
                    AND jsonb_array_length(geometry->'points') < 3`,
		},
		{
			Name: "O4_certified_stamped",
			SQL:  `SELECT id FROM users WHERE certified AND certified_at IS NULL`,
		},
		{
			Name: "O5_zone_owner_may_publish",
			SQL: `SELECT z.id FROM zones z
                  JOIN users u ON u.id = z.created_by
                  WHERE u.role = 'randonneur'`,
		},
		{
			Name: "O6_updated_at_monotonic",
			SQL:  `SELECT id FROM zones WHERE updated_at < created_at`,
		},
		{
			Name: "O7_zone_audit_has_actor",
			SQL: `SELECT id FROM audit_events
                  WHERE type LIKE 'ZONE_%' AND actor_id IS NULL`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
