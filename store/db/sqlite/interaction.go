package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/armi/store"
)

func (d *DB) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.ExtractedData == "" {
		create.ExtractedData = "{}"
	}

	stmt := `INSERT INTO interaction (id, profile_id, created_ts, description, extracted_data) VALUES (` + placeholders(5) + `)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.ProfileID, create.CreatedTs, create.Description, create.ExtractedData,
	); err != nil {
		return nil, fmt.Errorf("failed to create interaction: %w", err)
	}
	return create, nil
}

func (d *DB) ListInteractions(ctx context.Context, find *store.FindInteraction) ([]*store.Interaction, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ProfileID; v != nil {
		where, args = append(where, "profile_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, profile_id, created_ts, description, extracted_data FROM interaction
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Interaction, 0)
	for rows.Next() {
		var i store.Interaction
		if err := rows.Scan(&i.ID, &i.ProfileID, &i.CreatedTs, &i.Description, &i.ExtractedData); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		list = append(list, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return list, nil
}
