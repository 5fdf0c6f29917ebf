package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/armi/store"
)

func (d *DB) CreateScheduledText(ctx context.Context, create *store.ScheduledText) (*store.ScheduledText, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	fields := []string{"id", "profile_id", "created_ts", "phone_number", "message", "scheduled_ts", "notification_id"}
	args := []any{
		create.ID, create.ProfileID, create.CreatedTs, create.PhoneNumber, create.Message,
		create.ScheduledTs, create.NotificationID,
	}
	stmt := `INSERT INTO scheduled_text (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create scheduled text: %w", err)
	}
	return create, nil
}

func (d *DB) ListScheduledTexts(ctx context.Context, find *store.FindScheduledText) ([]*store.ScheduledText, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ProfileID; v != nil {
		where, args = append(where, "profile_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ScheduledAfter; v != nil {
		where, args = append(where, "scheduled_ts > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, profile_id, created_ts, phone_number, message, scheduled_ts, notification_id
		FROM scheduled_text WHERE ` + strings.Join(where, " AND ") + ` ORDER BY scheduled_ts ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled texts: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ScheduledText, 0)
	for rows.Next() {
		var t store.ScheduledText
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.CreatedTs, &t.PhoneNumber, &t.Message, &t.ScheduledTs, &t.NotificationID); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled text: %w", err)
		}
		list = append(list, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled texts: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateScheduledText(ctx context.Context, update *store.UpdateScheduledText) error {
	set, args := []string{}, []any{}
	if v := update.NotificationID; v != nil {
		set, args = append(set, "notification_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := `UPDATE scheduled_text SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to update scheduled text: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("scheduled text %s not found", update.ID)
	}
	return nil
}
