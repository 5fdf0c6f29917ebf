package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/armi/store"
)

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.Type == "" {
		create.Type = "general"
	}

	fields := []string{"id", "profile_id", "created_ts", "title", "description", "type", "scheduled_ts", "notification_id"}
	args := []any{
		create.ID, create.ProfileID, create.CreatedTs, create.Title, create.Description,
		create.Type, create.ScheduledTs, create.NotificationID,
	}
	stmt := `INSERT INTO reminder (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
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

	query := `SELECT id, profile_id, created_ts, title, description, type, scheduled_ts, notification_id
		FROM reminder WHERE ` + strings.Join(where, " AND ") + ` ORDER BY scheduled_ts ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Reminder, 0)
	for rows.Next() {
		var r store.Reminder
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.CreatedTs, &r.Title, &r.Description, &r.Type, &r.ScheduledTs, &r.NotificationID); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		list = append(list, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateReminder(ctx context.Context, update *store.UpdateReminder) error {
	set, args := []string{}, []any{}
	if v := update.NotificationID; v != nil {
		set, args = append(set, "notification_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := `UPDATE reminder SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reminder %s not found", update.ID)
	}
	return nil
}
