package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/armi/store"
)

const profileColumns = `id, created_ts, updated_ts, name, age, phone, email, birthday,
	relationship, occupation, location, notes,
	food_likes, food_dislikes, interests, kids, tags`

func (d *DB) CreateProfile(ctx context.Context, create *store.Profile) (*store.Profile, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	create.UpdatedTs = create.CreatedTs

	lists, err := encodeProfileLists(create)
	if err != nil {
		return nil, err
	}

	fields := []string{
		"id", "created_ts", "updated_ts", "name", "age", "phone", "email", "birthday",
		"relationship", "occupation", "location", "notes",
		"food_likes", "food_dislikes", "interests", "kids", "tags",
	}
	args := []any{
		create.ID, create.CreatedTs, create.UpdatedTs, create.Name, nullableInt(create.Age),
		create.Phone, create.Email, create.Birthday,
		create.Relationship, create.Occupation, create.Location, create.Notes,
	}
	args = append(args, lists...)

	stmt := `INSERT INTO profile (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return create, nil
}

func (d *DB) UpdateProfile(ctx context.Context, update *store.Profile) (*store.Profile, error) {
	update.UpdatedTs = time.Now().Unix()

	lists, err := encodeProfileLists(update)
	if err != nil {
		return nil, err
	}

	args := []any{
		update.UpdatedTs, update.Name, nullableInt(update.Age), update.Phone, update.Email, update.Birthday,
		update.Relationship, update.Occupation, update.Location, update.Notes,
	}
	args = append(args, lists...)
	args = append(args, update.ID)

	stmt := `UPDATE profile SET
		updated_ts = ?, name = ?, age = ?, phone = ?, email = ?, birthday = ?,
		relationship = ?, occupation = ?, location = ?, notes = ?,
		food_likes = ?, food_dislikes = ?, interests = ?, kids = ?, tags = ?
		WHERE id = ?`
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("profile %s not found", update.ID)
	}
	return update, nil
}

func (d *DB) ListProfiles(ctx context.Context, find *store.FindProfile) ([]*store.Profile, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)+" COLLATE NOCASE"), append(args, strings.TrimSpace(*v))
	}

	query := `SELECT ` + profileColumns + ` FROM profile WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Profile, 0)
	for rows.Next() {
		var p store.Profile
		var age sql.NullInt64
		var likes, dislikes, interests, kids, tags string
		if err := rows.Scan(
			&p.ID, &p.CreatedTs, &p.UpdatedTs, &p.Name, &age,
			&p.Phone, &p.Email, &p.Birthday,
			&p.Relationship, &p.Occupation, &p.Location, &p.Notes,
			&likes, &dislikes, &interests, &kids, &tags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if age.Valid {
			v := int(age.Int64)
			p.Age = &v
		}
		for _, pair := range []struct {
			raw string
			dst *[]string
		}{
			{likes, &p.FoodLikes}, {dislikes, &p.FoodDislikes}, {interests, &p.Interests}, {kids, &p.Kids}, {tags, &p.Tags},
		} {
			decoded, err := decodeList(pair.raw)
			if err != nil {
				return nil, err
			}
			*pair.dst = decoded
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return list, nil
}

func encodeProfileLists(p *store.Profile) ([]any, error) {
	out := make([]any, 0, 5)
	for _, list := range [][]string{p.FoodLikes, p.FoodDislikes, p.Interests, p.Kids, p.Tags} {
		encoded, err := encodeList(list)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
