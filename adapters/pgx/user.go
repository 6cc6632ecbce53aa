package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/silid/core"
)

const userColumns = `id, name, email, password_hash, role, bio, phone, date_of_birth, gender, country, profile_image, is_active, created_at`

func scanUser(row pgx.Row) (*core.User, error) {
	user := &core.User{}
	var role string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role,
		&user.Bio, &user.Phone, &user.DateOfBirth, &user.Gender, &user.Country, &user.ProfileImage,
		&user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = core.Role(role)
	return user, nil
}

// CreateUserWithSession inserts both rows in one transaction so a failed
// session insert never leaves an account without its first login.
func (a *Adapter) CreateUserWithSession(ctx context.Context, user *core.User, session *core.Session) error {
	err := pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		q := `INSERT INTO public.users
			(id, name, email, password_hash, role, bio, phone, date_of_birth, gender, country, profile_image, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
		_, err := tx.Exec(ctx, q,
			user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role),
			user.Bio, user.Phone, user.DateOfBirth, user.Gender, user.Country, user.ProfileImage,
			user.IsActive, user.CreatedAt,
		)
		if err != nil {
			return err
		}
		return insertSession(ctx, tx, session)
	})
	if err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return core.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`
	return scanUser(a.pool.QueryRow(ctx, q, id))
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE email = $1`
	return scanUser(a.pool.QueryRow(ctx, q, email))
}

func (a *Adapter) UpdateProfile(ctx context.Context, id string, update core.ProfileUpdate) error {
	q, args, err := buildProfileUpdate(id, update)
	if err != nil {
		return err
	}
	return a.execOnUser(ctx, q, args...)
}

func (a *Adapter) SetUserRole(ctx context.Context, id string, role core.Role) error {
	return a.execOnUser(ctx, `UPDATE public.users SET role = $1, updated_at = now() WHERE id = $2`, string(role), id)
}

func (a *Adapter) SetUserActive(ctx context.Context, id string, active bool) error {
	return a.execOnUser(ctx, `UPDATE public.users SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
}

// execOnUser runs a single-row update and maps zero affected rows to ErrUserNotFound.
func (a *Adapter) execOnUser(ctx context.Context, q string, args ...any) error {
	tag, err := a.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (a *Adapter) UpdatePasswordAndRevokeSessions(ctx context.Context, id, passwordHash string) (int, error) {
	var revoked int64
	err := pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE public.users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return core.ErrUserNotFound
		}

		tag, err = tx.Exec(ctx, `DELETE FROM public.user_sessions WHERE user_id = $1`, id)
		if err != nil {
			return err
		}
		revoked = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(revoked), nil
}

// buildProfileUpdate renders the UPDATE for an allow-listed profile change.
// Columns come from core.ProfileField, never from caller input.
func buildProfileUpdate(id string, update core.ProfileUpdate) (string, []any, error) {
	if len(update) == 0 {
		return "", nil, core.ErrNoValidFields
	}

	sets := make([]string, 0, len(update)+1)
	args := make([]any, 0, len(update)+1)

	for _, field := range core.ProfileFields {
		value, ok := update[field]
		if !ok {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field.Column(), len(args)))
	}
	if len(args) == 0 {
		return "", nil, core.ErrNoValidFields
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE public.users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	return q, args, nil
}
