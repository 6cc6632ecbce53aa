package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lborres/silid/core"
)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertSession(ctx context.Context, db execer, s *core.Session) error {
	q := `INSERT INTO public.user_sessions (id, user_id, token, ip_address, user_agent, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := db.Exec(ctx, q, s.ID, s.UserID, s.TokenHash, s.IPAddress, s.UserAgent, s.ExpiresAt, s.CreatedAt)
	return err
}

func (a *Adapter) CreateSession(ctx context.Context, session *core.Session) error {
	return insertSession(ctx, a.pool, session)
}

func (a *Adapter) GetLiveSession(ctx context.Context, tokenHash string, now time.Time) (*core.SessionData, error) {
	q := `SELECT s.id, s.user_id, s.token, s.ip_address, s.user_agent, s.expires_at, s.created_at,
			u.id, u.name, u.email, u.role
		FROM public.user_sessions s
		JOIN public.users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2 AND u.is_active`

	session := &core.Session{}
	identity := &core.Identity{}
	var role string

	err := a.pool.QueryRow(ctx, q, tokenHash, now).Scan(
		&session.ID, &session.UserID, &session.TokenHash, &session.IPAddress, &session.UserAgent,
		&session.ExpiresAt, &session.CreatedAt,
		&identity.ID, &identity.Name, &identity.Email, &role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrSessionNotFound
		}
		return nil, err
	}
	identity.Role = core.Role(role)

	return &core.SessionData{Identity: identity, Session: session}, nil
}

func (a *Adapter) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	_, err := a.pool.Exec(ctx, `DELETE FROM public.user_sessions WHERE token = $1`, tokenHash)
	return err
}

func (a *Adapter) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	return a.deleteCount(ctx, `DELETE FROM public.user_sessions WHERE user_id = $1`, userID)
}

func (a *Adapter) DeleteExpiredUserSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	return a.deleteCount(ctx, `DELETE FROM public.user_sessions WHERE user_id = $1 AND expires_at <= $2`, userID, now)
}

func (a *Adapter) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return a.deleteCount(ctx, `DELETE FROM public.user_sessions WHERE expires_at <= $1`, now)
}

func (a *Adapter) deleteCount(ctx context.Context, q string, args ...any) (int, error) {
	tag, err := a.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
