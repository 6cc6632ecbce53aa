package pgx

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lborres/silid/core"
)

// Requirement: profile updates only ever write allow-listed columns, in a
// stable order, with the user id as the last placeholder.
func TestBuildProfileUpdate(t *testing.T) {
	dob := time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		update   core.ProfileUpdate
		wantSQL  string
		wantArgs []any
		wantErr  error
	}{
		{
			name:     "single field",
			update:   core.ProfileUpdate{core.FieldBio: "hello"},
			wantSQL:  "UPDATE public.users SET bio = $1, updated_at = now() WHERE id = $2",
			wantArgs: []any{"hello", "u1"},
		},
		{
			name: "several fields follow allow-list order",
			update: core.ProfileUpdate{
				core.FieldProfileImage: "https://img",
				core.FieldName:         "Alicia",
				core.FieldDateOfBirth:  dob,
			},
			wantSQL:  "UPDATE public.users SET name = $1, date_of_birth = $2, profile_image = $3, updated_at = now() WHERE id = $4",
			wantArgs: []any{"Alicia", dob, "https://img", "u1"},
		},
		{
			name:     "nil clears a column",
			update:   core.ProfileUpdate{core.FieldPhone: nil},
			wantSQL:  "UPDATE public.users SET phone = $1, updated_at = now() WHERE id = $2",
			wantArgs: []any{nil, "u1"},
		},
		{
			name:    "unknown field is ignored",
			update:  core.ProfileUpdate{core.ProfileField("role"): "admin"},
			wantErr: core.ErrNoValidFields,
		},
		{
			name:    "empty update",
			update:  core.ProfileUpdate{},
			wantErr: core.ErrNoValidFields,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			q, args, err := buildProfileUpdate("u1", test.update)

			if !errors.Is(err, test.wantErr) {
				t.Fatalf("buildProfileUpdate() error = %v, want %v", err, test.wantErr)
			}
			if test.wantErr != nil {
				return
			}
			if q != test.wantSQL {
				t.Errorf("sql = %q\nwant  %q", q, test.wantSQL)
			}
			if fmt.Sprint(args) != fmt.Sprint(test.wantArgs) {
				t.Errorf("args = %v, want %v", args, test.wantArgs)
			}
			if strings.Contains(q, "role") || strings.Contains(q, "email") {
				t.Error("profile updates must never touch role or email")
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: usersEmailKey}

	if !isUniqueViolation(fmt.Errorf("wrapped: %w", dup), usersEmailKey) {
		t.Error("wrapped email violation should match")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "user_sessions_token_key"}, usersEmailKey) {
		t.Error("other constraints should not match")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("plain"), "") {
		t.Error("non-pg errors should not match")
	}
}

func TestMigrationURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/silid?sslmode=disable": "pgx5://u:p@localhost:5432/silid?sslmode=disable",
		"postgresql://localhost/silid":                        "pgx5://localhost/silid",
		"pgx5://localhost/silid":                              "pgx5://localhost/silid",
	}

	for in, want := range tests {
		if got := MigrationURL(in); got != want {
			t.Errorf("MigrationURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("embedded migrations = %d files, want 4", len(entries))
	}
}
