package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/connectbase/member-search/internal/core/domain"
)

// MemberRepository is both the Member Store (profile records) and the
// lexical half of the Relevance Store (tsvector full-text search).
type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *MemberRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026040201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS member_profiles (
	membership_id TEXT PRIMARY KEY,
	community_id TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	location TEXT,
	degree TEXT,
	graduation_year INTEGER,
	skills JSONB NOT NULL DEFAULT '[]'::jsonb,
	services JSONB NOT NULL DEFAULT '[]'::jsonb,
	profile_text TEXT NOT NULL DEFAULT '',
	skills_text TEXT NOT NULL DEFAULT '',
	search_vector tsvector GENERATED ALWAYS AS (
		setweight(to_tsvector('english', coalesce(name, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(skills_text, '')), 'B') ||
		setweight(to_tsvector('english', coalesce(profile_text, '')), 'C')
	) STORED,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_member_profiles_search ON member_profiles USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_member_profiles_community ON member_profiles(community_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const profileColumns = `membership_id, community_id, name, email, phone, location, degree, graduation_year, skills, services, profile_text, skills_text`

func (r *MemberRepository) GetProfile(ctx context.Context, membershipID string) (*domain.MemberProfile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+profileColumns+`
FROM member_profiles
WHERE membership_id = $1
`, membershipID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member profile not found: %s", membershipID)
		}
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "get profile", err)
	}
	return profile, nil
}

func (r *MemberRepository) GetProfiles(ctx context.Context, membershipIDs []string) ([]domain.MemberProfile, error) {
	if len(membershipIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(membershipIDs))
	args := make([]any, len(membershipIDs))
	for i, id := range membershipIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+profileColumns+`
FROM member_profiles
WHERE membership_id IN (`+strings.Join(placeholders, ",")+`)
`, args...)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "get profiles", err)
	}
	defer rows.Close()

	var out []domain.MemberProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStoreUnavailable, "get profiles", err)
		}
		out = append(out, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "get profiles", err)
	}
	return out, nil
}

// SearchLexical ranks profiles against the query text. Rank values are
// raw ts_rank output; normalization to [0,1] belongs to the relevance
// engine, which sees the whole candidate set.
func (r *MemberRepository) SearchLexical(ctx context.Context, queryText string, limit int) ([]domain.LexicalHit, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT membership_id, ts_rank(search_vector, plainto_tsquery('english', $1)) AS rank
FROM member_profiles
WHERE search_vector @@ plainto_tsquery('english', $1)
ORDER BY rank DESC, membership_id ASC
LIMIT $2
`, queryText, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "lexical search", err)
	}
	defer rows.Close()

	var out []domain.LexicalHit
	for rows.Next() {
		var hit domain.LexicalHit
		if err := rows.Scan(&hit.MembershipID, &hit.Rank); err != nil {
			return nil, domain.WrapError(domain.ErrStoreUnavailable, "lexical search", err)
		}
		out = append(out, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "lexical search", err)
	}
	return out, nil
}

// UpsertSearchDocument refreshes the text blobs that feed the generated
// search_vector column.
func (r *MemberRepository) UpsertSearchDocument(ctx context.Context, profile domain.MemberProfile) error {
	skillsJSON, err := json.Marshal(profile.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	servicesJSON, err := json.Marshal(profile.Services)
	if err != nil {
		return fmt.Errorf("marshal services: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO member_profiles (
	membership_id, community_id, name, email, phone, location, degree, graduation_year,
	skills, services, profile_text, skills_text, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
ON CONFLICT (membership_id) DO UPDATE SET
	community_id = EXCLUDED.community_id,
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	location = EXCLUDED.location,
	degree = EXCLUDED.degree,
	graduation_year = EXCLUDED.graduation_year,
	skills = EXCLUDED.skills,
	services = EXCLUDED.services,
	profile_text = EXCLUDED.profile_text,
	skills_text = EXCLUDED.skills_text,
	updated_at = now()
`,
		profile.MembershipID, profile.CommunityID, profile.Name, profile.Email, profile.Phone,
		profile.Location, profile.Degree, profile.GraduationYear, skillsJSON, servicesJSON,
		profile.ProfileText, profile.SkillsText,
	)
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "upsert search document", err)
	}
	return nil
}

func (r *MemberRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "postgres ping", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.MemberProfile, error) {
	var profile domain.MemberProfile
	var email, phone, location, degree sql.NullString
	var gradYear sql.NullInt64
	var skillsRaw, servicesRaw []byte

	err := row.Scan(
		&profile.MembershipID, &profile.CommunityID, &profile.Name, &email, &phone,
		&location, &degree, &gradYear, &skillsRaw, &servicesRaw,
		&profile.ProfileText, &profile.SkillsText,
	)
	if err != nil {
		return nil, err
	}

	profile.Email = email.String
	profile.Phone = phone.String
	profile.Location = location.String
	profile.Degree = degree.String
	profile.GraduationYear = int(gradYear.Int64)

	if len(skillsRaw) > 0 {
		if err := json.Unmarshal(skillsRaw, &profile.Skills); err != nil {
			return nil, fmt.Errorf("unmarshal skills: %w", err)
		}
	}
	if len(servicesRaw) > 0 {
		if err := json.Unmarshal(servicesRaw, &profile.Services); err != nil {
			return nil, fmt.Errorf("unmarshal services: %w", err)
		}
	}
	return &profile, nil
}
