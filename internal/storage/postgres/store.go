package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage"
)

// Store implements storage.CharacterStore on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool. The caller keeps ownership until Close.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const characterColumns = `id, character_name, profile_text, created_at`

func scanCharacter(row pgx.Row) (*models.Character, error) {
	var c models.Character
	if err := row.Scan(&c.ID, &c.Name, &c.Profile, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func notFoundWrap(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, storage.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// ListCharacters returns every character, oldest first.
func (s *Store) ListCharacters(ctx context.Context) ([]models.Character, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	characters := make([]models.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		characters = append(characters, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

// GetCharacter returns a character by id.
func (s *Store) GetCharacter(ctx context.Context, id string) (*models.Character, error) {
	if !storage.ValidID(id) {
		return nil, fmt.Errorf("get character %s: %w", id, storage.ErrNotFound)
	}

	c, err := scanCharacter(s.pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get character %s", id)
	}
	return c, nil
}

// CreateCharacter inserts c; the database assigns id and created_at.
func (s *Store) CreateCharacter(ctx context.Context, c *models.Character) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO characters (character_name, profile_text)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		c.Name, c.Profile,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// UpdateCharacter rewrites name and profile. id and created_at never change.
func (s *Store) UpdateCharacter(ctx context.Context, c *models.Character) error {
	if !storage.ValidID(c.ID) {
		return fmt.Errorf("update character %s: %w", c.ID, storage.ErrNotFound)
	}

	err := s.pool.QueryRow(ctx,
		`UPDATE characters SET character_name = $2, profile_text = $3
		 WHERE id = $1
		 RETURNING created_at`,
		c.ID, c.Name, c.Profile,
	).Scan(&c.CreatedAt)
	if err != nil {
		return notFoundWrap(err, "update character %s", c.ID)
	}
	return nil
}

// DeleteCharacter removes a character by id.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	if !storage.ValidID(id) {
		return fmt.Errorf("delete character %s: %w", id, storage.ErrNotFound)
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete character %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete character %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

var _ storage.CharacterStore = (*Store)(nil)
