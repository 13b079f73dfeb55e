package favorites

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrInvalidMeal is returned when a meal cannot be stored.
var ErrInvalidMeal = errors.New("invalid meal")

const mealColumns = `id, name, thumbnail, category, area, instructions, youtube, tags,
	source, drink_alternate, image_source, creative_commons, date_modified, ingredients`

// record carries the persisted fields with their validation rules.
type record struct {
	ID   string `validate:"required,max=64"`
	Name string `validate:"max=512"`
}

// Store persists favorite meals in SQLite.
type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	validate *validator.Validate

	// mu serializes every mutation with its follow-up publish.
	mu   sync.Mutex
	list *observable.Slot[[]mealdb.Meal]
}

// Open creates or opens the favorites database at path and publishes the
// current contents to observers.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		validate: validator.New(),
		list:     observable.NewSlot("favorites", logger, cloneMeals),
	}
	if err := s.publish(context.Background()); err != nil {
		s.list.Close()
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close stops observers and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Close()
	return s.db.Close()
}

// Shutdown satisfies the container's shutdowner interface.
func (s *Store) Shutdown() error {
	return s.Close()
}

// Upsert inserts meal or fully replaces the stored record with the same ID.
// A replaced record keeps its position in the list.
func (s *Store) Upsert(ctx context.Context, meal mealdb.Meal) error {
	meal.ID = strings.TrimSpace(meal.ID)
	if err := s.validate.Struct(record{ID: meal.ID, Name: meal.Name}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMeal, err)
	}
	ingredients, err := encodeIngredients(meal.Ingredients)
	if err != nil {
		return fmt.Errorf("favorites: upsert %s: %w", meal.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO favorites (` + mealColumns + `, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			thumbnail = excluded.thumbnail,
			category = excluded.category,
			area = excluded.area,
			instructions = excluded.instructions,
			youtube = excluded.youtube,
			tags = excluded.tags,
			source = excluded.source,
			drink_alternate = excluded.drink_alternate,
			image_source = excluded.image_source,
			creative_commons = excluded.creative_commons,
			date_modified = excluded.date_modified,
			ingredients = excluded.ingredients`

	_, err = s.db.ExecContext(ctx, query,
		meal.ID,
		meal.Name,
		meal.Thumbnail,
		meal.Category,
		meal.Area,
		meal.Instructions,
		meal.YouTube,
		meal.Tags,
		meal.Source,
		meal.DrinkAlternate,
		meal.ImageSource,
		meal.CreativeCommons,
		meal.DateModified,
		ingredients,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("favorites: upsert %s: %w", meal.ID, err)
	}

	s.logger.Debug("favorite saved", slog.String("meal_id", meal.ID), slog.String("name", meal.Name))
	return s.publish(ctx)
}

// Delete removes the record with meal's ID. Deleting an absent meal is a
// no-op and notifies nobody.
func (s *Store) Delete(ctx context.Context, meal mealdb.Meal) error {
	id := strings.TrimSpace(meal.ID)
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidMeal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("favorites: delete %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("favorites: delete %s: %w", id, err)
	}
	if n == 0 {
		return nil
	}

	s.logger.Debug("favorite removed", slog.String("meal_id", id))
	return s.publish(ctx)
}

// List returns every saved meal in the order it was first saved.
func (s *Store) List(ctx context.Context) ([]mealdb.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mealColumns+` FROM favorites ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("favorites: list: %w", err)
	}
	defer rows.Close()

	meals := []mealdb.Meal{}
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("favorites: list: %w", err)
		}
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("favorites: list: %w", err)
	}
	return meals, nil
}

// Get returns the saved meal with id, or nil if it is not saved.
func (s *Store) Get(ctx context.Context, id string) (*mealdb.Meal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mealColumns+` FROM favorites WHERE id = ?`, strings.TrimSpace(id))
	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("favorites: get %s: %w", id, err)
	}
	return &meal, nil
}

// Contains reports whether a meal with id is saved.
func (s *Store) Contains(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites WHERE id = ?`, strings.TrimSpace(id)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("favorites: contains %s: %w", id, err)
	}
	return n > 0, nil
}

// Observe subscribes to the full favorites list. The subscriber receives the
// current list immediately and a fresh list after every change.
func (s *Store) Observe() *observable.Subscription[[]mealdb.Meal] {
	return s.list.Subscribe()
}

// Sync waits until every published list has reached observers.
func (s *Store) Sync() {
	s.list.Sync()
}

// publish must be called with mu held, or before the store is shared. It
// returns once the new list is the one Observe hands out.
func (s *Store) publish(ctx context.Context) error {
	meals, err := s.List(ctx)
	if err != nil {
		return err
	}
	s.list.Post(meals)
	s.list.Sync()
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(row scanner) (mealdb.Meal, error) {
	var (
		meal        mealdb.Meal
		ingredients string
	)
	err := row.Scan(
		&meal.ID,
		&meal.Name,
		&meal.Thumbnail,
		&meal.Category,
		&meal.Area,
		&meal.Instructions,
		&meal.YouTube,
		&meal.Tags,
		&meal.Source,
		&meal.DrinkAlternate,
		&meal.ImageSource,
		&meal.CreativeCommons,
		&meal.DateModified,
		&ingredients,
	)
	if err != nil {
		return mealdb.Meal{}, err
	}
	meal.Ingredients, err = decodeIngredients(ingredients)
	if err != nil {
		return mealdb.Meal{}, fmt.Errorf("meal %s: %w", meal.ID, err)
	}
	return meal, nil
}

func cloneMeals(in []mealdb.Meal) []mealdb.Meal {
	if in == nil {
		return nil
	}
	out := make([]mealdb.Meal, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
