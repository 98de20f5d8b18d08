package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/vetbcn/clinic-directory/internal/domain"
)

// Schema is the reference DDL for the clinics and reviews tables.
//
//go:embed schema.sql
var Schema string

const (
	clinicsTable = "clinics"
	reviewsTable = "reviews"

	relatedLimit = 3
	reviewsLimit = 20
	insertChunk  = 500
)

var clinicColumns = []any{
	"id", "source_id", "slug", "name", "description", "address", "barrio", "phone",
	"email", "website", "rating", "review_count", "price", "is_emergency",
	"specialties", "animal_types", "languages", "hours", "image_url", "lat", "lng",
}

var reviewColumns = []any{"id", "clinic_id", "author", "rating", "comment", "date", "helpful"}

// Store persists clinics and reviews in Postgres.
type Store struct {
	db *sql.DB
	q  *goqu.Database
}

// NewStore creates a Store on an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: goqu.New("postgres", db)}
}

// CheckSchema fails when either table is missing, so binaries stop at startup
// instead of on the first query.
func (s *Store) CheckSchema(ctx context.Context) error {
	for _, table := range []string{clinicsTable, reviewsTable} {
		var exists bool
		err := s.db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("schema check: table %s does not exist", table)
		}
	}
	return nil
}

// CheckReadiness pings the database and verifies the schema.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return s.CheckSchema(ctx)
}

// ReplaceClinics deletes every clinic (and, by cascade, every review) and
// inserts clinics in a single transaction.
func (s *Store) ReplaceClinics(ctx context.Context, clinics []domain.Clinic) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+clinicsTable); err != nil {
		return 0, fmt.Errorf("delete clinics: %w", err)
	}

	for start := 0; start < len(clinics); start += insertChunk {
		end := min(start+insertChunk, len(clinics))
		rows := make([]any, 0, end-start)
		for _, c := range clinics[start:end] {
			record, err := clinicRecord(c)
			if err != nil {
				return 0, err
			}
			rows = append(rows, record)
		}

		query, args, err := s.q.Insert(clinicsTable).Prepared(true).Rows(rows...).ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build clinic insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert clinics: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clinics: %w", err)
	}
	return len(clinics), nil
}

// ListClinics returns the clinics matching f, ordered by rating (highest
// first) or by name.
func (s *Store) ListClinics(ctx context.Context, f domain.ClinicFilter) ([]domain.Clinic, error) {
	ds := s.q.From(clinicsTable).Prepared(true).Select(clinicColumns...)

	if f.Barrio != "" {
		ds = ds.Where(goqu.I("barrio").Eq(f.Barrio))
	}
	if f.AnimalType != "" {
		ds = ds.Where(goqu.L("? = ANY(animal_types)", f.AnimalType))
	}
	if f.Specialty != "" {
		ds = ds.Where(goqu.L("? = ANY(specialties)", f.Specialty))
	}
	if f.MinRating > 0 {
		ds = ds.Where(goqu.I("rating").Gte(f.MinRating))
	}
	if len(f.Prices) > 0 {
		ds = ds.Where(goqu.I("price").In(f.Prices))
	}
	if f.EmergencyOnly {
		ds = ds.Where(goqu.I("is_emergency").IsTrue())
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("name").ILike(pattern),
			goqu.I("description").ILike(pattern),
		))
	}
	if len(f.IDs) > 0 {
		ds = ds.Where(goqu.I("id").In(f.IDs))
	}

	if f.Sort == domain.SortName {
		ds = ds.Order(goqu.I("name").Asc())
	} else {
		ds = ds.Order(goqu.I("rating").Desc(), goqu.I("name").Asc())
	}

	return s.queryClinics(ctx, ds)
}

// AllClinics returns every clinic ordered by name.
func (s *Store) AllClinics(ctx context.Context) ([]domain.Clinic, error) {
	return s.ListClinics(ctx, domain.ClinicFilter{Sort: domain.SortName})
}

// GetClinicBySlug returns the clinic with the given slug or domain.ErrNotFound.
func (s *Store) GetClinicBySlug(ctx context.Context, slug string) (domain.Clinic, error) {
	query, args, err := s.q.From(clinicsTable).Prepared(true).
		Select(clinicColumns...).
		Where(goqu.I("slug").Eq(slug)).
		ToSQL()
	if err != nil {
		return domain.Clinic{}, fmt.Errorf("build clinic query: %w", err)
	}

	c, err := scanClinic(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Clinic{}, fmt.Errorf("clinic %q: %w", slug, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Clinic{}, fmt.Errorf("get clinic %q: %w", slug, err)
	}
	return c, nil
}

// RelatedClinics returns up to three other clinics in the same barrio, best
// rated first, ties by name.
func (s *Store) RelatedClinics(ctx context.Context, barrio, excludeID string) ([]domain.Clinic, error) {
	ds := s.q.From(clinicsTable).Prepared(true).
		Select(clinicColumns...).
		Where(goqu.I("barrio").Eq(barrio), goqu.I("id").Neq(excludeID)).
		Order(goqu.I("rating").Desc(), goqu.I("name").Asc()).
		Limit(relatedLimit)
	return s.queryClinics(ctx, ds)
}

// ClinicReviews returns the twenty most helpful reviews of a clinic, newest
// first among equally helpful ones.
func (s *Store) ClinicReviews(ctx context.Context, clinicID string) ([]domain.Review, error) {
	query, args, err := s.q.From(reviewsTable).Prepared(true).
		Select(reviewColumns...).
		Where(goqu.I("clinic_id").Eq(clinicID)).
		Order(goqu.I("helpful").Desc(), goqu.I("date").Desc()).
		Limit(reviewsLimit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reviews query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.ClinicID, &r.Author, &r.Rating, &r.Comment, &r.Date, &r.Helpful); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// InsertReviews adds reviews in one transaction.
func (s *Store) InsertReviews(ctx context.Context, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(reviews); start += insertChunk {
		end := min(start+insertChunk, len(reviews))
		rows := make([]any, 0, end-start)
		for _, r := range reviews[start:end] {
			rows = append(rows, goqu.Record{
				"id":        r.ID,
				"clinic_id": r.ClinicID,
				"author":    r.Author,
				"rating":    r.Rating,
				"comment":   r.Comment,
				"date":      r.Date,
				"helpful":   r.Helpful,
			})
		}

		query, args, err := s.q.Insert(reviewsTable).Prepared(true).Rows(rows...).ToSQL()
		if err != nil {
			return fmt.Errorf("build review insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert reviews: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reviews: %w", err)
	}
	return nil
}

// DeleteReviews removes every review and reports how many were deleted.
func (s *Store) DeleteReviews(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+reviewsTable)
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return n, nil
}

func (s *Store) queryClinics(ctx context.Context, ds *goqu.SelectDataset) ([]domain.Clinic, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build clinics query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query clinics: %w", err)
	}
	defer rows.Close()

	clinics := []domain.Clinic{}
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clinic: %w", err)
		}
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clinics: %w", err)
	}
	return clinics, nil
}

func clinicRecord(c domain.Clinic) (goqu.Record, error) {
	hours, err := json.Marshal(c.Hours)
	if err != nil {
		return nil, fmt.Errorf("encode hours of %s: %w", c.Slug, err)
	}
	return goqu.Record{
		"id":           c.ID,
		"source_id":    c.SourceID,
		"slug":         c.Slug,
		"name":         c.Name,
		"description":  nullString(c.Description),
		"address":      c.Address,
		"barrio":       c.Barrio,
		"phone":        c.Phone,
		"email":        nullString(c.Email),
		"website":      nullString(c.Website),
		"rating":       c.Rating,
		"review_count": c.ReviewCount,
		"price":        c.Price,
		"is_emergency": c.IsEmergency,
		"specialties":  textArray(c.Specialties),
		"animal_types": textArray(c.AnimalTypes),
		"languages":    textArray(c.Languages),
		"hours":        string(hours),
		"image_url":    nullString(c.ImageURL),
		"lat":          nullFloat(c.Lat),
		"lng":          nullFloat(c.Lng),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClinic(row rowScanner) (domain.Clinic, error) {
	var (
		c                                     domain.Clinic
		description, email, website, imageURL sql.NullString
		lat, lng                              sql.NullFloat64
		hours                                 []byte
	)
	err := row.Scan(
		&c.ID, &c.SourceID, &c.Slug, &c.Name, &description, &c.Address, &c.Barrio, &c.Phone,
		&email, &website, &c.Rating, &c.ReviewCount, &c.Price, &c.IsEmergency,
		pq.Array(&c.Specialties), pq.Array(&c.AnimalTypes), pq.Array(&c.Languages),
		&hours, &imageURL, &lat, &lng,
	)
	if err != nil {
		return domain.Clinic{}, err
	}

	if err := json.Unmarshal(hours, &c.Hours); err != nil {
		return domain.Clinic{}, fmt.Errorf("decode hours of %s: %w", c.Slug, err)
	}
	c.Description = stringPtr(description)
	c.Email = stringPtr(email)
	c.Website = stringPtr(website)
	c.ImageURL = stringPtr(imageURL)
	c.Lat = floatPtr(lat)
	c.Lng = floatPtr(lng)
	return c, nil
}

// textArray encodes nil as an empty array; the array columns are NOT NULL.
func textArray(s []string) any {
	if s == nil {
		s = []string{}
	}
	return pq.Array(s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
