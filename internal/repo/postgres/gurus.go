package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/guruhub/internal/domain/guru"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GurusRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewGurusRepo(pool *pgxpool.Pool, obs DBObserver) *GurusRepo {
	return &GurusRepo{pool: pool, obs: observerOrDefault(obs)}
}

const guruColumns = `g.id, g.full_name, g.dob, g.dod, g.birth_place, g.guru_type, g.aashram,
	g.era_id, c.name, g.bio, g.profile_image_url, g.bg_image_url,
	g.images, g.videos, g.books, g.created_at, g.updated_at`

const summaryColumns = `g.id, g.full_name, g.dob, g.dod, g.birth_place, g.guru_type, g.aashram,
	g.era_id, c.name, g.bio, g.profile_image_url, g.bg_image_url, g.created_at, g.updated_at`

func (r *GurusRepo) Create(ctx context.Context, req guru.CreateGuruRequest) (guru.Guru, error) {
	g := guru.NewFromCreateRequest(req)

	err := r.obs.ObserveDB("gurus.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO gurus (id, full_name, dob, dod, birth_place, guru_type, aashram, era_id, bio,
				profile_image_url, bg_image_url, images, videos, books, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			g.ID, g.FullName, g.DOB.Time, dateOrNil(g.DOD), g.BirthPlace, string(g.GuruType), g.Aashram, g.Era.ID, g.Bio,
			g.ProfileImageURL, g.BgImageURL, g.Images, g.Videos, g.Books, g.CreatedAt, g.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return guru.Guru{}, guru.ErrUnknownEra
		}
		return guru.Guru{}, err
	}

	return r.GetByID(ctx, g.ID)
}

func (r *GurusRepo) List(ctx context.Context, filter guru.ListGurusFilter) ([]guru.Guru, error) {
	query := `SELECT ` + summaryColumns + ` FROM gurus g JOIN categories c ON c.id = g.era_id`
	var args []any

	if filter.EraID != nil {
		query += ` WHERE g.era_id = $1`
		args = append(args, *filter.EraID)
	}

	query += ` ORDER BY g.full_name ASC, g.id ASC`

	out := make([]guru.Guru, 0)

	err := r.obs.ObserveDB("gurus.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g guru.Guru
			var dob time.Time
			var dod *time.Time
			var guruType string

			err := rows.Scan(&g.ID, &g.FullName, &dob, &dod, &g.BirthPlace, &guruType, &g.Aashram,
				&g.Era.ID, &g.Era.Name, &g.Bio, &g.ProfileImageURL, &g.BgImageURL, &g.CreatedAt, &g.UpdatedAt)
			if err != nil {
				return err
			}

			fillDates(&g, dob, dod)
			g.GuruType = guru.Type(guruType)
			out = append(out, g)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *GurusRepo) GetByID(ctx context.Context, id string) (guru.Guru, error) {
	var g guru.Guru

	err := r.obs.ObserveDB("gurus.get_by_id", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT `+guruColumns+` FROM gurus g JOIN categories c ON c.id = g.era_id WHERE g.id = $1`, id)
		var err error
		g, err = scanGuru(row)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return guru.Guru{}, guru.ErrNotFound
		}
		return guru.Guru{}, err
	}

	return g, nil
}

// Update locks the row, applies the partial request and writes the full record back.
func (r *GurusRepo) Update(ctx context.Context, id string, req guru.UpdateGuruRequest) (guru.Guru, error) {
	err := r.obs.ObserveDB("gurus.update", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		row := tx.QueryRow(ctx,
			`SELECT `+guruColumns+` FROM gurus g JOIN categories c ON c.id = g.era_id WHERE g.id = $1 FOR UPDATE OF g`, id)

		current, err := scanGuru(row)
		if err != nil {
			return err
		}

		g := current.Apply(req)

		_, err = tx.Exec(ctx,
			`UPDATE gurus
				SET full_name = $2, dob = $3, dod = $4, birth_place = $5, guru_type = $6, aashram = $7,
					era_id = $8, bio = $9, profile_image_url = $10, bg_image_url = $11,
					images = $12, videos = $13, books = $14, updated_at = $15
			WHERE id = $1`,
			g.ID, g.FullName, g.DOB.Time, dateOrNil(g.DOD), g.BirthPlace, string(g.GuruType), g.Aashram,
			g.Era.ID, g.Bio, g.ProfileImageURL, g.BgImageURL, g.Images, g.Videos, g.Books, g.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return guru.Guru{}, guru.ErrNotFound
		case isForeignKeyViolation(err):
			return guru.Guru{}, guru.ErrUnknownEra
		}
		return guru.Guru{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *GurusRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.obs.ObserveDB("gurus.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM gurus WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return guru.ErrNotFound
	}

	return nil
}

func (r *GurusRepo) CountByEra(ctx context.Context, eraID string) (int, error) {
	var n int

	err := r.obs.ObserveDB("gurus.count_by_era", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gurus WHERE era_id = $1`, eraID).Scan(&n)
	})

	return n, err
}

func scanGuru(row pgx.Row) (guru.Guru, error) {
	var g guru.Guru
	var dob time.Time
	var dod *time.Time
	var guruType string

	err := row.Scan(&g.ID, &g.FullName, &dob, &dod, &g.BirthPlace, &guruType, &g.Aashram,
		&g.Era.ID, &g.Era.Name, &g.Bio, &g.ProfileImageURL, &g.BgImageURL,
		&g.Images, &g.Videos, &g.Books, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return guru.Guru{}, err
	}

	fillDates(&g, dob, dod)
	g.GuruType = guru.Type(guruType)

	return g, nil
}

func fillDates(g *guru.Guru, dob time.Time, dod *time.Time) {
	g.DOB = guru.NewDate(dob)

	if dod != nil {
		d := guru.NewDate(*dod)
		g.DOD = &d
	}
}

func dateOrNil(d *guru.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
