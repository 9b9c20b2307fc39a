package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
)

// tables maps a record kind to its table. Names never come from requests.
var tables = map[model.RecordKind]string{
	model.KindLink:   "links",
	model.KindSocial: "social_links",
}

func tableFor(kind model.RecordKind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("record kind %q: %w", kind, errs.ErrInvalidInput)
	}
	return t, nil
}

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileCols = `id, slug, display_name, bio, avatar_url, layout,
bg_type, bg_color, bg_gradient_from, bg_gradient_to, bg_wallpaper, bg_image, bg_blur, bg_padding,
effects, pattern, card_texture, theme_id`

const linkCols = `id, title, url, icon, description, image_url, video_url, stripe_enabled, background_color, position`

const socialCols = `id, platform, url, position`

// inTx runs fn in a transaction, committing only when fn succeeds.
func (r *ProfileRepo) inTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()
	return fn(tx)
}

// lockProfile resolves the owner's profile id and holds its row lock until the transaction ends.
func lockProfile(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (uuid.UUID, error) {
	const q = `SELECT id FROM profiles WHERE owner_id=$1 FOR UPDATE`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, q, ownerID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errs.ErrNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}

func scanProfile(row pgx.Row) (uuid.UUID, model.Profile, error) {
	var (
		id                       uuid.UUID
		p                        model.Profile
		bg                       model.BackgroundRow
		layout, bgType, texture  string
		effectsJSON, patternJSON []byte
	)
	err := row.Scan(&id, &p.Slug, &p.DisplayName, &p.Bio, &p.AvatarURL, &layout,
		&bgType, &bg.Color, &bg.GradientFrom, &bg.GradientTo, &bg.Wallpaper, &bg.Image, &bg.BlurAmount, &bg.Padding,
		&effectsJSON, &patternJSON, &texture, &p.ThemeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, model.Profile{}, errs.ErrNotFound
		}
		return uuid.Nil, model.Profile{}, err
	}
	p.ID = id.String()
	p.Layout = model.Layout(layout)
	p.CardTexture = model.CardTexture(texture)
	bg.Type = model.BackgroundType(bgType)
	if p.Background, err = bg.Background(); err != nil {
		return uuid.Nil, model.Profile{}, fmt.Errorf("profile %s: %w", id, err)
	}
	if err := json.Unmarshal(effectsJSON, &p.Effects); err != nil {
		return uuid.Nil, model.Profile{}, fmt.Errorf("profile %s effects: %w", id, err)
	}
	if err := json.Unmarshal(patternJSON, &p.Pattern); err != nil {
		return uuid.Nil, model.Profile{}, fmt.Errorf("profile %s pattern: %w", id, err)
	}
	return id, p, nil
}

// scalarArgs returns the mutable scalar columns in the order
// display_name .. theme_id used by both INSERT and UPDATE.
func scalarArgs(p model.Profile) ([]any, error) {
	effects, err := json.Marshal(p.Effects)
	if err != nil {
		return nil, err
	}
	pattern, err := json.Marshal(p.Pattern)
	if err != nil {
		return nil, err
	}
	bg := p.Background.Row()
	return []any{
		p.DisplayName, p.Bio, p.AvatarURL, string(p.Layout),
		string(bg.Type), bg.Color, bg.GradientFrom, bg.GradientTo, bg.Wallpaper, bg.Image, bg.BlurAmount, bg.Padding,
		effects, pattern, string(p.CardTexture), p.ThemeID,
	}, nil
}

// GetByOwner loads the aggregate owned by ownerID.
func (r *ProfileRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Profile, error) {
	id, p, err := scanProfile(r.db.Pool.QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE owner_id=$1`, ownerID))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT `+linkCols+` FROM links WHERE profile_id=$1 ORDER BY position, created_at`, id)
	if err != nil {
		return nil, err
	}
	p.Links, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Link, error) {
		l, _, err := scanLink(row)
		return l, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, `SELECT `+socialCols+` FROM social_links WHERE profile_id=$1 ORDER BY position, created_at`, id)
	if err != nil {
		return nil, err
	}
	p.Socials, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Social, error) {
		s, _, err := scanSocial(row)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a profile row for ownerID. A second profile for the same owner or a taken slug
// reports ErrAlreadyExists.
func (r *ProfileRepo) Create(ctx context.Context, ownerID uuid.UUID, p model.Profile) (uuid.UUID, error) {
	const q = `
INSERT INTO profiles (id, owner_id, slug, display_name, bio, avatar_url, layout,
  bg_type, bg_color, bg_gradient_from, bg_gradient_to, bg_wallpaper, bg_image, bg_blur, bg_padding,
  effects, pattern, card_texture, theme_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	scalars, err := scalarArgs(p)
	if err != nil {
		return uuid.Nil, err
	}
	args := append([]any{id, ownerID, p.Slug}, scalars...)
	if _, err := r.db.Pool.Exec(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, errs.ErrAlreadyExists
		}
		return uuid.Nil, err
	}
	return id, nil
}

// UpdateScalars rewrites the scalar columns under the profile row lock.
func (r *ProfileRepo) UpdateScalars(ctx context.Context, ownerID uuid.UUID, mutate func(*model.Profile) error) error {
	const upd = `
UPDATE profiles SET display_name=$2, bio=$3, avatar_url=$4, layout=$5,
  bg_type=$6, bg_color=$7, bg_gradient_from=$8, bg_gradient_to=$9, bg_wallpaper=$10, bg_image=$11, bg_blur=$12, bg_padding=$13,
  effects=$14, pattern=$15, card_texture=$16, theme_id=$17, updated_at=now()
WHERE id=$1`
	return r.inTx(ctx, func(tx pgx.Tx) error {
		id, p, err := scanProfile(tx.QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE owner_id=$1 FOR UPDATE`, ownerID))
		if err != nil {
			return err
		}
		if err := mutate(&p); err != nil {
			return err
		}
		scalars, err := scalarArgs(p)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, upd, append([]any{id}, scalars...)...)
		return err
	})
}

// nextPosition returns the position after the last record of table.
func nextPosition(ctx context.Context, tx pgx.Tx, table string, profileID uuid.UUID) (int, error) {
	var pos int
	q := fmt.Sprintf(`SELECT COALESCE(MAX(position)+1, 0) FROM %s WHERE profile_id=$1`, table)
	if err := tx.QueryRow(ctx, q, profileID).Scan(&pos); err != nil {
		return 0, err
	}
	return pos, nil
}

func scanLink(row pgx.Row) (model.Link, uuid.UUID, error) {
	var (
		id uuid.UUID
		l  model.Link
	)
	err := row.Scan(&id, &l.Title, &l.URL, &l.Icon, &l.Description, &l.ImageURL, &l.VideoURL,
		&l.StripeEnabled, &l.BackgroundColor, &l.Position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Link{}, uuid.Nil, errs.ErrNotFound
		}
		return model.Link{}, uuid.Nil, err
	}
	l.ID = id.String()
	return l, id, nil
}

func scanSocial(row pgx.Row) (model.Social, uuid.UUID, error) {
	var (
		id uuid.UUID
		s  model.Social
	)
	if err := row.Scan(&id, &s.Platform, &s.URL, &s.Position); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Social{}, uuid.Nil, errs.ErrNotFound
		}
		return model.Social{}, uuid.Nil, err
	}
	s.ID = id.String()
	return s, id, nil
}

// CreateLink appends l to the owner's links.
func (r *ProfileRepo) CreateLink(ctx context.Context, ownerID uuid.UUID, l model.Link) (id uuid.UUID, pos int, err error) {
	const ins = `
INSERT INTO links (id, profile_id, title, url, icon, description, image_url, video_url, stripe_enabled, background_color, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		pid, err := lockProfile(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if pos, err = nextPosition(ctx, tx, "links", pid); err != nil {
			return err
		}
		if id, err = uuid.NewV4(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, ins, id, pid, l.Title, l.URL, l.Icon, l.Description, l.ImageURL, l.VideoURL,
			l.StripeEnabled, l.BackgroundColor, pos)
		return err
	})
	if err != nil {
		return uuid.Nil, 0, err
	}
	return id, pos, nil
}

// UpdateLink rewrites one link under the profile row lock.
func (r *ProfileRepo) UpdateLink(ctx context.Context, ownerID, id uuid.UUID, mutate func(*model.Link) error) error {
	const upd = `
UPDATE links SET title=$2, url=$3, icon=$4, description=$5, image_url=$6, video_url=$7,
  stripe_enabled=$8, background_color=$9, updated_at=now()
WHERE id=$1`
	return r.inTx(ctx, func(tx pgx.Tx) error {
		pid, err := lockProfile(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		l, _, err := scanLink(tx.QueryRow(ctx, `SELECT `+linkCols+` FROM links WHERE id=$1 AND profile_id=$2`, id, pid))
		if err != nil {
			return err
		}
		if err := mutate(&l); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, upd, id, l.Title, l.URL, l.Icon, l.Description, l.ImageURL, l.VideoURL,
			l.StripeEnabled, l.BackgroundColor)
		return err
	})
}

// CreateSocial appends s to the owner's social links.
func (r *ProfileRepo) CreateSocial(ctx context.Context, ownerID uuid.UUID, s model.Social) (id uuid.UUID, pos int, err error) {
	const ins = `INSERT INTO social_links (id, profile_id, platform, url, position) VALUES ($1, $2, $3, $4, $5)`
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		pid, err := lockProfile(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if pos, err = nextPosition(ctx, tx, "social_links", pid); err != nil {
			return err
		}
		if id, err = uuid.NewV4(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, ins, id, pid, s.Platform, s.URL, pos)
		return err
	})
	if err != nil {
		return uuid.Nil, 0, err
	}
	return id, pos, nil
}

// UpdateSocial rewrites one social link under the profile row lock.
func (r *ProfileRepo) UpdateSocial(ctx context.Context, ownerID, id uuid.UUID, mutate func(*model.Social) error) error {
	const upd = `UPDATE social_links SET platform=$2, url=$3, updated_at=now() WHERE id=$1`
	return r.inTx(ctx, func(tx pgx.Tx) error {
		pid, err := lockProfile(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		s, _, err := scanSocial(tx.QueryRow(ctx, `SELECT `+socialCols+` FROM social_links WHERE id=$1 AND profile_id=$2`, id, pid))
		if err != nil {
			return err
		}
		if err := mutate(&s); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, upd, id, s.Platform, s.URL)
		return err
	})
}

// DeleteRecord removes one child record and renumbers the rest to 0..n-1.
func (r *ProfileRepo) DeleteRecord(ctx context.Context, ownerID uuid.UUID, kind model.RecordKind, id uuid.UUID) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	del := fmt.Sprintf(`DELETE FROM %s WHERE id=$1 AND profile_id=$2`, table)
	compact := fmt.Sprintf(`
UPDATE %[1]s AS t SET position = r.pos
FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY position, created_at) - 1 AS pos FROM %[1]s WHERE profile_id=$1) AS r
WHERE t.id = r.id AND t.position <> r.pos`, table)

	return r.inTx(ctx, func(tx pgx.Tx) error {
		pid, err := lockProfile(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, del, id, pid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		_, err = tx.Exec(ctx, compact, pid)
		return err
	})
}

// ReorderRecords rewrites positions so ids come first in the given order.
func (r *ProfileRepo) ReorderRecords(ctx context.Context, ownerID uuid.UUID, kind model.RecordKind, ids []uuid.UUID) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	sel := fmt.Sprintf(`SELECT id, position FROM %s WHERE profile_id=$1 ORDER BY position, created_at`, table)
	upd := fmt.Sprintf(`UPDATE %s SET position=$2, updated_at=now() WHERE id=$1`, table)

	return r.inTx(ctx, func(tx pgx.Tx) error {
		pid, err := lockProfile(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, sel, pid)
		if err != nil {
			return err
		}
		type slot struct {
			id  uuid.UUID
			pos int
		}
		current, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (slot, error) {
			var s slot
			err := row.Scan(&s.id, &s.pos)
			return s, err
		})
		if err != nil {
			return err
		}

		was := make(map[uuid.UUID]int, len(current))
		for _, s := range current {
			was[s.id] = s.pos
		}
		listed := make(map[uuid.UUID]bool, len(ids))
		order := make([]uuid.UUID, 0, len(current))
		for _, id := range ids {
			if _, ok := was[id]; !ok {
				return fmt.Errorf("%s %s: %w", kind, id, errs.ErrNotFound)
			}
			if listed[id] {
				return fmt.Errorf("%s %s listed twice: %w", kind, id, errs.ErrInvalidInput)
			}
			listed[id] = true
			order = append(order, id)
		}
		for _, s := range current {
			if !listed[s.id] {
				order = append(order, s.id)
			}
		}

		for pos, id := range order {
			if was[id] == pos {
				continue
			}
			if _, err := tx.Exec(ctx, upd, id, pos); err != nil {
				return err
			}
		}
		return nil
	})
}
