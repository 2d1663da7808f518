package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/iliyamo/sportbnb/internal/model"
)

// dialect renders goqu builders as MySQL with ? placeholders.
var dialect = goqu.Dialect("mysql")

// EquipmentRepo persists equipment listings and their images.
type EquipmentRepo struct {
	db *sql.DB
}

func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

var equipmentColumns = []any{
	"id", "host_id", "title", "description", "category", "sport", "city",
	"price_per_day_cents", "available", "lat", "lon", "created_at", "updated_at",
}

const equipmentSelect = `SELECT id, host_id, title, description, category, sport, city,
       price_per_day_cents, available, lat, lon, created_at, updated_at
  FROM equipment`

func scanEquipment(row interface{ Scan(...any) error }) (model.Equipment, error) {
	var (
		e        model.Equipment
		hostID   sql.NullInt64
		lat, lon sql.NullFloat64
	)
	err := row.Scan(&e.ID, &hostID, &e.Title, &e.Description, &e.Category, &e.Sport, &e.City,
		&e.PricePerDayCents, &e.Available, &lat, &lon, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Equipment{}, err
	}
	if hostID.Valid {
		e.HostID = uint64(hostID.Int64)
	}
	if lat.Valid {
		v := lat.Float64
		e.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		e.Lon = &v
	}
	return e, nil
}

// Create inserts a listing and fills in its ID.
func (r *EquipmentRepo) Create(ctx context.Context, e *model.Equipment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO equipment (host_id, title, description, category, sport, city, price_per_day_cents, available, lat, lon)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.HostID, e.Title, e.Description, e.Category, e.Sport, e.City, e.PricePerDayCents, e.Available, e.Lat, e.Lon)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID returns one listing without images.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (model.Equipment, error) {
	return scanEquipment(r.db.QueryRowContext(ctx, equipmentSelect+" WHERE id = ?", id))
}

// GetWithImages returns one listing with its images ordered by position.
func (r *EquipmentRepo) GetWithImages(ctx context.Context, id uint64) (model.Equipment, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Equipment{}, err
	}
	e.Images, err = r.Images(ctx, id)
	return e, err
}

// Images lists the images of a listing.
func (r *EquipmentRepo) Images(ctx context.Context, equipmentID uint64) ([]model.EquipmentImage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, equipment_id, url, position FROM equipment_images WHERE equipment_id = ? ORDER BY position, id",
		equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.EquipmentImage
	for rows.Next() {
		var img model.EquipmentImage
		if err := rows.Scan(&img.ID, &img.EquipmentID, &img.URL, &img.Position); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// AddImage appends an image after the existing ones.
func (r *EquipmentRepo) AddImage(ctx context.Context, equipmentID uint64, url string) (model.EquipmentImage, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO equipment_images (equipment_id, url, position)
		 SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM equipment_images WHERE equipment_id = ?`,
		equipmentID, url, equipmentID)
	if err != nil {
		if isMissingParent(err) {
			return model.EquipmentImage{}, sql.ErrNoRows
		}
		return model.EquipmentImage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.EquipmentImage{}, err
	}
	img := model.EquipmentImage{ID: uint64(id), EquipmentID: equipmentID, URL: url}
	err = r.db.QueryRowContext(ctx, "SELECT position FROM equipment_images WHERE id = ?", img.ID).Scan(&img.Position)
	return img, err
}

// EquipmentPatch lists the mutable columns of a listing.  Nil fields are
// left untouched.
type EquipmentPatch struct {
	Title            *string
	Description      *string
	Category         *string
	Sport            *string
	City             *string
	PricePerDayCents *int64
	Available        *bool
	Lat              *float64
	Lon              *float64
}

func (p EquipmentPatch) record() goqu.Record {
	rec := goqu.Record{}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Description != nil {
		rec["description"] = *p.Description
	}
	if p.Category != nil {
		rec["category"] = *p.Category
	}
	if p.Sport != nil {
		rec["sport"] = *p.Sport
	}
	if p.City != nil {
		rec["city"] = *p.City
	}
	if p.PricePerDayCents != nil {
		rec["price_per_day_cents"] = *p.PricePerDayCents
	}
	if p.Available != nil {
		rec["available"] = *p.Available
	}
	if p.Lat != nil {
		rec["lat"] = *p.Lat
	}
	if p.Lon != nil {
		rec["lon"] = *p.Lon
	}
	return rec
}

// Empty reports whether the patch changes nothing.
func (p EquipmentPatch) Empty() bool { return len(p.record()) == 0 }

// Update applies a patch.  It returns sql.ErrNoRows for unknown ids.
func (r *EquipmentRepo) Update(ctx context.Context, id uint64, p EquipmentPatch) error {
	rec := p.record()
	if len(rec) == 0 {
		return nil
	}
	query, args, err := dialect.Update("equipment").Prepared(true).
		Set(rec).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectRow(ctx, r.db, res, "SELECT 1 FROM equipment WHERE id = ?", id)
}

// Delete removes a listing.  Bookings, images and reviews cascade.
func (r *EquipmentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM equipment WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// EquipmentFilter narrows Search.  Zero values disable a criterion.
type EquipmentFilter struct {
	Text          string
	Category      string
	Sport         string
	City          string
	HostID        uint64
	MinPriceCents int64
	MaxPriceCents int64
	OnlyAvailable bool
	// Bounding box; applied only when MinLat < MaxLat and MinLon < MaxLon.
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Limit          int
	Offset         int
}

func (f EquipmentFilter) where() []exp.Expression {
	var conds []exp.Expression
	if t := strings.TrimSpace(f.Text); t != "" {
		like := "%" + escapeLike(t) + "%"
		conds = append(conds, goqu.Or(
			goqu.C("title").ILike(like),
			goqu.C("description").ILike(like),
		))
	}
	if f.Category != "" {
		conds = append(conds, goqu.C("category").Eq(f.Category))
	}
	if f.Sport != "" {
		conds = append(conds, goqu.C("sport").Eq(f.Sport))
	}
	if f.City != "" {
		conds = append(conds, goqu.C("city").Eq(f.City))
	}
	if f.HostID != 0 {
		conds = append(conds, goqu.C("host_id").Eq(f.HostID))
	}
	if f.MinPriceCents > 0 {
		conds = append(conds, goqu.C("price_per_day_cents").Gte(f.MinPriceCents))
	}
	if f.MaxPriceCents > 0 {
		conds = append(conds, goqu.C("price_per_day_cents").Lte(f.MaxPriceCents))
	}
	if f.OnlyAvailable {
		conds = append(conds, goqu.C("available").IsTrue())
	}
	if f.MinLat < f.MaxLat && f.MinLon < f.MaxLon {
		conds = append(conds,
			goqu.C("lat").Between(goqu.Range(f.MinLat, f.MaxLat)),
			goqu.C("lon").Between(goqu.Range(f.MinLon, f.MaxLon)),
		)
	}
	return conds
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SearchSQL renders the search query; exposed for tests.
func (f EquipmentFilter) SearchSQL() (string, []any, error) {
	return dialect.From("equipment").Prepared(true).
		Select(equipmentColumns...).
		Where(f.where()...).
		Order(goqu.C("id").Desc()).
		Limit(uint(f.Limit)).
		Offset(uint(f.Offset)).
		ToSQL()
}

// Search returns listings matching f, newest first, and the total count
// of matches ignoring pagination.
func (r *EquipmentRepo) Search(ctx context.Context, f EquipmentFilter) ([]model.Equipment, int64, error) {
	countSQL, countArgs, err := dialect.From("equipment").Prepared(true).
		Select(goqu.COUNT("*")).
		Where(f.where()...).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := f.SearchSQL()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
