package storage

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/DanielHu2018/PoolParty/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SavePool(pool *models.Pool) error {
	_, err := p.db.Exec(`INSERT INTO pools(id, title, origin, origin_lat, origin_lng, destination, dest_lat, dest_lng, eta_seconds, eta_updated_at, depart_time, seats, description, cancelled, owner_id, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		pool.ID, pool.Title, pool.Origin, coordLat(pool.OriginCoord), coordLon(pool.OriginCoord),
		pool.Destination, coordLat(pool.DestCoord), coordLon(pool.DestCoord),
		nullInt(pool.ETASeconds), nullTime(pool.ETAUpdatedAt), nullTime(pool.DepartTime),
		pool.Seats, pool.Description, pool.Cancelled, pool.OwnerID, pool.CreatedAt, pool.UpdatedAt)
	return err
}

func (p *PostgresStore) UpdatePool(pool *models.Pool) error {
	_, err := p.db.Exec(`UPDATE pools SET title=$1, origin=$2, origin_lat=$3, origin_lng=$4, destination=$5, dest_lat=$6, dest_lng=$7, eta_seconds=$8, eta_updated_at=$9, depart_time=$10, seats=$11, description=$12, cancelled=$13, updated_at=$14 WHERE id=$15`,
		pool.Title, pool.Origin, coordLat(pool.OriginCoord), coordLon(pool.OriginCoord),
		pool.Destination, coordLat(pool.DestCoord), coordLon(pool.DestCoord),
		nullInt(pool.ETASeconds), nullTime(pool.ETAUpdatedAt), nullTime(pool.DepartTime),
		pool.Seats, pool.Description, pool.Cancelled, time.Now(), pool.ID)
	return err
}

func (p *PostgresStore) GetPool(id string) (*models.Pool, error) {
	row := p.db.QueryRow(`SELECT id, title, origin, origin_lat, origin_lng, destination, dest_lat, dest_lng, eta_seconds, eta_updated_at, depart_time, seats, description, cancelled, owner_id, created_at, updated_at FROM pools WHERE id=$1`, id)
	pool, err := scanPool(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return pool, err
}

func (p *PostgresStore) ListPools() ([]*models.Pool, error) {
	rows, err := p.db.Query(`SELECT id, title, origin, origin_lat, origin_lng, destination, dest_lat, dest_lng, eta_seconds, eta_updated_at, depart_time, seats, description, cancelled, owner_id, created_at, updated_at FROM pools ORDER BY depart_time ASC NULLS FIRST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveJoinRequest(j *models.JoinRequest) error {
	_, err := p.db.Exec(`INSERT INTO join_requests(id, user_id, pool_id, message, status, payment_id, created_at) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		j.ID, j.UserID, j.PoolID, j.Message, j.Status, j.PaymentID, j.CreatedAt)
	return err
}

func (p *PostgresStore) UpdateJoinRequest(j *models.JoinRequest) error {
	_, err := p.db.Exec(`UPDATE join_requests SET status=$1, payment_id=$2 WHERE id=$3`, j.Status, j.PaymentID, j.ID)
	return err
}

func (p *PostgresStore) GetJoinRequest(id string) (*models.JoinRequest, error) {
	row := p.db.QueryRow(`SELECT id, user_id, pool_id, message, status, payment_id, created_at FROM join_requests WHERE id=$1`, id)
	var j models.JoinRequest
	err := row.Scan(&j.ID, &j.UserID, &j.PoolID, &j.Message, &j.Status, &j.PaymentID, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (p *PostgresStore) ListJoinRequests(poolID string) ([]*models.JoinRequest, error) {
	rows, err := p.db.Query(`SELECT id, user_id, pool_id, message, status, payment_id, created_at FROM join_requests WHERE pool_id=$1 ORDER BY created_at ASC`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.JoinRequest
	for rows.Next() {
		var j models.JoinRequest
		if err := rows.Scan(&j.ID, &j.UserID, &j.PoolID, &j.Message, &j.Status, &j.PaymentID, &j.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveRide(r *models.Ride) error {
	_, err := p.db.Exec(`INSERT INTO rides(id, pool_id, user_id, status, created_at) VALUES($1,$2,$3,$4,$5)`,
		r.ID, r.PoolID, r.UserID, r.Status, r.CreatedAt)
	return err
}

func (p *PostgresStore) UpdateRide(r *models.Ride) error {
	_, err := p.db.Exec(`UPDATE rides SET status=$1 WHERE id=$2`, r.Status, r.ID)
	return err
}

func (p *PostgresStore) ListRides(poolID string) ([]*models.Ride, error) {
	rows, err := p.db.Query(`SELECT id, pool_id, user_id, status, created_at FROM rides WHERE pool_id=$1 ORDER BY created_at ASC`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Ride
	for rows.Next() {
		var r models.Ride
		if err := rows.Scan(&r.ID, &r.PoolID, &r.UserID, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPool(row rowScanner) (*models.Pool, error) {
	var (
		pool                   models.Pool
		oLat, oLon, dLat, dLon sql.NullFloat64
		etaSec                 sql.NullInt64
		etaUpdated, depart     sql.NullTime
	)
	err := row.Scan(&pool.ID, &pool.Title, &pool.Origin, &oLat, &oLon, &pool.Destination, &dLat, &dLon,
		&etaSec, &etaUpdated, &depart, &pool.Seats, &pool.Description, &pool.Cancelled, &pool.OwnerID,
		&pool.CreatedAt, &pool.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if oLat.Valid && oLon.Valid {
		pool.OriginCoord = &models.Coord{Lat: oLat.Float64, Lon: oLon.Float64}
	}
	if dLat.Valid && dLon.Valid {
		pool.DestCoord = &models.Coord{Lat: dLat.Float64, Lon: dLon.Float64}
	}
	if etaSec.Valid {
		v := int(etaSec.Int64)
		pool.ETASeconds = &v
	}
	if etaUpdated.Valid {
		t := etaUpdated.Time
		pool.ETAUpdatedAt = &t
	}
	if depart.Valid {
		t := depart.Time
		pool.DepartTime = &t
	}
	return &pool, nil
}

func coordLat(c *models.Coord) sql.NullFloat64 {
	if c == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}
}

func coordLon(c *models.Coord) sql.NullFloat64 {
	if c == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lon, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
