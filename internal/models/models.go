package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Pool is a shared-ride offering. Coordinates, ETA and departure time are
// optional: pools created before geocoding succeeded (or whose addresses no
// provider can resolve) carry nil fields, and the estimation layer treats
// absence as a normal displayable state rather than an error.
type Pool struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Origin       string     `json:"origin"`
	OriginCoord  *Coord     `json:"origin_coord,omitempty"`
	Destination  string     `json:"destination"`
	DestCoord    *Coord     `json:"dest_coord,omitempty"`
	ETASeconds   *int       `json:"eta_seconds,omitempty"`
	ETAUpdatedAt *time.Time `json:"eta_updated_at,omitempty"`
	DepartTime   *time.Time `json:"depart_time,omitempty"`
	Seats        int        `json:"seats"`
	Description  string     `json:"description,omitempty"`
	Cancelled    bool       `json:"cancelled"`
	OwnerID      string     `json:"owner_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type JoinRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PoolID    string    `json:"pool_id"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"` // pending, accepted, rejected
	PaymentID string    `json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Ride struct {
	ID        string    `json:"id"`
	PoolID    string    `json:"pool_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"` // scheduled, completed, cancelled
	CreatedAt time.Time `json:"created_at"`
}

// PoolEvent is published to kafka when a pool's coordinates or ETA change.
// The consumer uses it to keep the redis origin index current.
type PoolEvent struct {
	Kind       string `json:"kind"` // created, coords_set, eta_updated, cancelled, completed
	PoolID     string `json:"pool_id"`
	Origin     *Coord `json:"origin,omitempty"`
	ETASeconds *int   `json:"eta_seconds,omitempty"`
	Seats      int    `json:"seats"`
}
