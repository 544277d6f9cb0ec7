package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/models"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("room not found")

const timeLayout = time.RFC3339Nano

type Repository struct {
	db           *sql.DB
	carpetMargin float64
}

// New wraps db; carpetMargin is used for the measurements attached to every
// room that is read back.
func New(db *sql.DB, carpetMargin float64) *Repository {
	return &Repository{db: db, carpetMargin: carpetMargin}
}

// Init applies the schema migration.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create stores a room with its outline and constraints in one transaction.
func (r *Repository) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	res, err := tx.ExecContext(ctx, `
        INSERT INTO rooms (name, customer_id, company_id, notes, floor_type, offset_x, offset_y, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, room.Name, room.CustomerID, room.CompanyID, room.Notes, room.FloorType, room.Offset.X, room.Offset.Y, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := writePoints(ctx, tx, id, room.Points); err != nil {
		return nil, err
	}
	if err := writeConstraints(ctx, tx, id, room.AngleConstraints, room.LengthConstraints); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update applies a partial update. Points and constraints are rewritten
// wholesale when present.
func (r *Repository) Update(ctx context.Context, id int64, upd models.RoomUpdate) (*models.Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(timeLayout)}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *upd.Notes)
	}
	if upd.FloorType != nil {
		sets = append(sets, "floor_type = ?")
		args = append(args, *upd.FloorType)
	}
	if upd.Offset != nil {
		sets = append(sets, "offset_x = ?", "offset_y = ?")
		args = append(args, upd.Offset.X, upd.Offset.Y)
	}
	args = append(args, id)

	res, err := tx.ExecContext(ctx, "UPDATE rooms SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}

	if upd.Points != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM room_measurements WHERE room_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear points: %w", err)
		}
		if err := writePoints(ctx, tx, id, upd.Points); err != nil {
			return nil, err
		}
	}
	if upd.Constraints {
		if err := clearConstraints(ctx, tx, id); err != nil {
			return nil, err
		}
		if err := writeConstraints(ctx, tx, id, upd.AngleConstraints, upd.LengthConstraints); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, customer_id, company_id, notes, floor_type, offset_x, offset_y, created_at, updated_at
        FROM rooms
        WHERE id = ?
    `, id)

	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadOutline(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// ListByCustomer returns every room of a customer, oldest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]*models.Room, error) {
	return r.list(ctx, `
        SELECT id, name, customer_id, company_id, notes, floor_type, offset_x, offset_y, created_at, updated_at
        FROM rooms
        WHERE customer_id = ?
        ORDER BY id
    `, customerID)
}

// ListByCustomerCompany narrows ListByCustomer to one company, as the
// floorplan print view does.
func (r *Repository) ListByCustomerCompany(ctx context.Context, companyID, customerID string) ([]*models.Room, error) {
	return r.list(ctx, `
        SELECT id, name, customer_id, company_id, notes, floor_type, offset_x, offset_y, created_at, updated_at
        FROM rooms
        WHERE company_id = ? AND customer_id = ?
        ORDER BY id
    `, companyID, customerID)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_measurements WHERE room_id = ?`, id); err != nil {
		return err
	}
	if err := clearConstraints(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ============================================================
// Rows
// ============================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*models.Room, error) {
	var (
		room                 models.Room
		createdAt, updatedAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.CustomerID, &room.CompanyID, &room.Notes, &room.FloorType,
		&room.Offset.X, &room.Offset.Y, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if room.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("room %d created_at: %w", room.ID, err)
	}
	if room.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("room %d updated_at: %w", room.ID, err)
	}
	return &room, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The connection pool holds a single connection, so outlines are read
	// only after the room cursor is closed.
	for _, room := range rooms {
		if err := r.loadOutline(ctx, room); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// loadOutline fills points, constraints and measurements.
func (r *Repository) loadOutline(ctx context.Context, room *models.Room) error {
	rows, err := r.db.QueryContext(ctx, `
        SELECT x_coordinate, y_coordinate FROM room_measurements WHERE room_id = ? ORDER BY point_order
    `, room.ID)
	if err != nil {
		return err
	}
	room.Points = []geometry.Point{}
	for rows.Next() {
		var p geometry.Point
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			rows.Close()
			return err
		}
		room.Points = append(room.Points, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `
        SELECT vertex_index, degrees FROM room_angle_constraints WHERE room_id = ? ORDER BY vertex_index
    `, room.ID)
	if err != nil {
		return err
	}
	room.AngleConstraints = []geometry.AngleConstraint{}
	for rows.Next() {
		var c geometry.AngleConstraint
		if err := rows.Scan(&c.VertexIndex, &c.Degrees); err != nil {
			rows.Close()
			return err
		}
		room.AngleConstraints = append(room.AngleConstraints, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `
        SELECT vertex_i, vertex_j, meters FROM room_length_constraints WHERE room_id = ? ORDER BY vertex_i, vertex_j
    `, room.ID)
	if err != nil {
		return err
	}
	room.LengthConstraints = []geometry.LengthConstraint{}
	for rows.Next() {
		var c geometry.LengthConstraint
		if err := rows.Scan(&c.I, &c.J, &c.Meters); err != nil {
			rows.Close()
			return err
		}
		room.LengthConstraints = append(room.LengthConstraints, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(room.Points) >= 3 {
		room.Measurements = geometry.Measure(room.Points, r.carpetMargin)
	}
	return nil
}

func writePoints(ctx context.Context, tx *sql.Tx, roomID int64, points []geometry.Point) error {
	for i, p := range points {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO room_measurements (room_id, point_order, x_coordinate, y_coordinate)
            VALUES (?, ?, ?, ?)
        `, roomID, i, p.X, p.Y); err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}
	return nil
}

func writeConstraints(ctx context.Context, tx *sql.Tx, roomID int64, angles []geometry.AngleConstraint, lengths []geometry.LengthConstraint) error {
	for _, c := range angles {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO room_angle_constraints (room_id, vertex_index, degrees) VALUES (?, ?, ?)
        `, roomID, c.VertexIndex, c.Degrees); err != nil {
			return fmt.Errorf("insert angle constraint: %w", err)
		}
	}
	for _, c := range lengths {
		i, j := c.I, c.J
		if i > j {
			i, j = j, i
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO room_length_constraints (room_id, vertex_i, vertex_j, meters) VALUES (?, ?, ?, ?)
        `, roomID, i, j, c.Meters); err != nil {
			return fmt.Errorf("insert length constraint: %w", err)
		}
	}
	return nil
}

func clearConstraints(ctx context.Context, tx *sql.Tx, roomID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_angle_constraints WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clear angle constraints: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_length_constraints WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clear length constraints: %w", err)
	}
	return nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite opens the sqlite database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
