package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "fotoventa_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, customer_email, photographer_id, total_amount, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.CustomerEmail,
		order.PhotographerID,
		order.TotalAmount,
		order.Status)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	itemQuery := `INSERT INTO order_items (order_id, photo_id, price_at_purchase, quantity)
	              VALUES ($1, $2, $3, $4)`
	for _, item := range items {
		if _, e2 := tx.ExecContext(ctx, itemQuery, order.ID, item.PhotoID, item.PriceAtPurchase, item.Quantity); e2 != nil {
			return fmt.Errorf("insert order item: %w", e2)
		}
	}

	if e2 := tx.Commit(); e2 != nil {
		return fmt.Errorf("commit order tx: %w", e2)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, customer_email, photographer_id, total_amount, status, mercado_pago_payment_id, download_expires_at, paid_at, created_at
	          FROM orders WHERE id = $1`
	return r.scanOrder(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetOrderForCustomer(ctx context.Context, id uuid.UUID, customerEmail string) (*domain.Order, error) {
	query := `SELECT id, customer_email, photographer_id, total_amount, status, mercado_pago_payment_id, download_expires_at, paid_at, created_at
	          FROM orders WHERE id = $1 AND LOWER(customer_email) = LOWER($2)`
	return r.scanOrder(r.db.QueryRowContext(ctx, query, id, customerEmail))
}

func (r *PostgresRepository) scanOrder(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	var photographerID sql.NullString
	err := row.Scan(
		&order.ID,
		&order.CustomerEmail,
		&photographerID,
		&order.TotalAmount,
		&order.Status,
		&order.MercadoPagoPaymentID,
		&order.DownloadExpiresAt,
		&order.PaidAt,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if photographerID.Valid {
		if id, e2 := uuid.Parse(photographerID.String); e2 == nil {
			order.PhotographerID = id
		}
	}
	return &order, nil
}

func (r *PostgresRepository) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT order_id, photo_id, price_at_purchase, quantity
	          FROM order_items WHERE order_id = $1`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if e2 := rows.Scan(&item.OrderID, &item.PhotoID, &item.PriceAtPurchase, &item.Quantity); e2 != nil {
			return nil, fmt.Errorf("scan order item: %w", e2)
		}
		items = append(items, item)
	}
	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}

	return items, nil
}

func (r *PostgresRepository) OrderContainsPhoto(ctx context.Context, orderID, photoID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM order_items WHERE order_id = $1 AND photo_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, orderID, photoID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query order item existence: %w", err)
	}
	return exists, nil
}

// MarkOrderPaid is the compare-and-set half of the reconciler: the WHERE
// clause on status makes a second delivery (or a concurrent one) a no-op.
func (r *PostgresRepository) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentID *int64, paidAt, expiresAt time.Time) (bool, error) {
	query := `UPDATE orders
	          SET status = $2, mercado_pago_payment_id = $3, paid_at = $4, download_expires_at = $5
	          WHERE id = $1 AND status = $6`

	res, err := r.db.ExecContext(ctx, query,
		orderID,
		domain.OrderStatusPaid,
		paymentID,
		paidAt,
		expiresAt,
		domain.OrderStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresRepository) EnsureDownloadRecord(ctx context.Context, orderID uuid.UUID, userEmail string) error {
	query := `INSERT INTO downloads (order_id, user_email, counter, created_at)
	          VALUES ($1, $2, 0, NOW())
	          ON CONFLICT (order_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, orderID, userEmail); err != nil {
		return fmt.Errorf("ensure download record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetDownloadCount(ctx context.Context, orderID, photoID uuid.UUID) (int, error) {
	query := `SELECT download_count FROM photo_downloads WHERE order_id = $1 AND photo_id = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, orderID, photoID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query download count: %w", err)
	}
	return count, nil
}

// IncrementDownloadCount relies on the upsert's WHERE guard so that two
// concurrent downloads cannot push the counter past maxDownloads.
func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, orderID, photoID uuid.UUID, maxDownloads int) (int, error) {
	query := `INSERT INTO photo_downloads (order_id, photo_id, download_count)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (order_id, photo_id)
	          DO UPDATE SET download_count = photo_downloads.download_count + 1
	          WHERE photo_downloads.download_count < $3
	          RETURNING download_count`

	var count int
	err := r.db.QueryRowContext(ctx, query, orderID, photoID, maxDownloads).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDownloadLimitReached
	}
	if err != nil {
		return 0, fmt.Errorf("increment download count: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ListOrdersByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT id, customer_email, photographer_id, total_amount, status, mercado_pago_payment_id, download_expires_at, paid_at, created_at
	          FROM orders WHERE photographer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, photographerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by photographer: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		var pid sql.NullString
		if e2 := rows.Scan(
			&order.ID,
			&order.CustomerEmail,
			&pid,
			&order.TotalAmount,
			&order.Status,
			&order.MercadoPagoPaymentID,
			&order.DownloadExpiresAt,
			&order.PaidAt,
			&order.CreatedAt,
		); e2 != nil {
			return nil, fmt.Errorf("scan order row: %w", e2)
		}
		if pid.Valid {
			if id, e3 := uuid.Parse(pid.String); e3 == nil {
				order.PhotographerID = id
			}
		}
		orders = append(orders, &order)
	}
	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}

	return orders, nil
}

func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID, photographerID uuid.UUID) error {
	query := `DELETE FROM orders WHERE id = $1 AND photographer_id = $2`

	res, err := r.db.ExecContext(ctx, query, orderID, photographerID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateAlbum(ctx context.Context, album *domain.Album) error {
	query := `INSERT INTO albums (id, photographer_id, name, price_per_photo, created_at)
	          VALUES ($1, $2, $3, $4, NOW())`

	if _, err := r.db.ExecContext(ctx, query, album.ID, album.PhotographerID, album.Name, album.PricePerPhoto); err != nil {
		return fmt.Errorf("insert album: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAlbumByID(ctx context.Context, id uuid.UUID) (*domain.Album, error) {
	query := `SELECT id, photographer_id, name, price_per_photo, created_at FROM albums WHERE id = $1`

	var album domain.Album
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&album.ID,
		&album.PhotographerID,
		&album.Name,
		&album.PricePerPhoto,
		&album.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query album: %w", err)
	}
	return &album, nil
}

func (r *PostgresRepository) ListAlbumsByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]*domain.Album, error) {
	query := `SELECT id, photographer_id, name, price_per_photo, created_at
	          FROM albums WHERE photographer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, photographerID)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var albums []*domain.Album
	for rows.Next() {
		var album domain.Album
		if e2 := rows.Scan(&album.ID, &album.PhotographerID, &album.Name, &album.PricePerPhoto, &album.CreatedAt); e2 != nil {
			return nil, fmt.Errorf("scan album row: %w", e2)
		}
		albums = append(albums, &album)
	}
	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}
	return albums, nil
}

func (r *PostgresRepository) DeleteAlbum(ctx context.Context, albumID, photographerID uuid.UUID) error {
	query := `DELETE FROM albums WHERE id = $1 AND photographer_id = $2`

	res, err := r.db.ExecContext(ctx, query, albumID, photographerID)
	if err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

func (r *PostgresRepository) CreatePhoto(ctx context.Context, photo *domain.Photo) error {
	query := `INSERT INTO photos (id, album_id, original_path, watermarked_path, original_name, student_code, price, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	if _, err := r.db.ExecContext(ctx, query,
		photo.ID,
		photo.AlbumID,
		photo.OriginalPath,
		photo.WatermarkedPath,
		photo.OriginalName,
		photo.StudentCode,
		photo.Price); err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPhotoByID(ctx context.Context, id uuid.UUID) (*domain.Photo, error) {
	query := `SELECT id, album_id, original_path, watermarked_path, original_name, student_code, price, created_at
	          FROM photos WHERE id = $1`

	var photo domain.Photo
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&photo.ID,
		&photo.AlbumID,
		&photo.OriginalPath,
		&photo.WatermarkedPath,
		&photo.OriginalName,
		&photo.StudentCode,
		&photo.Price,
		&photo.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query photo: %w", err)
	}
	return &photo, nil
}

func (r *PostgresRepository) ListAlbumPhotos(ctx context.Context, albumID uuid.UUID) ([]*domain.Photo, error) {
	query := `SELECT id, album_id, original_path, watermarked_path, original_name, student_code, price, created_at
	          FROM photos WHERE album_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("query album photos: %w", err)
	}
	defer rows.Close()

	var photos []*domain.Photo
	for rows.Next() {
		var photo domain.Photo
		if e2 := rows.Scan(
			&photo.ID,
			&photo.AlbumID,
			&photo.OriginalPath,
			&photo.WatermarkedPath,
			&photo.OriginalName,
			&photo.StudentCode,
			&photo.Price,
			&photo.CreatedAt,
		); e2 != nil {
			return nil, fmt.Errorf("scan photo row: %w", e2)
		}
		photos = append(photos, &photo)
	}
	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}
	return photos, nil
}

func (r *PostgresRepository) DeletePhoto(ctx context.Context, photoID, photographerID uuid.UUID) error {
	query := `DELETE FROM photos
	          WHERE id = $1
	            AND album_id IN (SELECT id FROM albums WHERE photographer_id = $2)`

	res, err := r.db.ExecContext(ctx, query, photoID, photographerID)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
