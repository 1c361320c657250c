package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, category, price, stock, images, featured,
	rating, num_reviews, reviews, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p       Product
		images  []byte
		reviews []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock,
		&images, &p.Featured, &p.Rating, &p.NumReviews, &reviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return Product{}, fmt.Errorf("decode images: %w", err)
		}
	}
	p.Reviews = []Review{}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
			return Product{}, fmt.Errorf("decode reviews: %w", err)
		}
	}
	return p, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Search != "" {
		add("(name ILIKE $%d OR description ILIKE $%[1]d)", "%"+f.Search+"%")
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.Featured {
		add("featured = $%d", true)
	}
	if f.ExcludeID != "" {
		add("id <> $%d", f.ExcludeID)
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY ` + orderBy(f)
	args = append(args, f.Limit)
	q += fmt.Sprintf(` LIMIT $%d`, len(args))

	return r.query(ctx, q, args...)
}

func orderBy(f Filter) string {
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	switch f.SortBy {
	case SortPrice:
		return "price " + dir + ", id"
	case SortName:
		return "name " + dir + ", id"
	case SortNewest:
		return "created_at " + dir + ", id"
	default:
		return "created_at DESC, id"
	}
}

func (r *Repo) query(ctx context.Context, q string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, p Product) (Product, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return Product{}, err
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, category, price, stock, images, featured, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, images, p.Featured, p.CreatedAt, p.UpdatedAt)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (r *Repo) Update(ctx context.Context, p Product) (Product, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return Product{}, err
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, category=$4, price=$5, stock=$6, images=$7, featured=$8, updated_at=$9
		WHERE id=$1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, images, p.Featured, p.UpdatedAt)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	return nil
}

// AdjustStock locks the product row (FOR UPDATE) so concurrent adjustments
// cannot drive stock below zero.
func (r *Repo) AdjustStock(ctx context.Context, id string, delta int) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("lock product: %w", err)
	}
	if stock+delta < 0 {
		return Product{}, apperr.Validation(apperr.MsgInsufficientStock)
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id=$1
		RETURNING `+productColumns, id, delta))
	if err != nil {
		return Product{}, fmt.Errorf("adjust stock: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *Repo) TopByStock(ctx context.Context, limit int) ([]Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY stock DESC, id LIMIT $1`, limit)
}

// AddReview locks the product row while the review list and rating are
// rewritten.
func (r *Repo) AddReview(ctx context.Context, id string, rv Review) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("lock product: %w", err)
	}
	if err := p.AddReview(rv); err != nil {
		return Product{}, err
	}
	reviews, err := json.Marshal(p.Reviews)
	if err != nil {
		return Product{}, err
	}

	updated, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products SET reviews=$2, num_reviews=$3, rating=$4, updated_at=$5
		WHERE id=$1
		RETURNING `+productColumns, id, reviews, p.NumReviews, p.Rating, rv.Date))
	if err != nil {
		return Product{}, fmt.Errorf("add review: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Product{}, err
	}
	return updated, nil
}
