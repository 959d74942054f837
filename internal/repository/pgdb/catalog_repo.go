package pgdb

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/repository/pgdb/converter"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CatalogRepo реализует каталог товаров поверх PostgreSQL. Позиция товара
// выдается последовательностью BIGSERIAL, поэтому порядок добавления
// сохраняется без координации со стороны вызывающего кода.
type CatalogRepo struct {
	pool       *pgxpool.Pool
	conv       converter.ProductConverter
	outboxRepo *OutboxEventRepo
}

func NewCatalogRepo(pool *pgxpool.Pool, conv converter.ProductConverter, outboxRepo *OutboxEventRepo) *CatalogRepo {
	return &CatalogRepo{
		pool:       pool,
		conv:       conv,
		outboxRepo: outboxRepo,
	}
}

// Append добавляет товар в конец каталога и в той же транзакции кладет
// событие product.added в outbox. Либо фиксируются оба изменения, либо ни одно.
func (r *CatalogRepo) Append(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, r.pool)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	appended, err := r.insert(ctx, product)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	payload, err := json.Marshal(map[string]any{
		"product_id": appended.ID,
		"name":       appended.Name,
		"category":   appended.Category,
		"price":      appended.Price,
		"image_ref":  appended.ImageRef,
		"position":   appended.Position,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = r.outboxRepo.Create(ctx, usecase.NewOutboxEvent(
		uuid.NewString(), usecase.ProductAdded, appended.ID, payload,
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return appended, nil
}

func (r *CatalogRepo) insert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (id, name, category, price, image_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, category, price, image_ref, position, created_at;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query,
		product.ID, product.Name, product.Category, product.Price, product.ImageRef,
	).Scan(
		&model.ID, &model.Name, &model.Category, &model.Price,
		&model.ImageRef, &model.Position, &model.CreatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(&model), nil
}

// List возвращает весь каталог в порядке добавления.
func (r *CatalogRepo) List(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, price, image_ref, position, created_at
		FROM products
		ORDER BY position;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		err := rows.Scan(
			&model.ID, &model.Name, &model.Category, &model.Price,
			&model.ImageRef, &model.Position, &model.CreatedAt,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *r.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
