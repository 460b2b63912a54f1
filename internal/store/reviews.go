package store

import (
	"context"
	"fmt"

	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
)

func (s *Store) ReviewFor(ctx context.Context, userID, productID int64) (models.Review, error) {
	var r models.Review
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, rating, COALESCE(comment, ''), is_approved, created_at
		FROM reviews WHERE user_id = ? AND product_id = ?`, userID, productID).
		Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Comment, &r.IsApproved, &r.CreatedAt)
	return r, notFound(err)
}

// InsertReview relies on the unique key over (user_id, product_id).
func (s *Store) InsertReview(ctx context.Context, r *models.Review) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (user_id, product_id, rating, comment, is_approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.ProductID, r.Rating, r.Comment, r.IsApproved, r.CreatedAt)
	if err != nil {
		return duplicate(err, shop.ErrDuplicateReview)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ApprovedReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, COALESCE(r.user_id, 0), r.product_id, r.rating, COALESCE(r.comment, ''),
		       r.is_approved, r.created_at, COALESCE(u.username, '')
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = ? AND r.is_approved = TRUE
		ORDER BY r.created_at DESC, r.id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Comment,
			&r.IsApproved, &r.CreatedAt, &r.Username); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Store) AverageRating(ctx context.Context, productID int64) (float64, error) {
	var avg float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id = ? AND is_approved = TRUE", productID).
		Scan(&avg)
	return avg, err
}
