package shop

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
)

const maxCommentLength = 500

// ReviewLedger records at most one rating per user and product.
type ReviewLedger struct {
	reviews  ReviewRepo
	products ProductReader
	now      func() time.Time
}

func NewReviewLedger(reviews ReviewRepo, products ProductReader) *ReviewLedger {
	return &ReviewLedger{reviews: reviews, products: products, now: time.Now}
}

// ProductReviews is what a product page shows.
type ProductReviews struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"averageRating"`
}

// Add stores the caller's review. Reviews are approved on creation; there is
// no moderation queue.
func (l *ReviewLedger) Add(ctx context.Context, caller access.Caller, productID int64, rating int, comment string) (models.Review, error) {
	if err := authorize(caller, access.Authenticated()); err != nil {
		return models.Review{}, err
	}
	if rating < 1 || rating > 5 {
		return models.Review{}, invalid("rating", "must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return models.Review{}, invalid("comment", "must be at most 500 characters")
	}

	if _, err := l.products.ProductByID(ctx, productID); err != nil {
		return models.Review{}, err
	}

	_, err := l.reviews.ReviewFor(ctx, caller.UserID, productID)
	if err == nil {
		return models.Review{}, ErrDuplicateReview
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Review{}, err
	}

	r := models.Review{
		UserID:     caller.UserID,
		ProductID:  productID,
		Rating:     rating,
		Comment:    comment,
		IsApproved: true,
		CreatedAt:  l.now(),
		Username:   caller.Username,
	}
	// The unique key on (user_id, product_id) also reports ErrDuplicateReview
	// when two submissions race past the check above.
	if err := l.reviews.InsertReview(ctx, &r); err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// ForProduct returns the approved reviews and their average, rounded to one decimal.
func (l *ReviewLedger) ForProduct(ctx context.Context, productID int64) (ProductReviews, error) {
	reviews, err := l.reviews.ApprovedReviews(ctx, productID)
	if err != nil {
		return ProductReviews{}, err
	}
	avg, err := l.reviews.AverageRating(ctx, productID)
	if err != nil {
		return ProductReviews{}, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return ProductReviews{Reviews: reviews, AverageRating: math.Round(avg*10) / 10}, nil
}
