package mobileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fitbook/internal/models"
)

func reviewsPath(classID int64) string {
	return fmt.Sprintf("/api/mobile/classes/%d/reviews", classID)
}

func reviewLikePath(classID, reviewID int64) string {
	return fmt.Sprintf("/api/mobile/classes/%d/reviews/%d/like", classID, reviewID)
}

// ListReviews fetches the class's reviews. Anonymous reads are allowed.
func (c *Client) ListReviews(ctx context.Context, classID int64) ([]models.Review, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, reviewsPath(classID), nil, &raw, AuthOptional); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	reviews, err := decodeReviewList(raw)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// decodeReviewList accepts a bare array or an object wrapping it under "reviews".
func decodeReviewList(raw json.RawMessage) ([]models.Review, error) {
	trimmed := bytes.TrimSpace(raw)
	reviews := []models.Review{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return reviews, nil
	}

	if trimmed[0] == '{' {
		var wrapped struct {
			Reviews []models.Review `json:"reviews"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode reviews: %w", err)
		}
		if wrapped.Reviews != nil {
			reviews = wrapped.Reviews
		}
		return reviews, nil
	}

	if err := json.Unmarshal(trimmed, &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return reviews, nil
}

// CreateReview submits a review for the class. Requires a signed-in user.
func (c *Client) CreateReview(ctx context.Context, classID int64, rating int, text string) (*models.Review, error) {
	var created models.Review
	req := models.CreateReviewRequest{Rating: rating, Text: text}
	if err := c.Do(ctx, http.MethodPost, reviewsPath(classID), req, &created, AuthRequired); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &created, nil
}

// VoteReview persists a like, dislike or cancel on a review.
func (c *Client) VoteReview(ctx context.Context, classID, reviewID int64, action models.VoteAction) error {
	req := models.VoteRequest{Action: action}
	if err := c.Do(ctx, http.MethodPost, reviewLikePath(classID, reviewID), req, nil, AuthOptional); err != nil {
		return fmt.Errorf("vote review: %w", err)
	}
	return nil
}
