package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidVoteAction is returned when a vote verb is not like, dislike or cancel.
var ErrInvalidVoteAction = errors.New("invalid vote action")

// VoteStatus is the current viewer's vote on a review
type VoteStatus string

const (
	VoteLike    VoteStatus = "like"
	VoteDislike VoteStatus = "dislike"
	VoteNone    VoteStatus = "none"
)

// UnmarshalJSON maps missing or unknown values to VoteNone.
func (s *VoteStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode vote status: %w", err)
	}
	*s = normalizeStatus(raw)
	return nil
}

func normalizeStatus(raw *string) VoteStatus {
	if raw == nil {
		return VoteNone
	}
	switch VoteStatus(*raw) {
	case VoteLike:
		return VoteLike
	case VoteDislike:
		return VoteDislike
	default:
		return VoteNone
	}
}

// VoteAction is the verb sent to the review-like endpoint
type VoteAction string

const (
	ActionLike    VoteAction = "like"
	ActionDislike VoteAction = "dislike"
	ActionCancel  VoteAction = "cancel"
)

// ParseVoteAction validates a vote verb.
func ParseVoteAction(s string) (VoteAction, error) {
	switch VoteAction(s) {
	case ActionLike, ActionDislike, ActionCancel:
		return VoteAction(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVoteAction, s)
}

// Review is one user's review of a class, as seen by the current viewer.
type Review struct {
	ID             int64      `json:"id"`
	ClassID        int64      `json:"classId"`
	UserID         int64      `json:"userId"`
	Rating         int        `json:"rating"`
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"createdAt"`
	LikeCount      int        `json:"likeCount"`
	DislikeCount   int        `json:"dislikeCount"`
	UserLikeStatus VoteStatus `json:"userLikeStatus"`
}

// UnmarshalJSON defaults UserLikeStatus to VoteNone when the field is absent.
func (r *Review) UnmarshalJSON(data []byte) error {
	type plain Review
	aux := plain{UserLikeStatus: VoteNone}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Review(aux)
	return nil
}

// CreateReviewRequest is the body of a review submission
type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// VoteRequest is the body of a review-like call
type VoteRequest struct {
	Action VoteAction `json:"action"`
}

// ReviewSummary aggregates a class's cached reviews
type ReviewSummary struct {
	ClassID       int64   `json:"classId"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
	Likes         int     `json:"likes"`
	Dislikes      int     `json:"dislikes"`
}

// Summarize computes a ReviewSummary over reviews.
func Summarize(classID int64, reviews []Review) ReviewSummary {
	summary := ReviewSummary{ClassID: classID, Count: len(reviews)}
	if len(reviews) == 0 {
		return summary
	}

	total := 0
	for _, r := range reviews {
		total += r.Rating
		summary.Likes += r.LikeCount
		summary.Dislikes += r.DislikeCount
	}
	summary.AverageRating = float64(total) / float64(len(reviews))
	return summary
}
