// Package reviews keeps a per-class cache of class reviews and reconciles the
// viewer's like/dislike votes with the backend.
//
// Votes are applied to the cache immediately and then sent to the backend.
// Whatever the outcome, the class is refetched afterwards and the server's
// list replaces the cache, which both confirms a successful vote and rolls
// back a failed one. Mutating operations never return errors; failures land
// in the class's error slot, readable through Err.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"fitbook/internal/logging"
	"fitbook/internal/models"
)

// API is the remote source of truth for reviews.
type API interface {
	ListReviews(ctx context.Context, classID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, classID int64, rating int, text string) (*models.Review, error)
	VoteReview(ctx context.Context, classID, reviewID int64, action models.VoteAction) error
}

// VoteState records the viewer's vote per review, keyed by class.
type VoteState interface {
	Save(classID int64, votes map[int64]models.VoteStatus)
}

type classState struct {
	reviews  []models.Review
	inflight int
	err      error
}

// Engine owns the review cache. It is safe for concurrent use; network calls
// run outside the lock, so the most recently completed fetch for a class wins.
type Engine struct {
	api    API
	votes  VoteState
	logger *logging.Logger

	mu      sync.Mutex
	classes map[int64]*classState
}

// New constructs an Engine. votes and logger may be nil.
func New(api API, votes VoteState, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{
		api:     api,
		votes:   votes,
		logger:  logger.Component("reviews"),
		classes: make(map[int64]*classState),
	}
}

// FetchReviews replaces the cached reviews for classID with the server's
// list. On failure the error is recorded and the stale cache is kept.
func (e *Engine) FetchReviews(ctx context.Context, classID int64) {
	e.refetch(ctx, classID, nil)
}

// SubmitReview creates a review and refetches the class on success. On
// failure the error is recorded and the cache is left untouched.
func (e *Engine) SubmitReview(ctx context.Context, classID int64, rating int, text string) {
	if _, err := e.api.CreateReview(ctx, classID, rating, text); err != nil {
		e.logger.Zerolog().Warn().
			Err(err).
			Int64("class_id", classID).
			Msg("review submission failed")

		e.mu.Lock()
		e.stateLocked(classID).err = err
		e.mu.Unlock()
		return
	}

	e.refetch(ctx, classID, nil)
}

// ApplyVoteAction applies action to the cached review optimistically, sends
// it to the backend and then refetches the class. References to classes or
// reviews that are not cached are ignored.
func (e *Engine) ApplyVoteAction(ctx context.Context, classID, reviewID int64, action models.VoteAction) {
	log := e.logger.Zerolog()

	e.mu.Lock()
	st, ok := e.classes[classID]
	if !ok {
		e.mu.Unlock()
		log.Debug().Int64("class_id", classID).Msg("vote on uncached class ignored")
		return
	}
	idx := slices.IndexFunc(st.reviews, func(r models.Review) bool { return r.ID == reviewID })
	if idx < 0 {
		e.mu.Unlock()
		log.Debug().Int64("class_id", classID).Int64("review_id", reviewID).Msg("vote on uncached review ignored")
		return
	}
	if _, err := models.ParseVoteAction(string(action)); err != nil {
		st.err = err
		e.mu.Unlock()
		return
	}

	st.reviews[idx] = Transition(st.reviews[idx], action)
	e.saveVotesLocked(classID, st.reviews)
	e.mu.Unlock()

	if err := e.api.VoteReview(ctx, classID, reviewID, action); err != nil {
		log.Warn().
			Err(err).
			Int64("class_id", classID).
			Int64("review_id", reviewID).
			Str("action", string(action)).
			Msg("vote failed, rolling back from server")
		e.refetch(ctx, classID, err)
		return
	}

	e.refetch(ctx, classID, nil)
}

// refetch loads the class from the server. cause is recorded as the class
// error for the duration and kept on success; a nil cause clears the slot.
func (e *Engine) refetch(ctx context.Context, classID int64, cause error) {
	e.mu.Lock()
	st := e.stateLocked(classID)
	st.inflight++
	st.err = cause
	e.mu.Unlock()

	reviews, err := e.api.ListReviews(ctx, classID)

	e.mu.Lock()
	defer e.mu.Unlock()
	st.inflight--

	if err != nil {
		e.logger.Zerolog().Warn().
			Err(err).
			Int64("class_id", classID).
			Msg("fetch reviews failed, keeping cached reviews")
		if cause != nil {
			err = errors.Join(cause, fmt.Errorf("refetch: %w", err))
		}
		st.err = err
		return
	}

	st.reviews = slices.Clone(reviews)
	if st.reviews == nil {
		st.reviews = []models.Review{}
	}
	e.saveVotesLocked(classID, st.reviews)
}

func (e *Engine) stateLocked(classID int64) *classState {
	st, ok := e.classes[classID]
	if !ok {
		st = &classState{reviews: []models.Review{}}
		e.classes[classID] = st
	}
	return st
}

func (e *Engine) saveVotesLocked(classID int64, reviews []models.Review) {
	if e.votes == nil {
		return
	}
	votes := make(map[int64]models.VoteStatus, len(reviews))
	for _, r := range reviews {
		votes[r.ID] = r.UserLikeStatus
	}
	e.votes.Save(classID, votes)
}

// Reviews returns a copy of the cached reviews for classID.
func (e *Engine) Reviews(classID int64) []models.Review {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.classes[classID]
	if !ok {
		return []models.Review{}
	}
	return slices.Clone(st.reviews)
}

// Review returns one cached review.
func (e *Engine) Review(classID, reviewID int64) (models.Review, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.classes[classID]
	if !ok {
		return models.Review{}, false
	}
	for _, r := range st.reviews {
		if r.ID == reviewID {
			return r, true
		}
	}
	return models.Review{}, false
}

// Loading reports whether a fetch for classID is in flight.
func (e *Engine) Loading(classID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.classes[classID]
	return ok && st.inflight > 0
}

// Err returns the error recorded for classID, if any.
func (e *Engine) Err(classID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.classes[classID]; ok {
		return st.err
	}
	return nil
}

// Summary aggregates the cached reviews for classID.
func (e *Engine) Summary(classID int64) models.ReviewSummary {
	return models.Summarize(classID, e.Reviews(classID))
}
