package reviews

import "fitbook/internal/models"

// Transition applies the viewer's vote action to a review's counters and
// status. Counters never drop below zero. Voting again for the bucket the
// viewer is already in withdraws the vote.
func Transition(r models.Review, action models.VoteAction) models.Review {
	prev := r.UserLikeStatus
	if prev != models.VoteLike && prev != models.VoteDislike {
		prev = models.VoteNone
	}

	switch action {
	case models.ActionLike:
		switch prev {
		case models.VoteLike:
			r.LikeCount--
			r.UserLikeStatus = models.VoteNone
		case models.VoteDislike:
			r.LikeCount++
			r.DislikeCount--
			r.UserLikeStatus = models.VoteLike
		default:
			r.LikeCount++
			r.UserLikeStatus = models.VoteLike
		}
	case models.ActionDislike:
		switch prev {
		case models.VoteDislike:
			r.DislikeCount--
			r.UserLikeStatus = models.VoteNone
		case models.VoteLike:
			r.LikeCount--
			r.DislikeCount++
			r.UserLikeStatus = models.VoteDislike
		default:
			r.DislikeCount++
			r.UserLikeStatus = models.VoteDislike
		}
	case models.ActionCancel:
		switch prev {
		case models.VoteLike:
			r.LikeCount--
		case models.VoteDislike:
			r.DislikeCount--
		}
		r.UserLikeStatus = models.VoteNone
	default:
		return r
	}

	r.LikeCount = max(r.LikeCount, 0)
	r.DislikeCount = max(r.DislikeCount, 0)
	return r
}
