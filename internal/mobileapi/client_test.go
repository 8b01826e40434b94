package mobileapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbook/internal/credentials"
	"fitbook/internal/models"
)

const testBaseURL = "https://api.fitbook.test"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient(t *testing.T, token string) *Client {
	t.Helper()
	store := credentials.NewMemoryStore()
	if token != "" {
		require.NoError(t, store.SetToken(context.Background(), token))
	}
	return NewClient(Config{BaseURL: testBaseURL + "/", Timeout: time.Second}, store, nil)
}

type failingTokens struct{ err error }

func (f failingTokens) Token(context.Context) (string, error) { return "", f.err }

func TestListReviews_BareArray(t *testing.T) {
	setupHTTPMock(t)

	var gotAuth, gotRequestID string
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/5/reviews",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			gotRequestID = req.Header.Get("X-Request-ID")
			return httpmock.NewStringResponse(http.StatusOK, `[
				{"id":1,"classId":5,"rating":5,"text":"Loved it","likeCount":2,"dislikeCount":0,"userLikeStatus":"like"},
				{"id":2,"classId":5,"rating":3,"text":"Okay","likeCount":0,"dislikeCount":1}
			]`), nil
		})

	reviews, err := newTestClient(t, "tok-123").ListReviews(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, models.VoteLike, reviews[0].UserLikeStatus)
	assert.Equal(t, models.VoteNone, reviews[1].UserLikeStatus)
	assert.Equal(t, 1, reviews[1].DislikeCount)
}

func TestListReviews_WrappedObjectAndEmpty(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/1/reviews",
		httpmock.NewStringResponder(http.StatusOK, `{"reviews":[{"id":9,"classId":1,"rating":4}]}`))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/2/reviews",
		httpmock.NewStringResponder(http.StatusOK, `null`))

	client := newTestClient(t, "")

	wrapped, err := client.ListReviews(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, int64(9), wrapped[0].ID)

	empty, err := client.ListReviews(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListReviews_AnonymousWithoutToken(t *testing.T) {
	setupHTTPMock(t)

	var hadAuth bool
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/5/reviews",
		func(req *http.Request) (*http.Response, error) {
			_, hadAuth = req.Header["Authorization"]
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	_, err := newTestClient(t, "").ListReviews(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestDo_ExpiredTokenIsOmitted(t *testing.T) {
	setupHTTPMock(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	var hadAuth bool
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/mobile/classes/5/reviews/7/like",
		func(req *http.Request) (*http.Response, error) {
			_, hadAuth = req.Header["Authorization"]
			return httpmock.NewStringResponse(http.StatusOK, `{"success":true}`), nil
		})

	client := newTestClient(t, expired)
	require.NoError(t, client.VoteReview(context.Background(), 5, 7, models.ActionLike))
	assert.False(t, hadAuth)

	_, err = client.CreateReview(context.Background(), 5, 4, "fine")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestCreateReview_RequiresCredential(t *testing.T) {
	setupHTTPMock(t)

	_, err := newTestClient(t, "").CreateReview(context.Background(), 5, 5, "Great")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestCreateReview_SendsBody(t *testing.T) {
	setupHTTPMock(t)

	var got models.CreateReviewRequest
	var contentType string
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/mobile/classes/5/reviews",
		func(req *http.Request) (*http.Response, error) {
			contentType = req.Header.Get("Content-Type")
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(body, &got); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusCreated, `{"id":30,"classId":5,"rating":4,"text":"Solid"}`), nil
		})

	created, err := newTestClient(t, "tok").CreateReview(context.Background(), 5, 4, "Solid")
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, models.CreateReviewRequest{Rating: 4, Text: "Solid"}, got)
	assert.Equal(t, int64(30), created.ID)
}

func TestVoteReview_SendsAction(t *testing.T) {
	setupHTTPMock(t)

	var body map[string]string
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/mobile/classes/3/reviews/11/like",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusNoContent, ""), nil
		})

	require.NoError(t, newTestClient(t, "tok").VoteReview(context.Background(), 3, 11, models.ActionDislike))
	assert.Equal(t, map[string]string{"action": "dislike"}, body)
}

func TestDo_StatusError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/5/reviews",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "  maintenance window \n"))

	_, err := newTestClient(t, "").ListReviews(context.Background(), 5)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance window", statusErr.Body)
	assert.Contains(t, err.Error(), "list reviews: api error: 503")
}

func TestDo_TransportError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/5/reviews",
		httpmock.NewErrorResponder(errors.New("network unreachable")))

	_, err := newTestClient(t, "").ListReviews(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
	assert.Contains(t, err.Error(), "network unreachable")
}

func TestDo_DecodeError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/api/mobile/classes/5/reviews",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"seven"}]`))

	_, err := newTestClient(t, "").ListReviews(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestDo_TokenStoreFailure(t *testing.T) {
	setupHTTPMock(t)

	client := NewClient(Config{BaseURL: testBaseURL}, failingTokens{err: errors.New("disk on fire")}, nil)
	err := client.Do(context.Background(), http.MethodGet, "/api/mobile/classes/1/reviews", nil, nil, AuthOptional)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load credential")
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestStatusError_Message(t *testing.T) {
	assert.Equal(t, "api error: 404 Not Found", (&StatusError{StatusCode: 404, Status: "404 Not Found"}).Error())
	assert.Equal(t, "api error: 400 Bad Request - rating required",
		(&StatusError{StatusCode: 400, Status: "400 Bad Request", Body: "rating required"}).Error())
}
