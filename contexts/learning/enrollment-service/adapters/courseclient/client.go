package courseclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eduweb/contexts/learning/enrollment-service/domain/entities"
	"eduweb/contexts/learning/enrollment-service/ports"

	"github.com/sony/gobreaker"
)

const defaultTimeout = 10 * time.Second

var (
	ErrUnavailable = errors.New("course service unavailable")
	// ErrRejected is a 4xx answer. It does not count against the breaker.
	ErrRejected = errors.New("course service rejected request")
)

// Client reads lesson totals from course-service over HTTP. Every call is
// bounded by Timeout and guarded by a circuit breaker that opens after
// consecutive failures.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// MaxFailures consecutive failures open the breaker for OpenFor.
	MaxFailures uint32
	OpenFor     time.Duration
	Logger      *slog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxFailures := opts.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "course-service",
		MaxRequests: 1,
		Timeout:     opts.OpenFor,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"event", "course_client_breaker_state",
				"module", "learning/enrollment-service",
				"layer", "adapter",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
		breaker: breaker,
		logger:  logger,
	}
}

type totalLessonsResponse struct {
	CourseID     string `json:"course_id"`
	TotalLessons int    `json:"total_lessons"`
	Version      int64  `json:"version"`
}

func (c *Client) LessonCount(ctx context.Context, courseID string) (entities.LessonCount, error) {
	if c.baseURL == "" {
		return entities.LessonCount{}, fmt.Errorf("%w: no base url configured", ErrUnavailable)
	}
	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, courseID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return entities.LessonCount{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return entities.LessonCount{}, err
	}
	return result.(entities.LessonCount), nil
}

func (c *Client) fetch(ctx context.Context, courseID string) (entities.LessonCount, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/api/courses/" + url.PathEscape(courseID) + "/total-lessons"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entities.LessonCount{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return entities.LessonCount{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return entities.LessonCount{}, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return entities.LessonCount{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body totalLessonsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return entities.LessonCount{}, fmt.Errorf("decode total lessons: %w", err)
	}
	if body.TotalLessons < 0 {
		return entities.LessonCount{}, fmt.Errorf("negative total lessons %d", body.TotalLessons)
	}
	return entities.LessonCount{
		CourseID:     body.CourseID,
		TotalLessons: body.TotalLessons,
		Version:      body.Version,
	}, nil
}

var _ ports.CourseLookup = (*Client)(nil)
