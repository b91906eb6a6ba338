package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// PullRequestFetcher is the read-only view of the hosting API the dashboard needs
type PullRequestFetcher interface {
	ListOpenPullRequests(ctx context.Context, owner, repo string) ([]models.PullRequest, error)
	ListReviews(ctx context.Context, owner, repo string, number int) ([]models.Review, error)
	ListCommits(ctx context.Context, owner, repo string, number int) ([]models.Commit, error)
	ListComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error)
	GetAuthenticatedUser(ctx context.Context) (string, error)
}

// FetcherFactory builds a fetcher for a bearer credential
type FetcherFactory func(token string) PullRequestFetcher

// GitHubOption configures a GitHubService
type GitHubOption func(*GitHubService)

// WithBaseURL points the client at a GitHub Enterprise or test server
func WithBaseURL(baseURL string) GitHubOption {
	return func(s *GitHubService) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets the transport used underneath the oauth2 client
func WithHTTPClient(client *http.Client) GitHubOption {
	return func(s *GitHubService) {
		s.httpClient = client
	}
}

type GitHubService struct {
	client     *github.Client
	baseURL    string
	httpClient *http.Client
}

func NewGitHubService(token string, opts ...GitHubOption) (*GitHubService, error) {
	s := &GitHubService{}
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	s.client = github.NewClient(oauth2.NewClient(ctx, ts))

	if s.baseURL != "" {
		baseURL := s.baseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsedURL, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", s.baseURL, err)
		}
		s.client.BaseURL = parsedURL
	}

	return s, nil
}

// NewGitHubFetcherFactory returns a factory creating GitHubService fetchers with opts
func NewGitHubFetcherFactory(opts ...GitHubOption) FetcherFactory {
	return func(token string) PullRequestFetcher {
		s, err := NewGitHubService(token, opts...)
		if err != nil {
			return &failingFetcher{err: err}
		}
		return s
	}
}

// ListOpenPullRequests returns the first page of open pull requests
func (s *GitHubService) ListOpenPullRequests(ctx context.Context, owner, repo string) ([]models.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State: "open",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	prs, _, err := s.client.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, classifyError(err)
	}

	fullName := owner + "/" + repo
	out := make([]models.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, convertFromGitHubPR(pr, fullName))
	}
	return out, nil
}

func (s *GitHubService) ListReviews(ctx context.Context, owner, repo string, number int) ([]models.Review, error) {
	var allReviews []models.Review
	opts := &github.ListOptions{
		PerPage: 100,
	}

	for {
		reviews, resp, err := s.client.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, classifyError(err)
		}
		for _, review := range reviews {
			allReviews = append(allReviews, convertFromGitHubReview(review))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allReviews, nil
}

// ListCommits returns the pull request's commits oldest first
func (s *GitHubService) ListCommits(ctx context.Context, owner, repo string, number int) ([]models.Commit, error) {
	var allCommits []models.Commit
	opts := &github.ListOptions{
		PerPage: 100,
	}

	for {
		commits, resp, err := s.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, classifyError(err)
		}
		for _, commit := range commits {
			allCommits = append(allCommits, models.Commit{
				SHA:      commit.GetSHA(),
				Position: len(allCommits),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allCommits, nil
}

// ListComments returns the pull request's review comments
func (s *GitHubService) ListComments(ctx context.Context, owner, repo string, number int) ([]models.Comment, error) {
	var allComments []models.Comment
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		comments, resp, err := s.client.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, classifyError(err)
		}
		for _, comment := range comments {
			allComments = append(allComments, convertFromGitHubComment(comment))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allComments, nil
}

// GetAuthenticatedUser returns the login the credential belongs to
func (s *GitHubService) GetAuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := s.client.Users.Get(ctx, "")
	if err != nil {
		return "", classifyError(err)
	}
	return user.GetLogin(), nil
}

func convertFromGitHubPR(pr *github.PullRequest, fallbackRepo string) models.PullRequest {
	repoFullName := pr.GetBase().GetRepo().GetFullName()
	if repoFullName == "" {
		repoFullName = fallbackRepo
	}

	out := models.PullRequest{
		RepoFullName:       repoFullName,
		Number:             pr.GetNumber(),
		Title:              pr.GetTitle(),
		URL:                pr.GetHTMLURL(),
		AuthorLogin:        pr.GetUser().GetLogin(),
		AuthorAvatarURL:    pr.GetUser().GetAvatarURL(),
		Draft:              pr.GetDraft(),
		State:              pr.GetState(),
		RequestedReviewers: []string{},
		UpdatedAt:          pr.GetUpdatedAt().Time,
	}

	if pr.Assignee != nil && pr.Assignee.GetLogin() != "" {
		assignee := pr.Assignee.GetLogin()
		out.AssigneeLogin = &assignee
	}
	if pr.MergedAt != nil {
		mergedAt := pr.MergedAt.Time
		out.MergedAt = &mergedAt
	}
	for _, reviewer := range pr.RequestedReviewers {
		if login := reviewer.GetLogin(); login != "" {
			out.RequestedReviewers = append(out.RequestedReviewers, login)
		}
	}

	return out
}

func convertFromGitHubReview(review *github.PullRequestReview) models.Review {
	out := models.Review{
		ID:                review.GetID(),
		ReviewerLogin:     review.GetUser().GetLogin(),
		ReviewerAvatarURL: review.GetUser().GetAvatarURL(),
		State:             models.ReviewStatus(review.GetState()),
		SubmittedAt:       review.GetSubmittedAt().Time,
		CommitID:          review.GetCommitID(),
		HTMLURL:           review.GetHTMLURL(),
	}
	if review.Body != nil {
		body := review.GetBody()
		out.Body = &body
	}
	return out
}

func convertFromGitHubComment(comment *github.PullRequestComment) models.Comment {
	out := models.Comment{
		ID:              comment.GetID(),
		AuthorLogin:     comment.GetUser().GetLogin(),
		AuthorAvatarURL: comment.GetUser().GetAvatarURL(),
		Body:            comment.GetBody(),
		HTMLURL:         comment.GetHTMLURL(),
	}
	if comment.InReplyTo != nil {
		inReplyTo := comment.GetInReplyTo()
		out.InReplyToID = &inReplyTo
	}
	if comment.PullRequestReviewID != nil {
		reviewID := comment.GetPullRequestReviewID()
		out.ReviewID = &reviewID
	}
	return out
}

// classifyError maps 401 responses to ErrAuthFailure
func classifyError(err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	return err
}

// IsAuthFailure checks if err means the credential was rejected
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthFailure)
}

// ParseRepoFullName splits "owner/name" into its parts
func ParseRepoFullName(fullName string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(fullName), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedRepo, fullName)
	}
	return parts[0], parts[1], nil
}

// failingFetcher reports a construction error on every call
type failingFetcher struct {
	err error
}

func (f *failingFetcher) ListOpenPullRequests(context.Context, string, string) ([]models.PullRequest, error) {
	return nil, f.err
}

func (f *failingFetcher) ListReviews(context.Context, string, string, int) ([]models.Review, error) {
	return nil, f.err
}

func (f *failingFetcher) ListCommits(context.Context, string, string, int) ([]models.Commit, error) {
	return nil, f.err
}

func (f *failingFetcher) ListComments(context.Context, string, string, int) ([]models.Comment, error) {
	return nil, f.err
}

func (f *failingFetcher) GetAuthenticatedUser(context.Context) (string, error) {
	return "", f.err
}
