package services

import (
	"context"
	"sync"
	"time"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/sirupsen/logrus"
)

// RefreshOptions tunes a single refresh
type RefreshOptions struct {
	// FetchComments also loads review comments for every pull request
	FetchComments bool
}

// SnapshotListener receives a private copy of every published snapshot
type SnapshotListener func(models.Snapshot)

// SnapshotBuilder polls repositories and merges the results into a keyed
// snapshot. Every refresh runs under a new epoch; results tagged with an older
// epoch are dropped. Listeners are called synchronously in publish order while
// the builder lock is held, so they must not call back into the builder.
type SnapshotBuilder struct {
	newFetcher     FetcherFactory
	maxConcurrency int
	callTimeout    time.Duration

	mu        sync.Mutex
	current   models.Snapshot
	epoch     uint64
	cancel    context.CancelFunc
	listeners []SnapshotListener
	stopped   bool

	wg sync.WaitGroup
}

func NewSnapshotBuilder(newFetcher FetcherFactory, maxConcurrency int, callTimeout time.Duration) *SnapshotBuilder {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &SnapshotBuilder{
		newFetcher:     newFetcher,
		maxConcurrency: maxConcurrency,
		callTimeout:    callTimeout,
		current:        models.NewSnapshot(),
	}
}

// Subscribe registers a listener for published snapshots
func (b *SnapshotBuilder) Subscribe(listener SnapshotListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Snapshot returns a copy of the current snapshot
func (b *SnapshotBuilder) Snapshot() models.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.Clone()
}

// Epoch returns the active refresh epoch
func (b *SnapshotBuilder) Epoch() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch
}

// Refresh starts a new fan-out over repos and returns its epoch without
// waiting for any fetch. Repositories that are no longer configured are
// removed before the first request is sent. ctx bounds the whole refresh.
// After Stop it does nothing and returns the last epoch.
func (b *SnapshotBuilder) Refresh(ctx context.Context, repos []string, credential string, opts RefreshOptions) uint64 {
	fetcher := b.newFetcher(credential)
	valid := validRepos(repos)

	b.mu.Lock()
	if b.stopped {
		epoch := b.epoch
		b.mu.Unlock()
		return epoch
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.epoch++
	epoch := b.epoch
	refreshCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	next := pruneSnapshot(b.current, valid)
	next.Epoch = epoch
	for _, repo := range valid {
		next.Pending[repo] = true
	}
	b.publishLocked(next)
	b.wg.Add(len(valid))
	b.mu.Unlock()

	logger.WithFields(logrus.Fields{"epoch": epoch, "repos": len(valid)}).Info("Refreshing pull requests")

	sem := make(chan struct{}, b.maxConcurrency)
	for _, repo := range valid {
		go b.fetchRepo(refreshCtx, fetcher, sem, epoch, repo, opts)
	}

	return epoch
}

// Invalidate cancels the active refresh and publishes an empty
// unauthenticated snapshot for repos
func (b *SnapshotBuilder) Invalidate(repos []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidateLocked(validRepos(repos))
}

// Stop cancels in-flight fetches, waits for them to return and turns later
// refreshes into no-ops
func (b *SnapshotBuilder) Stop() {
	b.mu.Lock()
	b.stopped = true
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()
	b.wg.Wait()
}

// Wait blocks until every fetch started so far has returned
func (b *SnapshotBuilder) Wait() {
	b.wg.Wait()
}

func (b *SnapshotBuilder) fetchRepo(ctx context.Context, fetcher PullRequestFetcher, sem chan struct{}, epoch uint64, repo string, opts RefreshOptions) {
	defer b.wg.Done()

	owner, name, _ := ParseRepoFullName(repo)

	var prs []models.PullRequest
	err := b.call(ctx, sem, func(ctx context.Context) error {
		var err error
		prs, err = fetcher.ListOpenPullRequests(ctx, owner, name)
		return err
	})
	if ctx.Err() != nil {
		return
	}
	if IsAuthFailure(err) {
		b.failAuth(epoch, err)
		return
	}
	if err != nil {
		fetchErr := &FetchError{Op: "list pull requests", Repo: repo, Err: err}
		logger.WithError(fetchErr).WithField("epoch", epoch).Warn("Failed to list pull requests")
		b.update(epoch, func(s *models.Snapshot) bool {
			if !s.Pending[repo] {
				return false
			}
			delete(s.Pending, repo)
			s.Entries[repo] = []models.PrData{}
			s.RepoErrors[repo] = fetchErr.Error()
			return true
		})
		return
	}

	entries := make([]models.PrData, len(prs))
	for i, pr := range prs {
		entries[i] = models.NewLoadingPrData(pr)
	}
	applied := b.update(epoch, func(s *models.Snapshot) bool {
		if !s.Pending[repo] {
			return false
		}
		delete(s.Pending, repo)
		delete(s.RepoErrors, repo)
		s.Entries[repo] = entries
		return true
	})
	if !applied {
		return
	}

	for _, pr := range prs {
		b.wg.Add(1)
		go b.fetchDetails(ctx, fetcher, sem, epoch, repo, pr, opts)
	}
}

func (b *SnapshotBuilder) fetchDetails(ctx context.Context, fetcher PullRequestFetcher, sem chan struct{}, epoch uint64, repo string, pr models.PullRequest, opts RefreshOptions) {
	defer b.wg.Done()

	owner, name, _ := ParseRepoFullName(repo)

	var (
		wg          sync.WaitGroup
		reviews     []models.Review
		commits     []models.Commit
		comments    []models.Comment
		reviewsErr  error
		commitsErr  error
		commentsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		reviewsErr = b.call(ctx, sem, func(ctx context.Context) error {
			var err error
			reviews, err = fetcher.ListReviews(ctx, owner, name, pr.Number)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		commitsErr = b.call(ctx, sem, func(ctx context.Context) error {
			var err error
			commits, err = fetcher.ListCommits(ctx, owner, name, pr.Number)
			return err
		})
	}()
	if opts.FetchComments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			commentsErr = b.call(ctx, sem, func(ctx context.Context) error {
				var err error
				comments, err = fetcher.ListComments(ctx, owner, name, pr.Number)
				return err
			})
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return
	}
	for _, err := range []error{reviewsErr, commitsErr, commentsErr} {
		if IsAuthFailure(err) {
			b.failAuth(epoch, err)
			return
		}
	}

	var data models.PrData
	switch {
	case reviewsErr != nil:
		data = models.NewErrorPrData(pr, (&FetchError{Op: "list reviews", Repo: repo, Number: pr.Number, Err: reviewsErr}).Error())
	case commitsErr != nil:
		data = models.NewErrorPrData(pr, (&FetchError{Op: "list commits", Repo: repo, Number: pr.Number, Err: commitsErr}).Error())
	default:
		if commentsErr != nil {
			logger.WithError(&FetchError{Op: "list comments", Repo: repo, Number: pr.Number, Err: commentsErr}).
				Warn("Failed to list comments")
			comments = nil
		}
		data = models.NewReadyPrData(pr, ResolveReviews(reviews, pr.AuthorLogin), commits, comments)
	}

	if data.IsFailed() {
		logger.WithFields(logrus.Fields{"epoch": epoch, "pr": pr.Key().String()}).Warn(data.Error)
	}

	b.mergeDetails(epoch, repo, data)
}

// mergeDetails replaces the entry with the same number in repo. It reports
// whether the merge was applied.
func (b *SnapshotBuilder) mergeDetails(epoch uint64, repo string, data models.PrData) bool {
	return b.update(epoch, func(s *models.Snapshot) bool {
		entries := s.Entries[repo]
		for i := range entries {
			if entries[i].PR.Number == data.PR.Number {
				entries[i] = data.Clone()
				return true
			}
		}
		return false
	})
}

// call runs fn once a concurrency slot is free, bounded by the call timeout
func (b *SnapshotBuilder) call(ctx context.Context, sem chan struct{}, fn func(ctx context.Context) error) error {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()

	callCtx := ctx
	if b.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
	}
	return fn(callCtx)
}

// update applies fn to a copy of the current snapshot and publishes the result
// when epoch is still active and fn reports a change
func (b *SnapshotBuilder) update(epoch uint64, fn func(s *models.Snapshot) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if epoch != b.epoch {
		return false
	}

	next := b.current.Clone()
	if !fn(&next) {
		return false
	}
	b.publishLocked(next)
	return true
}

func (b *SnapshotBuilder) failAuth(epoch uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if epoch != b.epoch {
		return
	}
	logger.WithError(err).WithField("epoch", epoch).Warn("GitHub rejected the credential")
	b.invalidateLocked(b.current.Repos)
}

func (b *SnapshotBuilder) invalidateLocked(repos []string) {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.epoch++

	next := models.NewSnapshot()
	next.Epoch = b.epoch
	next.Repos = append(next.Repos, repos...)
	next.Unauthenticated = true
	b.publishLocked(next)
}

func (b *SnapshotBuilder) publishLocked(next models.Snapshot) {
	b.current = next
	for _, listener := range b.listeners {
		listener(next.Clone())
	}
}

// validRepos keeps well-formed, distinct repository names in order
func validRepos(repos []string) []string {
	seen := make(map[string]bool, len(repos))
	valid := make([]string, 0, len(repos))
	for _, repo := range repos {
		if _, _, err := ParseRepoFullName(repo); err != nil {
			logger.Debugf("Skipping repository %q: %v", repo, err)
			continue
		}
		if seen[repo] {
			continue
		}
		seen[repo] = true
		valid = append(valid, repo)
	}
	return valid
}

// pruneSnapshot drops every repository not in repos and resets pending state
func pruneSnapshot(current models.Snapshot, repos []string) models.Snapshot {
	keep := make(map[string]bool, len(repos))
	for _, repo := range repos {
		keep[repo] = true
	}

	next := current.Clone()
	next.Repos = append([]string{}, repos...)
	next.Pending = make(map[string]bool)
	next.Unauthenticated = false
	for repo := range next.Entries {
		if !keep[repo] {
			delete(next.Entries, repo)
		}
	}
	for repo := range next.RepoErrors {
		if !keep[repo] {
			delete(next.RepoErrors, repo)
		}
	}
	return next
}
