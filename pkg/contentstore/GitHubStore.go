package contentstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v74/github"
)

type GitHubStoreConfig struct {
	Owner  string
	Repo   string
	Branch string
	Token  string
}

/*
GitHubStore implements ContentStore on top of the GitHub contents API. The
file SHA returned by the API serves as the revision marker; GitHub rejects a
write carrying a stale SHA, which maps to ErrConflict.
*/
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

func NewGitHubStore(config GitHubStoreConfig) GitHubStore {
	client := github.NewClient(nil)

	if config.Token != "" {
		client = client.WithAuthToken(config.Token)
	}

	return GitHubStore{
		client: client,
		owner:  config.Owner,
		repo:   config.Repo,
		branch: config.Branch,
	}
}

func (s GitHubStore) List(ctx context.Context, path string) ([]Item, error) {
	_, directoryContent, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, s.getOptions())

	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("listing %q: %w", path, ErrNotFound)
		}

		return nil, fmt.Errorf("listing %q: %w: %w", path, ErrStoreUnavailable, err)
	}

	if directoryContent == nil {
		return nil, fmt.Errorf("listing %q: not a directory", path)
	}

	items := make([]Item, 0, len(directoryContent))

	for _, entry := range directoryContent {
		itemType := ItemTypeFile

		if entry.GetType() == "dir" {
			itemType = ItemTypeDir
		}

		items = append(items, Item{
			Name:     entry.GetName(),
			Path:     entry.GetPath(),
			Type:     itemType,
			Revision: entry.GetSHA(),
		})
	}

	return items, nil
}

func (s GitHubStore) FetchContent(ctx context.Context, path string) (string, error) {
	fileContent, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, s.getOptions())

	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", fmt.Errorf("fetching %q: %w", path, ErrNotFound)
		}

		return "", fmt.Errorf("fetching %q: %w: %w", path, ErrStoreUnavailable, err)
	}

	if fileContent == nil {
		return "", fmt.Errorf("fetching %q: not a file", path)
	}

	content, err := fileContent.GetContent()

	if err != nil {
		return "", fmt.Errorf("decoding content of %q: %w", path, err)
	}

	return content, nil
}

func (s GitHubStore) Exists(ctx context.Context, path string) (bool, error) {
	_, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, s.getOptions())

	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("checking existence of %q: %w: %w", path, ErrStoreUnavailable, err)
	}

	return true, nil
}

func (s GitHubStore) Revision(ctx context.Context, path string) (string, error) {
	fileContent, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, s.getOptions())

	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("reading revision of %q: %w: %w", path, ErrStoreUnavailable, err)
	}

	if fileContent == nil {
		return "", fmt.Errorf("reading revision of %q: not a file", path)
	}

	return fileContent.GetSHA(), nil
}

func (s GitHubStore) Write(ctx context.Context, path string, data []byte, expectedRevision, message string) (WriteResult, error) {
	var (
		err      error
		response *github.RepositoryContentResponse
	)

	options := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: data,
		Branch:  github.Ptr(s.branch),
	}

	if expectedRevision == "" {
		response, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, options)
	} else {
		options.SHA = github.Ptr(expectedRevision)
		response, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, options)
	}

	if err != nil {
		if isStatus(err, http.StatusConflict) || isStatus(err, http.StatusUnprocessableEntity) {
			return WriteResult{}, fmt.Errorf("writing %q: %w", path, ErrConflict)
		}

		return WriteResult{}, fmt.Errorf("writing %q: %w: %w", path, ErrStoreUnavailable, err)
	}

	return WriteResult{Revision: response.Content.GetSHA()}, nil
}

func (s GitHubStore) Delete(ctx context.Context, path, revision, message string) error {
	options := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		SHA:     github.Ptr(revision),
		Branch:  github.Ptr(s.branch),
	}

	_, _, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, path, options)

	if err != nil {
		if isStatus(err, http.StatusConflict) || isStatus(err, http.StatusUnprocessableEntity) {
			return fmt.Errorf("deleting %q: %w", path, ErrConflict)
		}

		return fmt.Errorf("deleting %q: %w: %w", path, ErrStoreUnavailable, err)
	}

	return nil
}

func (s GitHubStore) getOptions() *github.RepositoryContentGetOptions {
	return &github.RepositoryContentGetOptions{Ref: s.branch}
}

func isStatus(err error, status int) bool {
	var errorResponse *github.ErrorResponse

	if errors.As(err, &errorResponse) {
		return errorResponse.Response != nil && errorResponse.Response.StatusCode == status
	}

	return false
}
