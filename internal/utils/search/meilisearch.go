// Package search removes consultant documents from the Meilisearch index.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

type documentDeleter interface {
	DeleteDocument(identifier string) (*meilisearch.TaskInfo, error)
}

type taskWaiter interface {
	WaitForTask(taskUID int64, options ...meilisearch.WaitParams) (*meilisearch.Task, error)
}

type SearchClient struct {
	index documentDeleter
	tasks taskWaiter
	poll  time.Duration
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		index: client.Index(constants.ConsultantSearchIndexUID),
		tasks: client,
		poll:  constants.SearchTaskPollInterval,
	}
}

// DeleteDocument enqueues the delete and waits for Meilisearch to finish it,
// so a nil error means the document is gone. Deleting an unknown id succeeds.
func (s *SearchClient) DeleteDocument(ctx context.Context, documentID string) error {
	info, err := s.index.DeleteDocument(documentID)
	if err != nil {
		return &utils.SearchIndexError{Op: "DeleteDocument", Err: err}
	}

	task, err := s.tasks.WaitForTask(info.TaskUID, meilisearch.WaitParams{Context: ctx, Interval: s.poll})
	if err != nil {
		return &utils.SearchIndexError{Op: "WaitForTask", Err: err}
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		return &utils.SearchIndexError{
			Op:  "DeleteDocument",
			Err: fmt.Errorf("task %d ended as %s: %s", info.TaskUID, task.Status, task.Error.Message),
		}
	}

	utils.Logger.Debugf("Deleted search document %s", documentID)
	return nil
}
