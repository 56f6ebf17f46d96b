package client

import (
	"context"
	"sync"
)

// UploadTask is an in-flight document upload. Progress values are delivered
// on Progress() in strictly increasing order and the channel is closed once
// the task settles; Done() is closed right after.
type UploadTask struct {
	Title    string
	FileName string

	progress chan int
	done     chan struct{}
	cancel   context.CancelFunc

	mu      sync.Mutex
	percent int
	known   bool
	result  *UploadResult
	err     error
}

// StartUpload begins uploading file in the background and returns
// immediately. Cancelling ctx or calling Cancel aborts the transfer.
func (c *Client) StartUpload(ctx context.Context, token, title string, file FileSource) *UploadTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &UploadTask{
		Title:    title,
		FileName: file.Name,
		// 0..100 are the only values ever sent and each at most once, so
		// sends never block.
		progress: make(chan int, 101),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	uploadsStartedTotal.Inc()

	go func() {
		defer cancel()
		res, err := c.UploadDocument(ctx, token, title, file, t.report)
		t.settle(res, err)
	}()
	return t
}

func (t *UploadTask) report(percent int) {
	t.mu.Lock()
	t.percent = percent
	t.known = true
	t.mu.Unlock()
	t.progress <- percent
}

func (t *UploadTask) settle(res *UploadResult, err error) {
	t.mu.Lock()
	t.result, t.err = res, err
	t.mu.Unlock()
	uploadsSettledTotal.WithLabelValues(uploadOutcome(err)).Inc()
	close(t.progress)
	close(t.done)
}

// Progress streams upload percentages. It is closed when the task settles.
func (t *UploadTask) Progress() <-chan int { return t.progress }

// Percent returns the latest reported percentage. ok is false until the
// first progress event, and stays false when the file size is unknown.
func (t *UploadTask) Percent() (percent int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent, t.known
}

// Done is closed when the upload has settled.
func (t *UploadTask) Done() <-chan struct{} { return t.done }

// Cancel aborts the upload. The task settles with an aborted error unless it
// already finished.
func (t *UploadTask) Cancel() { t.cancel() }

// Wait blocks until the upload settles and returns its outcome.
func (t *UploadTask) Wait() (*UploadResult, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}
