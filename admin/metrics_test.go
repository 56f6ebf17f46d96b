package admin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcefinder/sourcefinder/client"
)

func TestMetricsCountFailures(t *testing.T) {
	listErr := errors.New("db down")
	api := &fakeAPI{
		listDocs: func(context.Context, string) ([]client.Document, error) { return nil, listErr },
		upload: func(context.Context, client.ProgressFunc) (*client.UploadResult, error) {
			return nil, errors.New("disk full")
		},
	}
	o := New(api, adminSession("T"))

	uploadErrs := mutationsTotal.WithLabelValues("upload_document", "error")
	docReloads := reloadFailuresTotal.WithLabelValues(TabDocuments.String())
	beforeUpload := testutil.ToFloat64(uploadErrs)
	beforeReload := testutil.ToFloat64(docReloads)

	_, err := o.UploadDocument(context.Background(), "Report", client.FileSource{Name: "r.txt", Reader: strings.NewReader("x"), Size: 1})
	require.Error(t, err)

	assert.Equal(t, beforeUpload+1, testutil.ToFloat64(uploadErrs))
	// The unconditional reload after the failed upload also failed.
	assert.Equal(t, beforeReload+1, testutil.ToFloat64(docReloads))
	assert.Equal(t, "disk full", o.Snapshot().ActionErr)
}
