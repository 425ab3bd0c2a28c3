package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchFolders(t *testing.T) {
	got := batchFolders([]string{
		"http://a.example.com/one",
		"http://b.example.com/",
		"http://a.example.com/two",
		"http://a.example.com/three",
		"::bad",
	})
	assert.Equal(t, []string{
		"cloned-a-example-com",
		"cloned-b-example-com",
		"cloned-a-example-com-2",
		"cloned-a-example-com-3",
		"cloned-site",
	}, got)
}

func TestBatchCloner_CloneAll(t *testing.T) {
	srv := origin{
		"/one":   `<html><body><img src="/a.png"></body></html>`,
		"/two":   `<html><body><p>two</p></body></html>`,
		"/a.png": "A",
	}.serve(t)

	c, baseDir := newTestCloner(t, nil)
	bc := NewBatchCloner(c, 4, true)
	summary := bc.CloneAll(context.Background(), []string{
		srv.URL + "/one",
		"ftp://invalid/",
		srv.URL + "/two",
	})

	assert.Equal(t, 3, summary.TotalURLs)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailCount)
	assert.Equal(t, 0, summary.SkippedCount)
	assert.Equal(t, 1, summary.TotalAssets)
	require.Len(t, summary.Outcomes, 3)

	// 结果顺序与输入一致, 同主机的页面写入不同目录
	assert.True(t, summary.Outcomes[0].Success)
	assert.False(t, summary.Outcomes[1].Success)
	assert.True(t, summary.Outcomes[2].Success)
	assert.Equal(t, filepath.Join(baseDir, "cloned-127-0-0-1"), summary.Outcomes[0].OutputDir)
	assert.Equal(t, filepath.Join(baseDir, "cloned-127-0-0-1-2"), summary.Outcomes[2].OutputDir)
}

func TestBatchCloner_StopOnError(t *testing.T) {
	srv := origin{
		"/ok": `<html><body></body></html>`,
	}.serve(t)

	c, _ := newTestCloner(t, nil)
	bc := NewBatchCloner(c, 1, false)
	summary := bc.CloneAll(context.Background(), []string{
		"ftp://invalid/",
		srv.URL + "/ok",
		srv.URL + "/ok",
	})

	assert.Equal(t, 0, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailCount)
	assert.Equal(t, 2, summary.SkippedCount)
	for _, outcome := range summary.Outcomes[1:] {
		require.NotEmpty(t, outcome.Errors)
		assert.Equal(t, errSkipped.Error(), outcome.Errors[0])
	}
}

func TestNewBatchCloner_ClampsParallel(t *testing.T) {
	c, _ := newTestCloner(t, nil)
	bc := NewBatchCloner(c, 0, true)
	assert.Equal(t, 1, bc.parallel)

	summary := bc.CloneAll(context.Background(), nil)
	assert.Equal(t, 0, summary.TotalURLs)
	assert.Empty(t, summary.Outcomes)
}
