package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-site/cmd/mainconfig"
	appconfig "github.com/wolfman30/hospital-site/internal/config"
	"github.com/wolfman30/hospital-site/internal/notify"
	"github.com/wolfman30/hospital-site/internal/uploads"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, cmsMetrics, siteMetrics := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, cmsMetrics)
	require.NotNil(t, siteMetrics)

	cmsMetrics.ObserveFetch("departments", "ok", 0.05)
	siteMetrics.ObserveSubmission("contact", "success")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "ktrh_cms_fetch_total"), "cms counter exported")
	assert.True(t, strings.Contains(body, "go_goroutines"), "runtime collectors registered")
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if pool := connectPostgresPool(context.Background(), "", logger); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestConnectRedis(t *testing.T) {
	logger := logging.Discard()
	assert.Nil(t, connectRedis(context.Background(), &appconfig.Config{}, logger))

	mr := miniredis.RunT(t)
	client := connectRedis(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger)
	require.NotNil(t, client)
	defer func() { _ = client.Close() }()
	assert.NoError(t, client.Ping(context.Background()).Err())

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, connectRedis(context.Background(), &appconfig.Config{RedisAddr: addr}, logger),
		"unreachable redis disables the cache")
}

func noAWS(context.Context) (aws.Config, bool) { return aws.Config{}, false }

func TestSetupUploadsWithoutBucketUsesMemory(t *testing.T) {
	store := setupUploads(context.Background(), &appconfig.Config{}, noAWS, logging.Discard())
	_, ok := store.(*uploads.MemoryStore)
	assert.True(t, ok)
}

func TestSetupUploadsWithBucketUsesS3(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
		UploadsBucket:      "ktrh-applications",
	}
	store := setupUploads(context.Background(), cfg, mainconfig.LazyAWS(cfg, logging.Discard()), logging.Discard())
	_, ok := store.(*uploads.S3Store)
	assert.True(t, ok)
}

func TestSetupEmail(t *testing.T) {
	logger := logging.Discard()

	sender := setupEmail(context.Background(), &appconfig.Config{EmailProvider: "auto"}, noAWS, logger)
	_, ok := sender.(*notify.StubEmailSender)
	assert.True(t, ok, "auto without a key falls back to the stub")

	sender = setupEmail(context.Background(), &appconfig.Config{
		EmailProvider:    "sendgrid",
		SendGridAPIKey:   "SG.test",
		EmailFromAddress: "no-reply@ktrh.or.ke",
	}, noAWS, logger)
	_, ok = sender.(*notify.SendGridSender)
	assert.True(t, ok)

	sender = setupEmail(context.Background(), &appconfig.Config{EmailProvider: "ses"}, noAWS, logger)
	_, ok = sender.(*notify.StubEmailSender)
	assert.True(t, ok, "ses without aws config falls back to the stub")

	sender = setupEmail(context.Background(), &appconfig.Config{EmailProvider: "ses"}, func(context.Context) (aws.Config, bool) {
		return aws.Config{Region: "eu-west-1"}, true
	}, logger)
	_, ok = sender.(*notify.SESSender)
	assert.True(t, ok)
}
