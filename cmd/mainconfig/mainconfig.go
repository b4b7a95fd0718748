package mainconfig

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/hospital-site/internal/config"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// localServices are the AWS services routed to AWS_ENDPOINT_OVERRIDE.
var localServices = map[string]bool{
	s3.ServiceID:    true,
	sesv2.ServiceID: true,
}

// LoadAWSConfig builds the SDK config shared by uploads and email. Static
// keys win over the default chain when both are set.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	key, secret := strings.TrimSpace(cfg.AWSAccessKeyID), strings.TrimSpace(cfg.AWSSecretAccessKey)
	if key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.AWSEndpointOverride != "" {
		awsCfg.EndpointResolverWithOptions = localEndpoint(cfg.AWSEndpointOverride, cfg.AWSRegion)
	}
	return awsCfg, nil
}

func localEndpoint(url, region string) aws.EndpointResolverWithOptions {
	return aws.EndpointResolverWithOptionsFunc(func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
		if !localServices[service] {
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}
		return aws.Endpoint{
			URL:               url,
			PartitionID:       "aws",
			SigningRegion:     region,
			HostnameImmutable: true,
		}, nil
	})
}

// AWSSource yields the shared AWS config, or false when it could not be loaded.
type AWSSource func(ctx context.Context) (aws.Config, bool)

// LazyAWS loads the AWS config once, on first use, so a deployment with
// neither an uploads bucket nor SES never touches the credential chain.
func LazyAWS(cfg *appconfig.Config, logger *logging.Logger) AWSSource {
	var (
		once   sync.Once
		awsCfg aws.Config
		ok     bool
	)
	return func(ctx context.Context) (aws.Config, bool) {
		once.Do(func() {
			loaded, err := LoadAWSConfig(ctx, cfg)
			if err != nil {
				logger.Error("failed to load AWS config", "error", err)
				return
			}
			awsCfg, ok = loaded, true
		})
		return awsCfg, ok
	}
}

// NewS3Client builds the uploads client. LocalStack needs path-style
// addressing.
func NewS3Client(awsCfg aws.Config, cfg *appconfig.Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
}

// NewSESClient builds the email client.
func NewSESClient(awsCfg aws.Config) *sesv2.Client {
	return sesv2.NewFromConfig(awsCfg)
}
