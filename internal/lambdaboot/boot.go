// Package lambdaboot provides the Lambda cold-start bootstrap: AWS config,
// the Gemini key from SSM Parameter Store, and startup logging.
package lambdaboot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/neuroscan-edit/internal/auth"
	"github.com/fpang/neuroscan-edit/internal/logging"
)

// DefaultKeyParam is the SSM parameter read when SSM_API_KEY_PARAM is unset.
const DefaultKeyParam = "/neuroscan/prod/gemini-api-key"

// ParameterGetter is the subset of *ssm.Client used here.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// AWSClients holds the core AWS SDK clients used by the Lambda.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}

// KeyParam returns the SSM parameter path holding the Gemini key.
func KeyParam() string {
	return logging.EnvOrDefault("SSM_API_KEY_PARAM", DefaultKeyParam)
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store unless
// one of auth.KeyEnvVars is already set, and exports it as GEMINI_API_KEY.
func LoadGeminiKey(ctx context.Context, client ParameterGetter) error {
	if _, err := auth.GetAPIKey(); err == nil {
		return nil
	}
	paramName := KeyParam()
	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read API key from SSM parameter %s: %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return errors.New("SSM parameter " + paramName + " has no value")
	}
	if err := os.Setenv("GEMINI_API_KEY", *result.Parameter.Value); err != nil {
		return err
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return nil
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
