package lambdaboot

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	value string
	err   error
	calls int
	name  string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.name = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func TestLoadGeminiKeyFromSSM(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SSM_API_KEY_PARAM", "/test/key")

	fake := &fakeSSM{value: "from-ssm"}
	if err := LoadGeminiKey(context.Background(), fake); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.name != "/test/key" {
		t.Errorf("parameter = %q, want /test/key", fake.name)
	}
	if got := os.Getenv("GEMINI_API_KEY"); got != "from-ssm" {
		t.Errorf("GEMINI_API_KEY = %q", got)
	}
}

func TestLoadGeminiKeySkipsWhenSet(t *testing.T) {
	t.Setenv("API_KEY", "already")
	t.Setenv("GEMINI_API_KEY", "")

	fake := &fakeSSM{value: "unused"}
	if err := LoadGeminiKey(context.Background(), fake); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("SSM called %d times, want 0", fake.calls)
	}
}

func TestLoadGeminiKeyErrors(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SSM_API_KEY_PARAM", "")

	fake := &fakeSSM{err: errors.New("access denied")}
	if err := LoadGeminiKey(context.Background(), fake); err == nil {
		t.Fatal("expected error from SSM failure")
	}
	if fake.name != DefaultKeyParam {
		t.Errorf("parameter = %q, want default %q", fake.name, DefaultKeyParam)
	}

	if err := LoadGeminiKey(context.Background(), &fakeSSM{value: ""}); err == nil {
		t.Fatal("expected error for empty parameter value")
	}
}

func TestStartupLog(t *testing.T) {
	if StartupLog("neuroscan-lambda", time.Now()) == nil {
		t.Fatal("StartupLog returned nil")
	}
}
