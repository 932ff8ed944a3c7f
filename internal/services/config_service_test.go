// internal/services/config_service_test.go
package services

import (
	"context"
	"testing"

	apperrors "github.com/satireworks/greenroom/internal/errors"
)

// An unreachable base_url forces the live model probe to fail so validation
// has to fall back to the provider's static list.
func unreachableOllamaConfig() map[string]string {
	return map[string]string{"base_url": "http://127.0.0.1:1"}
}

func TestValidateModelFallsBackToStaticList(t *testing.T) {
	cs := NewConfigService(NewEmptyLLMService())

	if err := cs.validateModel(context.Background(), "ollama", "llama3.1", unreachableOllamaConfig(), nil); err != nil {
		t.Errorf("recommended model rejected with backend down: %v", err)
	}
}

func TestValidateModelRejectsUnknownModel(t *testing.T) {
	cs := NewConfigService(NewEmptyLLMService())

	err := cs.validateModel(context.Background(), "ollama", "definitely-not-a-model", unreachableOllamaConfig(), nil)
	if err == nil {
		t.Fatal("expected unknown model to be rejected")
	}
	if !apperrors.IsValidationError(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestValidateModelTrustsCustomModels(t *testing.T) {
	cs := NewConfigService(NewEmptyLLMService())

	custom := []string{"my-finetune:latest"}
	if err := cs.validateModel(context.Background(), "ollama", "my-finetune:latest", unreachableOllamaConfig(), custom); err != nil {
		t.Errorf("custom model rejected: %v", err)
	}
}

func TestListModelsFallsBackToStaticList(t *testing.T) {
	llmService := NewEmptyLLMService()
	if err := llmService.UpdateProvider("ollama", unreachableOllamaConfig()); err != nil {
		t.Fatalf("UpdateProvider: %v", err)
	}
	cs := NewConfigService(llmService)

	models, err := cs.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("expected the static model list, got none")
	}
	found := false
	for _, m := range models {
		if m == "llama3.1" {
			found = true
		}
	}
	if !found {
		t.Errorf("static list missing llama3.1: %v", models)
	}
}
