package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldStage names the pipeline stage a log line belongs to.
	FieldStage = "stage"
	// FieldRunID carries the run identifier of one pipeline instance.
	FieldRunID = "run_id"
	// FieldProvider is the LLM provider backing the delegate.
	FieldProvider = "ai_provider"
	// FieldModel is the model name used for a call.
	FieldModel = "ai_model"
)

// StageFields returns the fields identifying one stage of one run.
func StageFields(stage, runID string) []zap.Field {
	return StringFields(map[string]string{
		FieldStage: stage,
		FieldRunID: runID,
	})
}

// ProviderFields returns the fields identifying the provider and model of a call.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(map[string]string{
		FieldProvider: provider,
		FieldModel:    model,
	})
}

// StringFields converts non-empty values into zap string fields.
func StringFields(values map[string]string) []zap.Field {
	fields := make([]zap.Field, 0, len(values))
	for key, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// With returns l enriched with fields, or a no-op logger when l is nil.
func With(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
