// Package common carries ambient helpers shared across the search pipeline,
// following the teacher's chat_pipline/common.go pattern where each stage
// logs its input, intermediate computation, and output through a single
// narrow entry point instead of calling logrus directly.
package common

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Tencent/kgsearch/internal/logger"
)

// PipelineInfo logs a normal-path pipeline event.
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]any) {
	logger.WithFields(ctx, logrus.InfoLevel, stage+"."+action, toLogFields(stage, action, fields))
}

// PipelineWarn logs a degraded-path pipeline event. Callers in
// internal/search collect these into SearchStats.Warnings (SPEC_FULL.md §D.3).
func PipelineWarn(ctx context.Context, stage, action string, fields map[string]any) {
	logger.WithFields(ctx, logrus.WarnLevel, stage+"."+action, toLogFields(stage, action, fields))
	recordWarning(ctx, stage, action, fields)
}

// PipelineError logs a fatal-path pipeline event.
func PipelineError(ctx context.Context, stage, action string, fields map[string]any) {
	logger.WithFields(ctx, logrus.ErrorLevel, stage+"."+action, toLogFields(stage, action, fields))
}

func toLogFields(stage, action string, fields map[string]any) logger.Fields {
	out := make(logger.Fields, len(fields)+2)
	out["stage"] = stage
	out["action"] = action
	for k, v := range fields {
		out[k] = v
	}
	return out
}
