package logger

import (
	"context"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Field keys shared by every request and delivery log line
const (
	FieldUserID       = "user_id"
	FieldDocumentType = "document_type"
	FieldAction       = "action"
)

// AddFields adds fields to the logger in context and returns new context
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(fields...))
}

// WithAction names the flow the following lines belong to
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String(FieldAction, action))
}

func WithUser(ctx context.Context, userID string) context.Context {
	return AddFields(ctx, zap.String(FieldUserID, userID))
}

// WithDocument tags the context logger with the document type and the flow
func WithDocument(ctx context.Context, docType entity.DocumentType, action string) context.Context {
	return AddFields(ctx,
		zap.String(FieldDocumentType, string(docType)),
		zap.String(FieldAction, action),
	)
}
