package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector serves canned questions and points jobs at a local mock job server
type MockConnector struct {
	jobURL string
	logger *zap.Logger
}

func NewMockConnector(jobURL string, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		jobURL: strings.TrimSuffix(jobURL, "/"),
		logger: logger,
	}
}

var mockQuestions = map[entity.DocumentType][]string{
	entity.DocumentTypeGTM: {
		"What product are you launching?",
		"Who is the primary buyer?",
		"Which channels do you plan to use?",
	},
	entity.DocumentTypeICP: {
		"Which industries do your best customers come from?",
		"What company size do you sell to?",
	},
	entity.DocumentTypeLinkedIn: {
		"What topics should the posts cover?",
		"How many posts per week?",
	},
}

func (m *MockConnector) FetchQuestions(ctx context.Context, req *entity.QuestionsRequest) ([]entity.Question, error) {
	texts, ok := mockQuestions[req.DocumentType]
	if !ok {
		texts = []string{
			fmt.Sprintf("Describe the goal of this %s document.", strings.ToUpper(string(req.DocumentType))),
			"Who is the audience?",
		}
	}

	questions := make([]entity.Question, 0, len(texts))
	for i, text := range texts {
		questions = append(questions, entity.Question{ID: i + 1, Question: text})
	}

	ctxzap.Info(ctx, "[MOCK] questions fetched",
		zap.String("document_type", string(req.DocumentType)),
		zap.Int("count", len(questions)),
	)
	return questions, nil
}

func (m *MockConnector) StartGeneration(ctx context.Context, req *entity.StartGenerationRequest) (*entity.GenerationJob, error) {
	if len(req.Answers) == 0 {
		return nil, fmt.Errorf("no answers provided")
	}

	job := &entity.GenerationJob{
		DocumentID:    uuid.New().String(),
		ConnectionURL: fmt.Sprintf("%s/%s/%s", m.jobURL, req.DocumentType, uuid.New().String()),
	}

	ctxzap.Info(ctx, "[MOCK] generation job started", zap.String("connection_url", job.ConnectionURL))
	return job, nil
}

func (m *MockConnector) UploadSource(ctx context.Context, req *entity.QuestionsRequest, files []entity.FileData) (*entity.UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	ctxzap.Info(ctx, "[MOCK] source files uploaded", zap.Int("file_count", len(files)))
	return &entity.UploadResult{DocumentID: uuid.New().String()}, nil
}
