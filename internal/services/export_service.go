package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/medflow-health/intake-service/internal/models"
	"github.com/medflow-health/intake-service/internal/repositories"
)

// ExportService renders stored submissions as spreadsheet files for the
// clinical operations team.
type ExportService interface {
	ExportSubmissionsToExcel(ctx context.Context, filters repositories.SubmissionFilters) ([]byte, error)
}

type exportService struct {
	repo   repositories.SubmissionRepository
	logger *slog.Logger
}

func NewExportService(repo repositories.SubmissionRepository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportSubmissionsToExcel writes one row per submission plus a flattened
// answers column. Malformed stored payloads get a row with the raw error so
// the export never silently loses a submission.
func (s *exportService) ExportSubmissionsToExcel(ctx context.Context, filters repositories.SubmissionFilters) ([]byte, error) {
	submissions, _, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Submissions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "Quiz", "Submitted At", "First Name", "Last Name", "Email",
		"Phone", "DOB", "Gender", "Answer Count", "Answers",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, submission := range submissions {
		row := s.submissionToRow(submission)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported submissions", "count", len(submissions))
	return buf.Bytes(), nil
}

func (s *exportService) submissionToRow(submission *models.Submission) []interface{} {
	var record models.SubmissionRecord
	if err := json.Unmarshal(submission.Payload, &record); err != nil {
		return []interface{}{
			submission.ID, submission.QuizSlug,
			submission.SubmittedAt.Format(time.RFC3339),
			"", "", "", "", "", "", 0,
			fmt.Sprintf("malformed payload: %v", err),
		}
	}

	return []interface{}{
		submission.ID,
		submission.QuizSlug,
		submission.SubmittedAt.Format(time.RFC3339),
		record.FirstName,
		record.LastName,
		record.Email,
		record.PhoneNumber,
		record.DOB,
		record.Gender,
		len(record.Questions),
		flattenAnswers(record.Questions),
	}
}

// flattenAnswers renders the question payloads into one readable cell.
func flattenAnswers(questions []models.QuestionPayload) string {
	out := ""
	for i, q := range questions {
		if i > 0 {
			out += "; "
		}
		switch answer := q.Answer.(type) {
		case []models.FilePayload:
			out += fmt.Sprintf("%s: %d file(s)", q.Question, len(answer))
		case []string:
			out += fmt.Sprintf("%s: %v", q.Question, answer)
		default:
			out += fmt.Sprintf("%s: %v", q.Question, answer)
		}
	}
	return out
}
