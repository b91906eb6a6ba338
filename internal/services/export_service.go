package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Pull Requests"

var exportHeader = []interface{}{
	"Group", "Repository", "Number", "Title", "Author", "Assignee", "Draft",
	"Status", "Approvals", "Changes requested", "Pending reviewers", "Updated", "URL",
}

type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// WriteXLSX writes one row per group and pull request to w
func (s *ExportService) WriteXLSX(w io.Writer, groups []models.PRGroup) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	lastColumn, err := excelize.ColumnNumberToName(len(exportHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastColumn+"1", headerStyle); err != nil {
		return fmt.Errorf("error styling header: %w", err)
	}

	row := 2
	for _, group := range SummarizeGroups(groups) {
		for _, pr := range group.PullRequests {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{
				group.Label,
				pr.Repo,
				pr.Number,
				pr.Title,
				pr.Author,
				pr.Assignee,
				pr.Draft,
				string(pr.Status),
				pr.CountByState(models.ReviewStatusApproved),
				pr.CountByState(models.ReviewStatusChangesRequested),
				strings.Join(pr.PendingReviewers, ", "),
				pr.UpdatedAt.Format("2006-01-02 15:04:05"),
				pr.URL,
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return fmt.Errorf("error writing row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("error freezing header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
