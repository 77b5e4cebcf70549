package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	incidentlog "mspmon/internal/alerting/infrastructure/postgres"
)

// Summary describes the incident set being exported.
type Summary struct {
	Customer    string
	From        time.Time
	To          time.Time
	GeneratedAt time.Time
}

func (s Summary) title() string {
	if s.Customer == "" {
		return "Incident Report"
	}
	return "Incident Report: " + s.Customer
}

// BuildIncidentPDF renders a PDF report of logged incidents.
func BuildIncidentPDF(summary Summary, incidents []incidentlog.LoggedIncident) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, summary.title())
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if !summary.From.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("From: %s", summary.From.Format("2006-01-02")))
		pdf.Ln(5)
	}
	if !summary.To.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("To: %s", summary.To.Format("2006-01-02")))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Incidents: %d", len(incidents)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(30, 6, "Source", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Customer", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Endpoint", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Severity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(33, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(33, 6, "End", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, incident := range incidents {
		pdf.CellFormat(30, 6, incident.Source, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, incident.Customer, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, incident.EndpointID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, incident.AlertType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, incident.Severity, "1", 0, "C", false, 0, "")
		pdf.CellFormat(33, 6, incident.StartAt.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(33, 6, incident.EndAt.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildIncidentXLSX renders an XLSX report of logged incidents.
func BuildIncidentXLSX(summary Summary, incidents []incidentlog.LoggedIncident) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	incidentSheet := "incidents"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(incidentSheet)

	_ = f.SetCellValue(summarySheet, "A1", summary.title())
	_ = f.SetCellValue(summarySheet, "A3", "Customer")
	_ = f.SetCellValue(summarySheet, "B3", summary.Customer)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	if !summary.From.IsZero() {
		_ = f.SetCellValue(summarySheet, "B4", summary.From.Format("2006-01-02"))
	}
	_ = f.SetCellValue(summarySheet, "A5", "To")
	if !summary.To.IsZero() {
		_ = f.SetCellValue(summarySheet, "B5", summary.To.Format("2006-01-02"))
	}
	_ = f.SetCellValue(summarySheet, "A6", "Generated")
	_ = f.SetCellValue(summarySheet, "B6", summary.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A7", "Incidents")
	_ = f.SetCellValue(summarySheet, "B7", len(incidents))

	headers := []string{"Source", "Tenant", "Customer", "Endpoint", "Type", "Severity", "Start", "End", "Ticket", "Description"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(incidentSheet, cell, header)
	}
	for i, incident := range incidents {
		row := i + 2
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("A%d", row), incident.Source)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("B%d", row), incident.TenantID)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("C%d", row), incident.Customer)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("D%d", row), incident.EndpointID)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("E%d", row), incident.AlertType)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("F%d", row), incident.Severity)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("G%d", row), incident.StartAt.Format(time.RFC3339))
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("H%d", row), incident.EndAt.Format(time.RFC3339))
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("I%d", row), incident.TicketID)
		_ = f.SetCellValue(incidentSheet, fmt.Sprintf("J%d", row), incident.Description)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
