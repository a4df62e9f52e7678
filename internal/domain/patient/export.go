package patient

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/hms/hms/internal/platform/apperr"
)

const exportSheet = "Patients"

// exportColumns lists the roster columns in order with their widths.
var exportColumns = []struct {
	header string
	width  float64
	value  func(p *Patient) interface{}
}{
	{"Patient ID", 18, func(p *Patient) interface{} { return p.PatientID }},
	{"Full Name", 24, func(p *Patient) interface{} { return p.FullName }},
	{"Gender", 10, func(p *Patient) interface{} { return p.Gender }},
	{"Date of Birth", 14, func(p *Patient) interface{} { return p.DateOfBirth.String() }},
	{"Age", 6, func(p *Patient) interface{} {
		if p.Age == nil {
			return ""
		}
		return *p.Age
	}},
	{"Phone", 16, func(p *Patient) interface{} { return p.PhoneNumber }},
	{"Email", 26, func(p *Patient) interface{} { return p.Email }},
	{"Blood Group", 12, func(p *Patient) interface{} { return p.BloodGroup }},
	{"Patient Type", 12, func(p *Patient) interface{} { return string(p.PatientType) }},
	{"Admission Date", 14, func(p *Patient) interface{} { return p.AdmissionDate.String() }},
	{"Discharge Date", 14, func(p *Patient) interface{} {
		if p.DischargeDate == nil {
			return ""
		}
		return p.DischargeDate.String()
	}},
	{"Room / Ward", 12, func(p *Patient) interface{} { return p.RoomOrWardNumber }},
	{"Doctor ID", 14, func(p *Patient) interface{} { return p.DoctorID }},
	{"Hospital ID", 14, func(p *Patient) interface{} { return p.HospitalID }},
}

// Export writes the caller's whole roster as an xlsx workbook to w and
// returns the number of patients written.
func (s *Service) Export(ctx context.Context, scope Scope, w io.Writer) (int, error) {
	patients, err := s.repo.ListAll(ctx, scope)
	if err != nil {
		return 0, apperr.Internal("Internal server error", err)
	}
	if err := writeRoster(w, patients); err != nil {
		return 0, apperr.Internal("Failed to export patients", err)
	}
	return len(patients), nil
}

func writeRoster(w io.Writer, patients []*Patient) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("header row: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, p := range patients {
		row := make([]interface{}, len(exportColumns))
		for j, col := range exportColumns {
			row[j] = col.value(p)
		}
		if err := f.SetSheetRow(exportSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}
