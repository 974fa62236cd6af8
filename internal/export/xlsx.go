// Package export writes the detail table to spreadsheet formats.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salarydash/internal/models"
)

const (
	SheetName = "Dados"
	XLSXMime  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header is the column order of exported rows.
var Header = []string{
	string(models.ColYear),
	string(models.ColSeniority),
	string(models.ColContract),
	string(models.ColCompanySize),
	string(models.ColRole),
	string(models.ColSalaryUSD),
	string(models.ColRemote),
	string(models.ColResidenceISO3),
	string(models.ColCompanyCountry),
}

func row(r models.Record) []interface{} {
	return []interface{}{
		r.Year, r.Seniority, r.ContractType, r.CompanySize, r.Role,
		r.SalaryUSD, r.RemoteType, r.ResidenceISO3, r.CompanyCountry,
	}
}

// newWorkbook builds a single-sheet workbook holding records.
func newWorkbook(records []models.Record) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		vals := row(r)
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

// WriteXLSX streams records as an xlsx workbook to w.
func WriteXLSX(w io.Writer, records []models.Record) error {
	f, err := newWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes records to an xlsx file at path.
func SaveXLSX(path string, records []models.Record) error {
	f, err := newWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
