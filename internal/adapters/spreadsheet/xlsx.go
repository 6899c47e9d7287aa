package spreadsheet

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/grade"
)

const gradeSheet = "Grade"

// ReadRows returns the rows of the first sheet of an XLSX workbook.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("planilla sin hojas")
	}
	return f.GetRows(sheets[0])
}

// WriteGrade writes the product's generated rows as a workbook: one column
// per axis, in combo order, followed by EAN-13 and SKU.
func WriteGrade(w io.Writer, p *domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), gradeSheet); err != nil {
		return err
	}

	var keys []string
	if len(p.GradeRows) > 0 {
		for _, a := range p.GradeRows[0].Combo {
			keys = append(keys, a.Key)
		}
	} else if p.Grade != nil {
		for i, a := range p.Grade.Axes {
			keys = append(keys, grade.AxisKey(a, i))
		}
	}

	header := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		header = append(header, k)
	}
	header = append(header, "EAN-13", "SKU")
	if err := f.SetSheetRow(gradeSheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range p.GradeRows {
		vals := make([]any, 0, len(keys)+2)
		for j := range keys {
			v := ""
			if j < len(row.Combo) {
				v = row.Combo[j].Value
			}
			vals = append(vals, v)
		}
		vals = append(vals, row.EAN13, row.SKU)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(gradeSheet, cell, &vals); err != nil {
			return err
		}
	}

	if last, err := excelize.ColumnNumberToName(len(header)); err == nil {
		_ = f.SetColWidth(gradeSheet, "A", last, 16)
	}
	_ = f.SetPanes(gradeSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	_, err := f.WriteTo(w)
	return err
}
