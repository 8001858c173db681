package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const XLSX_CONTENT_TYPE = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sheet struct {
	name    string
	headers []string
	rows    [][]interface{}
}

func (s sheet) write(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", s.name); err != nil {
		return err
	}
	headers := make([]interface{}, len(s.headers))
	for i, header := range s.headers {
		headers[i] = header
	}
	if err := f.SetSheetRow(s.name, "A1", &headers); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(s.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}

func filename(report string) string {
	return fmt.Sprintf("%s.xlsx", report)
}

func dateCell(value *string) interface{} {
	if value == nil {
		return ""
	}
	return (*value)[:10]
}
