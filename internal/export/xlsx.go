// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/exam-schedule/pkg/types"
)

const (
	scheduleSheet = "Schedule"
	summarySheet  = "Summary"

	// unresolvedFill highlights rows whose time is a placeholder.
	unresolvedFill = "FFF2CC"
)

var scheduleHeaders = []string{
	"Subject",
	"Event",
	"Start",
	"End",
	"Format",
	"Weightage",
	"Time (as written)",
	"Time Resolved",
}

// WriteXLSX writes a workbook with one row per entry on the Schedule sheet
// and document details on the Summary sheet.
func WriteXLSX(w io.Writer, sched types.Schedule) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	unresolvedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{unresolvedFill}},
	})
	if err != nil {
		return fmt.Errorf("creating row style: %w", err)
	}

	for i, h := range scheduleHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(scheduleSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(scheduleHeaders))
	_ = f.SetCellStyle(scheduleSheet, "A1", lastCol+"1", headerStyle)

	for i, e := range sched.Entries {
		row := i + 2
		values := []any{
			e.Subject,
			e.EventName,
			e.Start,
			e.End,
			e.Format,
			e.Weightage,
			e.RawTimeString,
			resolvedLabel(e.TimeResolved),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(scheduleSheet, cell, v)
		}
		if !e.TimeResolved {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(scheduleHeaders), row)
			_ = f.SetCellStyle(scheduleSheet, first, last, unresolvedStyle)
		}
	}

	_ = f.SetColWidth(scheduleSheet, "A", "A", 48) // subject
	_ = f.SetColWidth(scheduleSheet, "B", "B", 22) // event
	_ = f.SetColWidth(scheduleSheet, "C", "D", 20) // start, end
	_ = f.SetColWidth(scheduleSheet, "E", "F", 18) // format, weightage
	_ = f.SetColWidth(scheduleSheet, "G", "G", 24) // raw time
	_ = f.SetPanes(scheduleSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err := writeSummary(f, sched, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, sched types.Schedule, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	generated := ""
	if !sched.GeneratedAt.IsZero() {
		generated = sched.GeneratedAt.Format(time.RFC3339)
	}
	rows := [][2]any{
		{"Document", sched.DocumentID},
		{"Source", sched.SourcePath},
		{"Course", sched.CourseTitle},
		{"Generated", generated},
		{"Entries", len(sched.Entries)},
		{"Unresolved", len(sched.Unresolved())},
	}
	for i, r := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), r[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), r[1])
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle)
	_ = f.SetColWidth(summarySheet, "A", "A", 14)
	_ = f.SetColWidth(summarySheet, "B", "B", 60)
	return nil
}

func resolvedLabel(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
