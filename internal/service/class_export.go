package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/internal/dto"
	appErrors "github.com/noah-isme/class-engine-api/pkg/errors"
	"github.com/noah-isme/class-engine-api/pkg/export"
)

var rosterColumns = []string{"Student ID", "Status", "Credits Total", "Credits Used", "Credits Remaining", "Low Credits", "Enrolled At"}

// ExportRoster renders the enrollments of a class as CSV or PDF. Enrollments
// whose remaining credits are within the low-credit threshold are flagged.
func (s *ClassService) ExportRoster(ctx context.Context, classID, format string) (*dto.RosterExport, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	renderer, err := export.RendererFor(f)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	class, err := s.load(ctx, classID)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := renderer.Render(buf, rosterTable(class, s.cfg.LowCreditThreshold)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	s.logger.Debug("roster exported",
		zap.String("class_id", classID),
		zap.String("format", string(f)),
		zap.Int("bytes", buf.Len()),
	)
	return &dto.RosterExport{
		Filename:    fmt.Sprintf("class-%s-roster.%s", classID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

func rosterTable(class *classroom.Class, threshold int) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("%s roster (%s, %d/%d meetings)", class.Name(), class.Status(), class.MeetingsCompleted(), class.TotalMeetings()),
		Columns: rosterColumns,
	}
	for _, e := range class.Enrollments() {
		credits := e.Credits()
		low := "no"
		if e.IsActive() && e.IsCreditsLow(threshold) {
			low = "yes"
		}
		table.Rows = append(table.Rows, []string{
			e.StudentID(),
			string(e.Status()),
			strconv.Itoa(credits.Total()),
			strconv.Itoa(credits.Used()),
			strconv.Itoa(credits.Remaining()),
			low,
			e.EnrolledAt().UTC().Format(time.RFC3339),
		})
	}
	return table
}
