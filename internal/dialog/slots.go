package dialog

import (
	"context"

	"github.com/vietcare/booking-assistant/internal/catalog"
)

const (
	// slotLookaheadDays is the future window searched for open slots,
	// starting tomorrow.
	slotLookaheadDays = 5
	// maxSlotOptions caps the total slots offered across all days.
	maxSlotOptions = 10
)

// buildSlotOptions walks the lookahead window one day at a time and flattens
// each day's open times into selectable options. A day whose schedule cannot
// be fetched is skipped; partial results are fine. The patient sees "fetch
// failed" and "no slots that day" identically, so only a debug log separates
// them here.
func (e *Engine) buildSlotOptions(ctx context.Context, doctorID string) []catalog.SlotOption {
	slots := make([]catalog.SlotOption, 0, maxSlotOptions)
	today := e.now()

	for offset := 1; offset <= slotLookaheadDays; offset++ {
		day := today.AddDate(0, 0, offset)
		dateStr := day.Format("2006-01-02")

		times, err := e.gateway.GetSchedule(ctx, doctorID, dateStr)
		if err != nil {
			e.logger.Debug("dialog: schedule unavailable",
				"doctor_id", doctorID,
				"date", dateStr,
				"error", err,
			)
			continue
		}

		for _, t := range times {
			slots = append(slots, catalog.SlotOption{
				Option: catalog.Option{
					ID:    dateStr + "_" + t,
					Label: day.Format("02/01") + " • " + t,
				},
				Date: dateStr,
				Time: t,
			})
			if len(slots) >= maxSlotOptions {
				return slots
			}
		}
	}
	return slots
}
