package dialog

import "strings"

// bookingKeywords are the Vietnamese/English terms that route a free-text
// message into the booking flow. Accent-stripped variants are included because
// patients often type without diacritics.
var bookingKeywords = []string{
	"đặt lịch",
	"dat lich",
	"lịch hẹn",
	"lich hen",
	"lịch khám",
	"lich kham",
	"đăng ký khám",
	"dang ky kham",
	"booking",
	"appointment",
	"hẹn bác sĩ",
	"hen bac si",
	"đặt lịch bác sĩ",
	"dat lich bac si",
}

// IsBookingQuery reports whether a message should enter the booking flow.
// Once a flow is collecting, the caller routes every message here regardless.
func IsBookingQuery(message string) bool {
	normalized := strings.ToLower(message)
	for _, keyword := range bookingKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

var cancelWords = map[string]struct{}{
	"hủy":    {},
	"huy":    {},
	"thoát":  {},
	"thoat":  {},
	"cancel": {},
	"stop":   {},
	"exit":   {},
}

// IsCancelCommand reports whether the message aborts the flow. Checked before
// any other processing on every turn.
func IsCancelCommand(message string) bool {
	_, ok := cancelWords[strings.ToLower(strings.TrimSpace(message))]
	return ok
}

// skipWords are the answers that leave the symptoms field empty.
var skipWords = map[string]struct{}{
	"bỏ qua": {},
	"bo qua": {},
	"không":  {},
	"khong":  {},
}

func normalizeSymptoms(message string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return ""
	}
	if _, skip := skipWords[strings.ToLower(trimmed)]; skip {
		return ""
	}
	return trimmed
}
