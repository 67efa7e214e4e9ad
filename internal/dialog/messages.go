package dialog

import (
	"fmt"
	"strings"
)

// displayLimit caps how many options appear in a prompt. Resolution still
// runs against the full list, so replying with a name outside the shown
// entries works.
const displayLimit = 6

// formatOptionList renders options as a numbered list, one per line.
func formatOptionList[T Choice](options []T) string {
	limit := len(options)
	if limit > displayLimit {
		limit = displayLimit
	}
	lines := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		label, detail := options[i].Display()
		if detail != "" {
			lines = append(lines, fmt.Sprintf("%d. %s – %s", i+1, label, detail))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, label))
		}
	}
	return strings.Join(lines, "\n")
}

const (
	msgCancelled = `Đã dừng quy trình đặt lịch. Khi cần đặt lại bạn cứ nhắn "đặt lịch" nhé.`

	msgHospitalsUnavailable = "Xin lỗi, tôi chưa thể tải danh sách bệnh viện. Bạn thử lại sau hoặc sử dụng mục Đặt lịch hẹn ở trang chủ nhé."

	msgNoHospitals = "Hiện chưa tải được danh sách bệnh viện hỗ trợ đặt lịch. Bạn có thể sử dụng mục Đặt lịch tại trang chủ để tiếp tục."

	msgNoHospitalList = "Tôi chưa có danh sách bệnh viện để gợi ý. Bạn thử lại sau nhé."

	msgHospitalInvalid = "Mã bệnh viện chưa hợp lệ. Bạn chọn lại giúp tôi nhé:"

	msgDepartmentsFetchFailed = "Tôi chưa thể tải danh sách chuyên khoa. Bạn thử lại sau hoặc chọn bệnh viện khác nhé."

	msgNoDepartmentsForHospital = "Tôi chưa tìm thấy chuyên khoa phù hợp cho cơ sở này. Bạn chọn lại bệnh viện nhé."

	msgDepartmentInvalid = "Tên chuyên khoa chưa đúng. Bạn chọn theo danh sách sau nhé:"

	msgDoctorsFetchFailed = "Tôi chưa thể tải danh sách bác sĩ. Bạn thử lại sau nhé."

	msgNoDoctorsForDepartment = "Chưa có bác sĩ khả dụng ở khoa này. Bạn chọn lại chuyên khoa nhé."

	msgDoctorInvalid = "Tên bác sĩ chưa chính xác. Bạn chọn theo danh sách nhé:"

	msgNoSlotsForDoctor = "Bác sĩ này chưa mở lịch trong vài ngày tới. Bạn có muốn chọn bác sĩ khác không?"

	msgNoSlotList = "Hiện chưa có khung giờ nào khả dụng. Bạn chọn lại bác sĩ nhé."

	msgSlotInvalid = "Mã khung giờ chưa hợp lệ. Bạn chọn lại theo danh sách nhé:"

	msgAskFullName = "Vui lòng cho tôi biết họ tên đầy đủ của bệnh nhân?"

	msgFullNameTooShort = "Họ tên cần ít nhất 3 ký tự. Bạn nhập lại giúp tôi nhé."

	msgAskPhone = "📞 Số điện thoại của bạn là gì? (10-11 số)"

	msgPhoneInvalid = "Số điện thoại chưa đúng. Bạn nhập lại 10-11 số nhé."

	msgAskEmail = "✉️ Email để chúng tôi gửi xác nhận?"

	msgEmailInvalid = "Email chưa đúng định dạng. Bạn nhập lại giúp tôi nhé."

	msgAskSymptoms = `Bạn có thể mô tả ngắn gọn triệu chứng chính (hoặc nhập "bỏ qua" nếu chưa sẵn sàng chia sẻ)?`

	msgMissingFields = `Tôi thiếu một vài thông tin để đặt lịch. Bạn thử bắt đầu lại bằng cách nhắn "đặt lịch" nhé.`

	msgBookingFailed = "Xin lỗi, tôi chưa thể tạo lịch hẹn lúc này. Bạn kiểm tra lại kết nối hoặc thử đặt trực tiếp ở mục Đặt lịch hẹn nhé."
)

func msgStartFlow(hospitalList string) string {
	return strings.Join([]string{
		"✨ Tôi sẽ giúp bạn đặt lịch khám trực tuyến.",
		"Đầu tiên, bạn muốn khám tại cơ sở nào? Dưới đây là một vài lựa chọn:",
		hospitalList,
		"",
		`👉 Trả lời bằng số thứ tự hoặc nhập tên bệnh viện. Gõ "hủy" để dừng quy trình bất cứ lúc nào.`,
	}, "\n")
}

func msgHospitalChosen(hospitalName, departmentList string) string {
	return strings.Join([]string{
		fmt.Sprintf("✅ Đã chọn %s.", hospitalName),
		"Bạn muốn khám ở chuyên khoa nào?",
		departmentList,
		"",
		"👉 Nhập số thứ tự hoặc tên chuyên khoa.",
	}, "\n")
}

func msgHospitalClosed(hospitalName, hospitalList string) string {
	return fmt.Sprintf("Hiện %s chưa mở đặt lịch qua chatbot. Bạn có thể chọn cơ sở khác:\n%s", hospitalName, hospitalList)
}

func msgDepartmentChosen(departmentName, doctorList string) string {
	return strings.Join([]string{
		fmt.Sprintf("👍 Đã chọn khoa %s.", departmentName),
		"Bạn muốn đặt bác sĩ nào?",
		doctorList,
		"",
		"👉 Nhập số thứ tự hoặc tên bác sĩ.",
	}, "\n")
}

func msgDepartmentEmpty(departmentName, departmentList string) string {
	return fmt.Sprintf("Khoa %s chưa có bác sĩ khả dụng. Bạn có thể chọn khoa khác:\n%s", departmentName, departmentList)
}

func msgDoctorChosen(doctorName, slotList string) string {
	return strings.Join([]string{
		fmt.Sprintf("🩺 Bạn đã chọn bác sĩ %s.", doctorName),
		"Các khung giờ còn trống trong vài ngày tới:",
		slotList,
		"",
		"👉 Nhập số thứ tự để chọn khung giờ.",
	}, "\n")
}

func msgSlotChosen(slotLabel string) string {
	return strings.Join([]string{
		fmt.Sprintf("🗓️ Đã chọn %s.", slotLabel),
		msgAskFullName,
	}, "\n")
}

func msgBookingConfirmed(d Data, humanDate, reference string) string {
	return strings.Join([]string{
		"🎉 Lịch hẹn của bạn đã được tạo thành công!",
		fmt.Sprintf("• Bệnh viện: %s", d.HospitalName),
		fmt.Sprintf("• Khoa: %s", d.DepartmentName),
		fmt.Sprintf("• Bác sĩ: %s", d.DoctorName),
		fmt.Sprintf("• Thời gian: %s lúc %s", humanDate, d.Time),
		fmt.Sprintf("• Mã lịch hẹn: %s", reference),
		"",
		`Chúng tôi sẽ gửi xác nhận qua email/SMS trong ít phút. Nếu cần chỉnh sửa, bạn có thể nhắn "đặt lịch" để tạo lịch mới hoặc truy cập mục Đặt lịch hẹn trên trang chủ.`,
	}, "\n")
}
