package i18n

// 内置文案表。key 采用点分层级；每个语言必须覆盖同一组 key（由测试保证）。
var builtin = map[string]map[string]string{
	"en": {
		"contact.form.required":     "This field is required",
		"contact.form.invalidEmail": "Please enter a valid email address",
		"contact.form.tooShort":     "This field is too short",
		"contact.form.tooLong":      "This field is too long",
		"contact.success":           "Your message has been sent successfully!",
		"contact.error":             "Failed to send your message. Please try again later.",
		"section.projects.error":    "Failed to load GitHub projects. Please try again later.",
		"section.gallery.error":     "Failed to load images. Please try again later.",
		"section.events.error":      "Failed to load events. Please try again later.",
		"section.feed.error":        "Failed to load posts. Please try again later.",
		"section.profile.error":     "Failed to load profile. Please try again later.",
		"section.empty":             "Nothing to show yet.",
		"projects.noDescription":    "No description provided",
		"error.generic":             "An error occurred",
	},
	"vi": {
		"contact.form.required":     "Trường này là bắt buộc",
		"contact.form.invalidEmail": "Vui lòng nhập địa chỉ email hợp lệ",
		"contact.form.tooShort":     "Nội dung quá ngắn",
		"contact.form.tooLong":      "Nội dung quá dài",
		"contact.success":           "Tin nhắn của bạn đã được gửi thành công!",
		"contact.error":             "Gửi tin nhắn thất bại. Vui lòng thử lại sau.",
		"section.projects.error":    "Không thể tải dự án GitHub. Vui lòng thử lại sau.",
		"section.gallery.error":     "Không thể tải hình ảnh. Vui lòng thử lại sau.",
		"section.events.error":      "Không thể tải sự kiện. Vui lòng thử lại sau.",
		"section.feed.error":        "Không thể tải bài viết. Vui lòng thử lại sau.",
		"section.profile.error":     "Không thể tải hồ sơ. Vui lòng thử lại sau.",
		"section.empty":             "Chưa có nội dung.",
		"projects.noDescription":    "Không có mô tả",
		"error.generic":             "Đã xảy ra lỗi",
	},
}

var monthsVI = [...]string{"", "tháng 1", "tháng 2", "tháng 3", "tháng 4", "tháng 5", "tháng 6",
	"tháng 7", "tháng 8", "tháng 9", "tháng 10", "tháng 11", "tháng 12"}
