package studio

import (
	"errors"
	"fmt"
)

// ValidationError is a user-correctable problem found before any task is
// dispatched. Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnexpectedError aborts a whole invocation, e.g. when preprocessing fails.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("Lỗi: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// UserMessage returns the text a front-end should show for err.
func UserMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var uerr *UnexpectedError
	if errors.As(err, &uerr) {
		return uerr.Error()
	}
	return fallbackMessage
}

const (
	msgNeedTheme     = "Vui lòng tải lên ảnh và chọn ít nhất một phong cách."
	msgNeedRestore   = "Vui lòng tải lên ảnh và chọn ít nhất một kiểu phục hồi."
	msgNeedReference = "Vui lòng tải lên ảnh của bạn, ảnh tham chiếu và chọn ít nhất một phong cách."
	msgBadMode       = "Chế độ không hợp lệ."
	fallbackMessage  = "Lỗi: Đã có lỗi xảy ra trong quá trình tạo ảnh."
)
