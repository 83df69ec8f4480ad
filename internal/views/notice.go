// internal/views/notice.go
package views

import (
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/errors"
)

// 提示标题
const (
	TitleSuccess    = "Success"
	TitleError      = "Error"
	TitleValidation = "Validation Error"
)

// Notice 页面顶部显示一次的提示
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Error   bool   `json:"error"`
}

func successNotice(message string) *Notice {
	return &Notice{Title: TitleSuccess, Message: message}
}

// errorNotice 验证错误使用单独的标题，其余统一为 Error
func errorNotice(err error) *Notice {
	title := TitleError
	if errors.IsValidationError(err) {
		title = TitleValidation
	}
	return &Notice{Title: title, Message: errors.MessageOf(err), Error: true}
}
