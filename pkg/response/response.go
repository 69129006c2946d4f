package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 代表响应给客户端的的一个消息结构，包括错误码，错误信息，响应数据
type ApiResponse struct {
	Code    int         `json:"code"` // 错误码 0表示无错误
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 发送json格式数据
func JSON(c *gin.Context, err error, data interface{}) {
	// 失败返回 http 状态码 400，错误信息放在 message 里
	if err != nil {
		c.JSON(http.StatusBadRequest, ApiResponse{
			Code:    1,
			Message: err.Error(),
			Data:    nil,
		})
		return
	}
	c.JSON(http.StatusOK, ApiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}
