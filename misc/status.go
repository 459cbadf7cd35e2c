package misc

import "github.com/gin-gonic/gin"

// Status is the uniform response envelope. Kind carries the stable error
// tag clients branch on; it is empty on success.
type Status struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func StatusOK(data interface{}) *Status {
	return &Status{Status: "success", Message: "Request was successful", Data: data}
}

func StatusOKMsg(msg string, data interface{}) *Status {
	return &Status{Status: "success", Message: msg, Data: data}
}

func StatusErrKind(msg, kind string) *Status {
	return &Status{Status: "error", Message: msg, Kind: kind}
}

func AbortWithKind(c *gin.Context, code int, kind string, err error) {
	c.JSON(code, StatusErrKind(err.Error(), kind))
	c.Abort()
}
