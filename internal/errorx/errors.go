package errorx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// CodeError is a typed error that carries an HTTP status code.
// Logic functions return these so the global error handler can map
// them to the correct HTTP response.
type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CodeError) Error() string {
	return e.Msg
}

// ErrNotFound returns a 404 error.
func ErrNotFound(msg string) error {
	return &CodeError{Code: http.StatusNotFound, Msg: msg}
}

// ErrBadRequest returns a 400 error.
func ErrBadRequest(msg string) error {
	return &CodeError{Code: http.StatusBadRequest, Msg: msg}
}

// ErrUnauthorized returns a 401 error.
func ErrUnauthorized(msg string) error {
	return &CodeError{Code: http.StatusUnauthorized, Msg: msg}
}

// ErrUnprocessable returns a 422 error.
func ErrUnprocessable(msg string) error {
	return &CodeError{Code: http.StatusUnprocessableEntity, Msg: msg}
}

// ErrTooManyRequests returns a 429 error.
func ErrTooManyRequests(msg string) error {
	return &CodeError{Code: http.StatusTooManyRequests, Msg: msg}
}

// ErrInternal returns a 500 error.
func ErrInternal(msg string) error {
	return &CodeError{Code: http.StatusInternalServerError, Msg: msg}
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Timestamp string `json:"timestamp"`
}

func newErrorBody(code int, msg string) *errorBody {
	return &errorBody{
		Error:     http.StatusText(code),
		Message:   msg,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RegisterErrorHandler installs a global error handler that maps CodeError
// to the correct HTTP status code. Validation failures become 422. Anything
// untyped becomes a sanitised 500: the full cause is logged, the client
// only ever sees a generic message.
func RegisterErrorHandler() {
	httpx.SetErrorHandlerCtx(func(ctx context.Context, err error) (int, any) {
		switch e := err.(type) {
		case *CodeError:
			return e.Code, newErrorBody(e.Code, e.Msg)
		case validator.ValidationErrors:
			return http.StatusUnprocessableEntity,
				newErrorBody(http.StatusUnprocessableEntity, e.Error())
		default:
			logx.WithContext(ctx).Errorf("unexpected error: %v", err)
			return http.StatusInternalServerError, newErrorBody(
				http.StatusInternalServerError, "internal server error")
		}
	})
}
