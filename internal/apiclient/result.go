package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind различает природу неудачного ответа.
type ErrorKind string

const (
	// KindNetwork означает, что ответа нет (обрыв соединения, таймаут или отмена).
	KindNetwork ErrorKind = "network"
	// KindHTTP: сервер ответил статусом 4xx/5xx.
	KindHTTP ErrorKind = "http"
	// KindApplication: статус успешный, но success=false в теле.
	KindApplication ErrorKind = "application"
)

// Error: ошибка вызова API.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("api %s error (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("api %s error (status %d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("api %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("api %s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf возвращает HTTP-статус из ошибки API или 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized сообщает, что сервер ответил 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNetwork сообщает, что ответ не был получен.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}

// Result: единый результат запроса, независимо от формы конверта.
// Data содержит полезную нагрузку, то есть содержимое data у вложенного конверта или
// объект из остальных полей у плоского ({token, user}).
type Result struct {
	Success bool
	Status  int
	Data    json.RawMessage
	Message string
	Err     *Error
}

// Decode декодирует Data в dst. Пустые данные не считаются ошибкой.
func (r Result) Decode(dst any) error {
	if !r.Success {
		return r.AsError()
	}
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// AsError возвращает ошибку результата или nil при успехе.
func (r Result) AsError() error {
	if r.Success {
		return nil
	}
	if r.Err == nil {
		return &Error{Kind: KindApplication, Status: r.Status, Message: r.Message}
	}
	return r.Err
}

// envelopeKeys: служебные поля конверта, не входящие в полезную нагрузку.
var envelopeKeys = map[string]struct{}{
	"success": {},
	"message": {},
	"error":   {},
	"data":    {},
}

// normalize приводит тело ответа к Result. Поддерживаются конверты
// {success, data, message} и {success, token, user, message}; флаг success
// по умолчанию берётся из статуса.
func normalize(status int, body []byte) Result {
	ok2xx := status >= 200 && status < 300
	res := Result{Status: status, Success: ok2xx}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return finish(res)
	}

	var fields map[string]json.RawMessage
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &fields) != nil {
		if trimmed[0] == '[' && json.Valid(trimmed) {
			res.Data = json.RawMessage(trimmed)
		} else if !ok2xx {
			res.Message = strings.TrimSpace(string(trimmed))
		}
		return finish(res)
	}

	if raw, ok := fields["success"]; ok {
		var flag bool
		if json.Unmarshal(raw, &flag) == nil {
			res.Success = flag && ok2xx
		}
	}
	res.Message = firstString(fields, "message", "error")

	if raw, ok := fields["data"]; ok {
		res.Data = raw
		return finish(res)
	}

	payload := make(map[string]json.RawMessage, len(fields))
	for key, raw := range fields {
		if _, skip := envelopeKeys[key]; !skip {
			payload[key] = raw
		}
	}
	if len(payload) > 0 {
		if encoded, err := json.Marshal(payload); err == nil {
			res.Data = encoded
		}
	}
	return finish(res)
}

func finish(res Result) Result {
	if res.Success {
		return res
	}
	kind := KindApplication
	if res.Status < 200 || res.Status >= 300 {
		kind = KindHTTP
	}
	message := res.Message
	if message == "" && kind == KindHTTP {
		message = http.StatusText(res.Status)
	}
	res.Err = &Error{Kind: kind, Status: res.Status, Message: message}
	return res
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var text string
		if json.Unmarshal(raw, &text) == nil && text != "" {
			return text
		}
	}
	return ""
}

func networkResult(err error) Result {
	return Result{Err: &Error{Kind: KindNetwork, Message: err.Error(), Err: err}}
}
