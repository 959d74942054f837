package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidParameter),
		errors.Is(err, e.ErrInvalidImage),
		errors.Is(err, e.ErrProductNameRequired),
		errors.Is(err, e.ErrCategoryRequired),
		errors.Is(err, e.ErrImageRefRequired),
		errors.Is(err, e.ErrInvalidPrice),
		errors.Is(err, e.ErrPricePrecision),
		errors.Is(err, e.ErrMissingFields),
		errors.Is(err, e.ErrExpectedMultipart),
		errors.Is(err, e.ErrFileTooLarge),
		errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, unwrapMessage(err)
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, e.ErrNotFound.Error()
	case errors.Is(err, e.ErrRebuildInProgress):
		return http.StatusConflict, e.ErrRebuildInProgress.Error()
	case errors.Is(err, e.ErrNetwork):
		return http.StatusBadGateway, e.ErrNetwork.Error()
	case errors.Is(err, e.ErrEncodingFailure):
		return http.StatusBadGateway, e.ErrEncodingFailure.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

// unwrapMessage возвращает значимую часть 400-й ошибки без цепочки оберток.
func unwrapMessage(err error) string {
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(err) {
		err = inner
	}

	return err.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePriceToCents переводит строку вида "599.99" или "600" в центы.
// Отклоняет отрицательные значения, более 2 знаков после запятой и цены выше лимита.
func parsePriceToCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.LessThan(decimal.Zero) {
		return 0, e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(1_000_000_000).Mul(decimal.NewFromInt(100))
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0)

	return cents.IntPart(), nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	return data, nil
}

// parseIntForm считывает числовое поле формы или возвращает значение по умолчанию.
func parseIntForm(r *http.Request, field string, defaultValue int) (int, error) {
	v := r.FormValue(field)
	if v == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, e.Wrap(field, e.ErrInvalidParameter)
	}

	return n, nil
}

func parseFloatForm(r *http.Request, field string, defaultValue float64) (float64, error) {
	v := r.FormValue(field)
	if v == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, e.Wrap(field, e.ErrInvalidParameter)
	}

	return f, nil
}
