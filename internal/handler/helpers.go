package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"

	"github.com/giulianopoliti/stockai/internal/apierror"
	"github.com/giulianopoliti/stockai/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// leerArchivo reads one multipart file field in full, returning the bytes,
// the declared content type and the upload's filename. The filename matters
// for audio: the transcription endpoint detects the format from its extension.
func leerArchivo(c *gin.Context, campo string) ([]byte, string, string, bool) {
	fileHeader, err := c.FormFile(campo)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el archivo en el campo '"+campo+"'"))
		return nil, "", "", false
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return nil, "", "", false
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return nil, "", "", false
	}
	return data, fileHeader.Header.Get("Content-Type"), fileHeader.Filename, true
}

// writeServiceError maps pipeline errors to HTTP responses. Input rejections
// carry their detail to the client; anything else stays generic.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEntradaInvalida):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrTranscripcionNoDisponible):
		c.JSON(http.StatusServiceUnavailable, apierror.New("El procesamiento de audio no esta disponible"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
