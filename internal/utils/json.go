package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

/*
decodeStrict decodifica JSON rejeitando chaves desconhecidas
e garantindo que exista exatamente UM objeto JSON.
*/
func DecodeStrict(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		/*
			retorna mensagens refenre ao erro dos campos,
			como por exemplo (ex.: "json: unknown field \"foo\"")
		*/
		return err
	}
	/*
		Garante que não tenha lixo após o objeto JSON
		Uma forma de checar EOF seria tentar um segundo Decode em struct{} e exigir EOF.
	*/
	if dec.More() {
		return errors.New("unexpected additional JSON content")
	}

	return nil
}

func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, map[string]string{"error": msg})
}

func BadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, msg)
}

// Tira o prefixo "json: " das mensagens do decoder (ex.: unknown field "foo")
func FormatUnknownFieldError(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), "json: ")
}
