package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Werneck0live/loja-precificacao/internal/tax"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// mensagens usam o nome do campo no JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct devolve a primeira violação em formato legível.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "required_without":
		return errors.New("either nome_fantasia or razao_social is required")
	case "min":
		return fmt.Errorf("%s must be >= %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s", fe.Field(), fe.Param())
	case "slug":
		return fmt.Errorf("%s must be lowercase letters, digits and hyphens", fe.Field())
	default:
		return fmt.Errorf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%s must be >= 0", field)
	}
	return nil
}

func parseAnnexField(s string) (tax.Annex, error) {
	a, err := tax.ParseAnnex(s)
	if err != nil {
		return "", errors.New("anexo must be II or III")
	}
	return a, nil
}

func validateCreateDTO(d TaxProfileCreateDTO) (tax.Annex, error) {
	if err := validateStruct(d); err != nil {
		return "", err
	}
	if err := nonNegative("receita_bruta_12m", d.ReceitaBruta12M); err != nil {
		return "", err
	}
	return parseAnnexField(d.Anexo)
}

func validatePatchDTO(d TaxProfilePatchDTO) error {
	if err := validateStruct(d); err != nil {
		return err
	}
	if d.ReceitaBruta12M != nil {
		if err := nonNegative("receita_bruta_12m", *d.ReceitaBruta12M); err != nil {
			return err
		}
	}
	if d.Anexo != nil {
		if _, err := parseAnnexField(*d.Anexo); err != nil {
			return err
		}
	}
	return nil
}

func validatePutDTO(d TaxProfilePutDTO) (tax.Annex, error) {
	if err := validateStruct(d); err != nil {
		return "", err
	}
	if err := nonNegative("receita_bruta_12m", d.ReceitaBruta12M); err != nil {
		return "", err
	}
	return parseAnnexField(d.Anexo)
}

func validateQuoteRequest(d QuoteRequest) error {
	return nonNegative("unit_price", d.UnitPrice)
}

func validateTaxEstimateRequest(d TaxEstimateRequest) (tax.Annex, error) {
	if err := nonNegative("receita_bruta_12m", d.ReceitaBruta12M); err != nil {
		return "", err
	}
	if d.ReceitaMes != nil {
		if err := nonNegative("receita_mes", *d.ReceitaMes); err != nil {
			return "", err
		}
	}
	return parseAnnexField(d.Anexo)
}
