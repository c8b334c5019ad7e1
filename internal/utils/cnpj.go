package utils

import "unicode"

// remove qualquer coisa que não seja dígito
func SanitizeCNPJ(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidateCNPJ espera o CNPJ já sanitizado: 14 dígitos, não todos iguais,
// e os dois dígitos verificadores (módulo 11) corretos.
func ValidateCNPJ(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}
	allEq := true
	for i := 0; i < 14; i++ {
		if cnpj[i] < '0' || cnpj[i] > '9' {
			return false
		}
		if cnpj[i] != cnpj[0] {
			allEq = false
		}
	}
	if allEq {
		return false
	}
	return cnpjDigit(cnpj[:12], cnpjWeights1) == cnpj[12] &&
		cnpjDigit(cnpj[:13], cnpjWeights2) == cnpj[13]
}

func cnpjDigit(base string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(base[i]-'0') * w
	}
	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}

// FormatCNPJ: 11222333000181 -> 11.222.333/0001-81
func FormatCNPJ(cnpj string) string {
	if len(cnpj) != 14 {
		return cnpj
	}
	return cnpj[:2] + "." + cnpj[2:5] + "." + cnpj[5:8] + "/" + cnpj[8:12] + "-" + cnpj[12:]
}
