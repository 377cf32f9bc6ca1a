package services

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	types "github.com/unexbilletera/unex-api/internal/domain"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

var (
	merchantTrades   = []string{"Almacen", "Ferreteria", "Farmacia", "Libreria", "Panaderia", "Kiosco", "Verduleria", "Optica"}
	merchantPlaces   = []string{"del Sur", "Central", "San Martin", "Belgrano", "del Puerto", "Norte", "La Plata", "Palermo"}
	legalCUITPrefix  = map[string]bool{"30": true, "33": true, "34": true}
	cvuEntityPrefix  = "0000003"
	merchantCategory = 10000
)

// NormalizeCUIT strips separators and requires exactly 11 digits.
func NormalizeCUIT(taxID string) (string, error) {
	digits := strings.NewReplacer("-", "", " ", "", ".", "").Replace(strings.TrimSpace(taxID))
	if len(digits) != 11 {
		return "", fmt.Errorf("cuit must have 11 digits: %w", pkgerrors.ErrInvalidArgument)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("cuit must be numeric: %w", pkgerrors.ErrInvalidArgument)
		}
	}
	return digits, nil
}

// SyntheticMerchant derives a stable profile from the CUIT digits. There is no
// merchant directory behind it: equal inputs give equal profiles.
func SyntheticMerchant(taxID string) (*types.Merchant, error) {
	digits, err := NormalizeCUIT(taxID)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(digits))

	trade := merchantTrades[int(sum[0])%len(merchantTrades)]
	place := merchantPlaces[int(sum[1])%len(merchantPlaces)]
	personType := "fisica"
	name := fmt.Sprintf("%s %s", trade, place)
	if legalCUITPrefix[digits[:2]] {
		personType = "juridica"
		name += " S.A."
	}

	var cvu strings.Builder
	cvu.WriteString(cvuEntityPrefix)
	for i := 0; cvu.Len() < 22; i++ {
		cvu.WriteByte('0' + sum[2+i]%10)
	}

	return &types.Merchant{
		CUIT:         fmt.Sprintf("%s-%s-%s", digits[:2], digits[2:10], digits[10:]),
		Name:         name,
		FantasyName:  trade + " " + digits[7:10],
		Status:       "active",
		PersonType:   personType,
		CategoryCode: fmt.Sprintf("%04d", int(binary.BigEndian.Uint16(sum[18:20]))%merchantCategory),
		CVU:          cvu.String(),
	}, nil
}
