package services

import (
	"errors"
	"testing"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

func TestSyntheticMerchantDeterministic(t *testing.T) {
	a, err := SyntheticMerchant("30-71234567-8")
	if err != nil {
		t.Fatalf("SyntheticMerchant: %v", err)
	}
	b, err := SyntheticMerchant(" 30712345678 ")
	if err != nil {
		t.Fatalf("SyntheticMerchant: %v", err)
	}
	if *a != *b {
		t.Fatalf("same cuit must give same profile: a=%+v b=%+v", a, b)
	}
	if a.CUIT != "30-71234567-8" {
		t.Fatalf("cuit format: got=%s", a.CUIT)
	}
	if a.PersonType != "juridica" {
		t.Fatalf("person type for 30 prefix: want=juridica got=%s", a.PersonType)
	}
	if len(a.CVU) != 22 || a.CVU[:7] != "0000003" {
		t.Fatalf("cvu: got=%s", a.CVU)
	}
	if len(a.CategoryCode) != 4 {
		t.Fatalf("category code: got=%s", a.CategoryCode)
	}
}

func TestSyntheticMerchantPhysicalPerson(t *testing.T) {
	m, err := SyntheticMerchant("20-12345678-9")
	if err != nil {
		t.Fatalf("SyntheticMerchant: %v", err)
	}
	if m.PersonType != "fisica" {
		t.Fatalf("person type for 20 prefix: want=fisica got=%s", m.PersonType)
	}
}

func TestSyntheticMerchantRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "123", "30-7123456-78x", "301234567890"} {
		if _, err := SyntheticMerchant(in); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("%q: want ErrInvalidArgument got %v", in, err)
		}
	}
}
