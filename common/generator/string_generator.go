package generator

import (
	"strconv"

	"github.com/Pallinder/go-randomdata"
	"github.com/google/uuid"
)

type StringGenerator struct {
}

func (n *StringGenerator) GenerateUuid() string {
	return uuid.New().String()
}

// GenerateRandomDigits returns a 9 digit random number, used to salt file
// names and simulated transaction ids.
func (n *StringGenerator) GenerateRandomDigits() string {
	return strconv.Itoa(randomdata.Number(100000000, 999999999))
}
