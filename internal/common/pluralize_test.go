package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeDays(t *testing.T) {
	cases := map[int]string{
		0:   "дней",
		1:   "день",
		2:   "дня",
		3:   "дня",
		4:   "дня",
		5:   "дней",
		11:  "дней",
		12:  "дней",
		14:  "дней",
		21:  "день",
		22:  "дня",
		25:  "дней",
		100: "дней",
		101: "день",
		111: "дней",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeDays(n), "n=%d", n)
	}
}

func TestPluralizeYears(t *testing.T) {
	cases := map[int]string{
		1:   "год",
		2:   "года",
		4:   "года",
		5:   "лет",
		11:  "лет",
		21:  "год",
		22:  "года",
		25:  "лет",
		100: "лет",
		101: "год",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeYears(n), "n=%d", n)
	}
}

func TestPluralizeNegative(t *testing.T) {
	assert.Equal(t, "день", PluralizeDays(-1))
	assert.Equal(t, "лет", PluralizeYears(-5))
}
