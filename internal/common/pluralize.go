// Package common - pluralize.go содержит функции
// для правильного склонения русских числительных.
package common

// Pluralize выбирает форму слова для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [10..19] → few (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
func Pluralize(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 10 || lastTwoDigits > 19) {
		return few
	}
	return many
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
//
//	PluralizeDays(1)  → "день"
//	PluralizeDays(3)  → "дня"
//	PluralizeDays(7)  → "дней"
func PluralizeDays(n int) string {
	return Pluralize(n, "день", "дня", "дней")
}

// PluralizeYears возвращает правильную форму слова «год» для числа n.
//
//	PluralizeYears(21) → "год"
//	PluralizeYears(34) → "года"
//	PluralizeYears(25) → "лет"
func PluralizeYears(n int) string {
	return Pluralize(n, "год", "года", "лет")
}
